package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/log"
)

// GoMiddleware represent the data-struct for middleware
type GoMiddleware struct {
	corsConfig domain.CORSConfig
	logger     log.Logger
}

const requestIDHeader = "X-Request-Id"

var (
	// total number of requests counter
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sor_requests_total",
			Help: "Total number of requests.",
		},
		[]string{"method", "endpoint"},
	)

	// request latency histogram
	requestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sor_request_duration_seconds",
			Help:    "Histogram of request latencies.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestLatency)
}

// InitMiddleware initialize the middleware
func InitMiddleware(corsConfig *domain.CORSConfig, logger log.Logger) *GoMiddleware {
	return &GoMiddleware{
		corsConfig: *corsConfig,
		logger:     logger,
	}
}

// CORS will handle the CORS middleware
func (m *GoMiddleware) CORS(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Access-Control-Allow-Origin", m.corsConfig.AllowedOrigin)
		c.Response().Header().Set("Access-Control-Allow-Headers", m.corsConfig.AllowedHeaders)
		c.Response().Header().Set("Access-Control-Allow-Methods", m.corsConfig.AllowedMethods)
		return next(c)
	}
}

// RequestID tags every request with a stable identifier for log correlation.
func (m *GoMiddleware) RequestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Response().Header().Set(requestIDHeader, requestID)
		c.Set("request_id", requestID)
		return next(c)
	}
}

// InstrumentMiddleware will handle the instrumentation middleware
func (m *GoMiddleware) InstrumentMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		requestMethod := c.Request().Method
		requestPath := c.Path()

		// Increment the request counter
		requestsTotal.WithLabelValues(requestMethod, requestPath).Inc()

		err := next(c)

		duration := time.Since(start).Seconds()

		// Observe the duration with the histogram
		requestLatency.WithLabelValues(requestMethod, requestPath).Observe(duration)

		requestID, _ := c.Get("request_id").(string)
		m.logger.Info("request served",
			zap.String("method", requestMethod),
			zap.String("path", requestPath),
			zap.String("request_id", requestID),
			zap.Float64("duration_seconds", duration))

		return err
	}
}
