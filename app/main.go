package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryotel "github.com/getsentry/sentry-go/otel"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	"github.com/Maia-DAO/smart-order-router/chain"
	"github.com/Maia-DAO/smart-order-router/domain"
	sorlog "github.com/Maia-DAO/smart-order-router/log"
)

func main() {
	configPath := flag.String("config", "config.json", "config file location")

	hostName := flag.String("host", "sor", "the name of the host")

	isDebug := flag.Bool("debug", false, "debug mode")

	// Parse the command-line arguments
	flag.Parse()

	if *isDebug {
		log.Println("Service RUN on DEBUG mode")
	}

	// RPC endpoints indirect through the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Println("no .env file loaded:", err)
	}

	config := DefaultConfig
	if _, err := os.Stat(*configPath); err == nil {
		viper.SetConfigFile(*configPath)
		if err := viper.ReadInConfig(); err != nil {
			panic(err)
		}

		// Unmarshal the config into your Config struct
		if err := viper.Unmarshal(&config); err != nil {
			fmt.Println("Error unmarshalling config:", err)
			return
		}
	}

	if !domain.IsSupportedChain(domain.ChainID(config.ChainID)) {
		log.Fatalf("unsupported chain id %d", config.ChainID)
	}

	// Handle SIGINT and SIGTERM signals to initiate shutdown
	exitChan := make(chan os.Signal, 1)
	signal.Notify(exitChan, os.Interrupt, syscall.SIGTERM)

	defer func() {
		if err := recover(); err != nil {
			log.Println(err)
			exitChan <- syscall.SIGTERM
		}
	}()

	if config.OTEL != nil && config.OTEL.DSN != "" {
		otelConfig := config.OTEL

		err := sentry.Init(sentry.ClientOptions{
			ServerName:    *hostName,
			Dsn:           otelConfig.DSN,
			SampleRate:    otelConfig.SampleRate,
			EnableTracing: true,
			Debug:         *isDebug,
			Environment:   otelConfig.Environment,
		})
		if err != nil {
			log.Fatalf("sentry.Init: %s", err)
		}
		defer sentry.Flush(2 * time.Second)

		initOTELTracer(*hostName)
	}

	// logger
	logger, err := sorlog.NewLogger(config.LoggerIsProduction, config.LoggerFilename, config.LoggerLevel)
	if err != nil {
		panic(fmt.Errorf("error while creating logger: %s", err))
	}
	logger.Info("Starting smart order router server")

	rpcEnvVar := config.RPCEndpointEnvVar
	if rpcEnvVar == "" {
		rpcEnvVar = chain.RPCEnvVar(domain.ChainID(config.ChainID))
	}
	endpoint := os.Getenv(rpcEnvVar)
	if endpoint == "" {
		log.Fatalf("environment variable %s is not set", rpcEnvVar)
	}

	chainClient, err := chain.NewClientWithEndpoint(endpoint)
	if err != nil {
		panic(err)
	}

	// Use context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	// If fails, it means that the node is not reachable
	if _, err := chainClient.GetLatestHeight(ctx); err != nil {
		panic(err)
	}

	routerServer, err := NewRouterServer(config, chainClient, logger)
	if err != nil {
		panic(err)
	}

	go func() {
		<-exitChan
		cancel() // Trigger shutdown

		err := routerServer.Shutdown(ctx)
		if err != nil {
			log.Fatal(err)
		}

		os.Exit(0)
	}()

	if err := routerServer.Start(ctx); err != nil {
		panic(err)
	}
}

// initOTELTracer initializes the OTEL tracer
// and wires it up with the Sentry exporter.
func initOTELTracer(hostName string) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		log.Fatalf("stdouttrace.New: %v", err)
	}

	otelResource, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(hostName),
		),
	)
	if err != nil {
		log.Fatalf("resource.New: %v", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(otelResource),
		sdktrace.WithSpanProcessor(sentryotel.NewSentrySpanProcessor()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(sentryotel.NewSentryPropagator())
}
