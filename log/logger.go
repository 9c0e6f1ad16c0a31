package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines an interface for application logger.
type Logger interface {
	Debug(msg string, fields ...zapcore.Field)

	Info(msg string, fields ...zapcore.Field)

	Warn(msg string, fields ...zapcore.Field)

	Error(msg string, fields ...zapcore.Field)

	// With returns a child logger with the given fields attached.
	With(fields ...zapcore.Field) Logger
}

var _ Logger = &loggerImpl{}

type loggerImpl struct {
	zapLogger *zap.Logger
}

// Debug implements Logger.
func (l *loggerImpl) Debug(msg string, fields ...zapcore.Field) {
	l.zapLogger.Debug(msg, fields...)
}

// Info implements Logger.
func (l *loggerImpl) Info(msg string, fields ...zapcore.Field) {
	l.zapLogger.Info(msg, fields...)
}

// Warn implements Logger.
func (l *loggerImpl) Warn(msg string, fields ...zapcore.Field) {
	l.zapLogger.Warn(msg, fields...)
}

// Error implements Logger.
func (l *loggerImpl) Error(msg string, fields ...zapcore.Field) {
	l.zapLogger.Error(msg, fields...)
}

// With implements Logger.
func (l *loggerImpl) With(fields ...zapcore.Field) Logger {
	return &loggerImpl{
		zapLogger: l.zapLogger.With(fields...),
	}
}

// NewLogger creates a new logger.
// If fileName is non-empty, it pipes logs to file in addition to stdout.
func NewLogger(isProduction bool, fileName string, logLevel string) (Logger, error) {
	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var config zap.Config
	if isProduction {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	config.Level = zap.NewAtomicLevelAt(level)
	config.OutputPaths = []string{"stdout"}
	if fileName != "" {
		config.OutputPaths = append(config.OutputPaths, fileName)
	}

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &loggerImpl{
		zapLogger: zapLogger,
	}, nil
}

var _ Logger = &NoOpLogger{}

// NoOpLogger is a no-op logger. Useful for testing.
type NoOpLogger struct{}

// Debug implements Logger.
func (*NoOpLogger) Debug(msg string, fields ...zapcore.Field) {}

// Info implements Logger.
func (*NoOpLogger) Info(msg string, fields ...zapcore.Field) {}

// Warn implements Logger.
func (*NoOpLogger) Warn(msg string, fields ...zapcore.Field) {}

// Error implements Logger.
func (*NoOpLogger) Error(msg string, fields ...zapcore.Field) {}

// With implements Logger.
func (n *NoOpLogger) With(fields ...zapcore.Field) Logger { return n }
