// Package logging provides the structured logging interface shared by every
// venue component, backed by zap in production and a no-op implementation
// in tests that don't care about log output.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging interface every component depends on.
// Keeping it as an interface (rather than a concrete *zap.Logger) lets
// tests substitute zap.NewNop() or an observed-logs core without touching
// call sites.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	With(fields ...zap.Field) Logger
}

type zapLogger struct {
	l *zap.Logger
}

// NewZap wraps a configured *zap.Logger.
func NewZap(l *zap.Logger) Logger {
	return &zapLogger{l: l}
}

// NewProduction builds a JSON-encoded, info-level production logger matching
// the venue's ambient logging conventions.
func NewProduction(service string) Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.InitialFields = map[string]any{"service": service}
	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	return &zapLogger{l: l}
}

// NewNop returns a logger that discards everything, for tests.
func NewNop() Logger {
	return &zapLogger{l: zap.NewNop()}
}

func (z *zapLogger) Debug(msg string, fields ...zap.Field) { z.l.Debug(msg, fields...) }
func (z *zapLogger) Info(msg string, fields ...zap.Field)  { z.l.Info(msg, fields...) }
func (z *zapLogger) Warn(msg string, fields ...zap.Field)  { z.l.Warn(msg, fields...) }
func (z *zapLogger) Error(msg string, fields ...zap.Field) { z.l.Error(msg, fields...) }
func (z *zapLogger) With(fields ...zap.Field) Logger {
	return &zapLogger{l: z.l.With(fields...)}
}
