// Package zaplog adapts zap's SugaredLogger to the orchestrator.Logger
// shape used across this daemon's packages.
package zaplog

import (
	"fmt"

	"go.uber.org/zap"
)

// Logger wraps a zap.SugaredLogger.
type Logger struct {
	sugar *zap.SugaredLogger
}

// New builds a Logger at the given level ("debug", "info", "warn",
// "error"). An unrecognized level falls back to "info".
func New(level string) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = "ts"

	var zl zap.AtomicLevel
	if err := zl.UnmarshalText([]byte(level)); err != nil {
		zl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.Level = zl

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("zaplog: build logger: %w", err)
	}
	return &Logger{sugar: z.Sugar()}, nil
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.sugar.Debugw(msg, args...) }
func (l *Logger) Info(msg string, args ...interface{})  { l.sugar.Infow(msg, args...) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.sugar.Warnw(msg, args...) }
func (l *Logger) Error(msg string, args ...interface{}) { l.sugar.Errorw(msg, args...) }

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error { return l.sugar.Sync() }
