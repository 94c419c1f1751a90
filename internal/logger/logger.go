// Package logger wraps zap with the process-wide logger setup.
package logger

import (
	"go.uber.org/zap"
)

// Logger holds the configured zap logger.
type Logger struct {
	Log *zap.Logger
}

// New returns a Logger backed by a no-op zap logger until Init is called.
func New() *Logger {
	return &Logger{Log: zap.NewNop()}
}

// Init builds a production zap logger with the given level
// ("debug", "info", "warn", "error"; case-insensitive).
func (l *Logger) Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl

	zl, err := cfg.Build()
	if err != nil {
		return err
	}

	l.Log = zl
	return nil
}
