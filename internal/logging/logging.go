// Package logging builds the process-wide structured logger.
package logging

import (
	"go.uber.org/zap"
)

// New returns a zap logger with the given level ("debug", "info", ...)
// and encoding ("console" or "json").
func New(level, format string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
		cfg.Encoding = "console"
	} else {
		cfg.Encoding = "json"
	}

	parsed, err := zap.ParseAtomicLevel(level)
	if err != nil {
		parsed = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.Level = parsed

	return cfg.Build()
}

// Must returns a usable logger even when configuration is broken.
func Must(level, format string) *zap.Logger {
	logger, err := New(level, format)
	if err != nil {
		fallback, _ := zap.NewProduction()
		return fallback
	}
	return logger
}
