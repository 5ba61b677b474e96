// Package logging builds zap loggers from configuration.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-instructform/internal/config"
)

// Config returns the zap configuration for cfg. JSON output uses the
// production encoder, console output the development one.
func Config(cfg config.LoggingConfig) (zap.Config, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		return zap.Config{}, fmt.Errorf("logging: %w", err)
	}

	var zc zap.Config
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		zc = zap.NewProductionConfig()
	case "", "console":
		zc = zap.NewDevelopmentConfig()
		zc.Development = false
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return zap.Config{}, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc, nil
}

// New builds a logger for cfg.
func New(cfg config.LoggingConfig, opts ...zap.Option) (*zap.Logger, error) {
	zc, err := Config(cfg)
	if err != nil {
		return nil, err
	}
	logger, err := zc.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("logging: build logger: %w", err)
	}
	return logger, nil
}

// Verbose raises cfg to debug when verbose is set.
func Verbose(cfg config.LoggingConfig, verbose bool) config.LoggingConfig {
	if verbose {
		cfg.Level = zapcore.DebugLevel.String()
	}
	return cfg
}
