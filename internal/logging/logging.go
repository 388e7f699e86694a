// Package logging builds the diagnostic loggers used across the governor.
// Diagnostics are separate from the audit chain: nothing here carries
// compliance weight.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// #region constructors

// New creates the process logger. debug enables development encoding and
// debug-level output.
func New(debug bool) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Named("governor"), nil
}

// Nop returns a logger that discards everything, for tests and tooling.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// #endregion constructors
