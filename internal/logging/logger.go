// Package logging owns the process-wide zap logger.
//
// The logger always writes to stderr: in stdio mode stdout carries the MCP
// protocol and must not receive anything else.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop()

// Init builds the global logger. Mode "release" selects the JSON production
// encoder; anything else selects the console encoder with coloured levels.
// Level is one of debug, info, warn, error ("" means info).
func Init(mode, level string) error {
	var config zap.Config
	if mode == "release" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if level == "" {
		level = "info"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	built, err := config.Build()
	if err != nil {
		return err
	}
	logger = built
	return nil
}

// L returns the global logger. Before Init it is a no-op logger.
func L() *zap.Logger { return logger }

// Set replaces the global logger, typically with an observer in tests.
// A nil logger resets to no-op.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// Sync flushes buffered log entries.
func Sync() {
	_ = logger.Sync()
}
