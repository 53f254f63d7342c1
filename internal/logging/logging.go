// Package logging configures the zap logger used across dotledger.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvLogLevel overrides the configured log level when set.
const EnvLogLevel = "DOTLEDGER_LOG_LEVEL"

// New builds a sugared logger at the given level ("debug", "info",
// "warn", "error"). The DOTLEDGER_LOG_LEVEL environment variable takes
// precedence over the argument. Unknown levels fall back to info.
func New(level string) *zap.SugaredLogger {
	if env := os.Getenv(EnvLogLevel); env != "" {
		level = env
	}

	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.Level = zap.NewAtomicLevelAt(parseLevel(level))

	logger, err := config.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

// Nop returns a logger that discards all output.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
