package utils

import (
	"log"

	"clinicore/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Global logger instance. Services derive named children from it,
// e.g. GetLogger().Named("scheduler").
var Logger *zap.Logger

// InitializeLogger builds the process-wide logger: JSON at the configured
// level in production, colored console output everywhere else.
func InitializeLogger() {
	var cfg zap.Config

	if IsProduction() {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(config.AppConfig.LogLevel))

	var err error
	Logger, err = cfg.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	Logger = Logger.Named("clinicore")
}

// parseLevel maps the LOG_LEVEL config value onto a zap level, falling
// back to info for anything unrecognized.
func parseLevel(s string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// GetLogger retrieves the global logger
func GetLogger() *zap.Logger {
	if Logger == nil {
		InitializeLogger()
	}
	return Logger
}
