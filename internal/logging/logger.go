// Package logging builds the shared zap logger from configuration.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kashmithnisakya/agentic-order-management/internal/config"
)

func New(cfg config.LoggerConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Encoding:          cfg.Encoding,
		DisableCaller:     cfg.DisableCaller,
		DisableStacktrace: cfg.DisableStacktrace,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		EncoderConfig:     encoderConfig(cfg.Encoding),
	}

	return zapCfg.Build()
}

func encoderConfig(encoding string) zapcore.EncoderConfig {
	if encoding == "json" {
		return zap.NewProductionEncoderConfig()
	}
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return ec
}
