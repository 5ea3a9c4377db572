package dbg

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger constructors for the copier daemon. One logger per process,
// shared by session, engine and journal.

func NewDevLogger() *zap.Logger {
	return build(zap.NewDevelopmentConfig())
}

func NewProdLogger() *zap.Logger {
	return build(zap.NewProductionConfig())
}

func build(cfg zap.Config) *zap.Logger {
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableCaller = true

	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
