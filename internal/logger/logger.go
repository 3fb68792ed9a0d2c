package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "sales-dwh-pipeline"

// New creates a logger for the given environment. Every entry carries the
// service name so pipeline logs stay attributable when shipped alongside
// other services' output.
func New(environment string) (*zap.Logger, error) {
	var config zap.Config

	if environment == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config.EncoderConfig.CallerKey = "caller"
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	return config.Build(
		zap.AddCaller(),
		zap.Fields(zap.String("service", serviceName)),
	)
}
