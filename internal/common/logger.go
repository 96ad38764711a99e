package common

import (
	"go.uber.org/zap"
)

// NewLogger creates a new zap logger with the given name.
// Production env uses the JSON encoder, anything else the console encoder.
func NewLogger(name string, cfg *Config) (*zap.Logger, error) {
	var config zap.Config
	if cfg != nil && cfg.App.ENV == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	// LITTUP_LOG_LEVEL이 설정되어 있으면 적용
	if cfg != nil && cfg.App.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.App.LogLevel)
		if err == nil {
			config.Level = level
		}
	}

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}

	if name != "" {
		return logger.Named(name), nil
	}

	return logger, nil
}

// MustNewLogger creates a new logger and panics if it fails.
func MustNewLogger(name string, cfg *Config) *zap.Logger {
	logger, err := NewLogger(name, cfg)
	if err != nil {
		panic(err)
	}
	return logger
}
