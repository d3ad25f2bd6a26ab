package config

import (
	"time"

	"fitsync/pkg/logger"
)

// LoggingConfig представляет конфигурацию логирования.
type LoggingConfig struct {
	Level string `yaml:"level" env:"MOCKAPI_LOGGER_LEVEL" env-default:"info"`
	Mode  string `yaml:"mode" env:"MOCKAPI_LOGGER_MODE" env-default:"development"`
}

// GetEnvironment возвращает режим работы логгера.
func (c *LoggingConfig) GetEnvironment() logger.Environment {
	if c.Mode == string(logger.Production) {
		return logger.Production
	}
	return logger.Development
}

// ShutdownConfig представляет конфигурацию для корректного завершения работы.
type ShutdownConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"MOCKAPI_SHUTDOWN_TIMEOUT" env-default:"5s"`
}
