// Package config содержит конфигурацию тестового бэкенда.
package config

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	pkgconfig "fitsync/pkg/config"
	"fitsync/pkg/logger"
)

// Константы ошибок и сообщений для конфигурации.
const (
	ServiceName = "mockapi"

	LogConfigLoaded     = "mock API configuration loaded"
	ErrFailedLoadConfig = "failed to load mock API configuration"
)

// Config представляет полную конфигурацию тестового бэкенда.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	JWT      JWTConfig      `yaml:"jwt"`
	Demo     DemoConfig     `yaml:"demo"`
	Logging  LoggingConfig  `yaml:"logging"`
	Shutdown ShutdownConfig `yaml:"shutdown"`
}

// Load загружает конфигурацию из deploy/mockapi.env или переменных окружения.
func Load(ctx context.Context) (*Config, error) {
	cfg, err := pkgconfig.Load[Config](ctx, ServiceName, filepath.Join("deploy", "mockapi.env"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrFailedLoadConfig, err)
	}

	logger.Log(ctx).Info(ctx, LogConfigLoaded,
		zap.String("http_address", cfg.HTTP.GetAddress()),
		zap.Duration("access_token_ttl", cfg.JWT.AccessTokenTTL),
		zap.Duration("refresh_token_ttl", cfg.JWT.RefreshTokenTTL),
		zap.Bool("refresh_disabled", cfg.JWT.RefreshDisabled),
		zap.String("demo_email", cfg.Demo.Email),
		zap.String("log_level", cfg.Logging.Level))

	return cfg, nil
}
