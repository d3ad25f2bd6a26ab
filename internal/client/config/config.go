// Package config содержит конфигурацию клиентского агента fitsync.
package config

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	pkgconfig "fitsync/pkg/config"
	"fitsync/pkg/logger"
)

const (
	ServiceName = "fitsync"

	LogConfigLoaded     = "client configuration loaded"
	ErrFailedLoadConfig = "failed to load client configuration"
)

// Config - полная конфигурация агента.
type Config struct {
	API          APIConfig          `yaml:"api"`
	Device       DeviceConfig       `yaml:"device"`
	Logging      LoggingConfig      `yaml:"logging"`
	Storage      StorageConfig      `yaml:"storage"`
	Redis        RedisConfig        `yaml:"redis"`
	Postgres     PostgresConfig     `yaml:"postgres"`
	SQLite       SQLiteConfig       `yaml:"sqlite"`
	Queue        QueueConfig        `yaml:"queue"`
	Connectivity ConnectivityConfig `yaml:"connectivity"`
	Subscription SubscriptionConfig `yaml:"subscription"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Shutdown     ShutdownConfig     `yaml:"shutdown"`
}

// Load загружает конфигурацию из deploy/fitsync.env или переменных окружения.
func Load(ctx context.Context) (*Config, error) {
	cfg, err := pkgconfig.Load[Config](ctx, ServiceName, filepath.Join("deploy", "fitsync.env"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrFailedLoadConfig, err)
	}

	logger.Log(ctx).Info(ctx, LogConfigLoaded,
		zap.String("api_base_url", cfg.API.BaseURL),
		zap.Duration("request_timeout", cfg.API.RequestTimeout),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("drain_schedule", cfg.Queue.DrainSchedule),
		zap.Duration("probe_interval", cfg.Connectivity.ProbeInterval))

	return cfg, nil
}
