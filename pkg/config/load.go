// Package config загружает конфигурацию сервисов из .env файла или переменных окружения.
package config

import (
	"context"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"fitsync/pkg/logger"
)

const (
	msgLoadingConfiguration    = "loading configuration"
	msgConfigurationLoaded     = "configuration loaded successfully"
	msgFailedLoadConfiguration = "failed to load configuration"

	errFailedLoadConfiguration = "failed to load configuration"

	attrService = "service"
	attrPath    = "path"
)

// Load читает конфигурацию типа T. Если envPath указывает на существующий файл,
// значения берутся из него (с приоритетом переменных окружения), иначе только из окружения.
func Load[T any](ctx context.Context, serviceName, envPath string) (*T, error) {
	log := logger.Log(ctx).With(zap.String(attrService, serviceName))

	var cfg T
	var err error

	if envPath != "" && fileExists(envPath) {
		log.Info(ctx, msgLoadingConfiguration, zap.String(attrPath, envPath))
		err = cleanenv.ReadConfig(envPath, &cfg)
	} else {
		log.Info(ctx, msgLoadingConfiguration)
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		log.Error(ctx, msgFailedLoadConfiguration, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errFailedLoadConfiguration, err)
	}

	log.Info(ctx, msgConfigurationLoaded)
	return &cfg, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
