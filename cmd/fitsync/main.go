// Command fitsync запускает клиентского агента: сессию API, офлайн-очередь с
// триггерами разбора, проверку подписки и эндпоинт метрик.
package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"fitsync/internal/client/config"
	"fitsync/pkg/logger"
)

const (
	EnvLoggerMode  = "FITSYNC_LOGGER_MODE"
	EnvLoggerLevel = "FITSYNC_LOGGER_LEVEL"

	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrRunAgent             = "agent stopped with error"

	LogServiceStarted      = "fitsync agent started"
	LogServiceShutdownDone = "fitsync agent shutdown complete"
)

func main() {
	log, err := logger.Bootstrap(EnvLoggerMode, EnvLoggerLevel)
	if err != nil {
		panic(err)
	}

	ctx := logger.NewRequestIDContext(context.Background(), "")

	code := func() int {
		defer func() { logger.Log(ctx).SyncTo(os.Stderr) }()

		cfg, err := config.Load(ctx)
		if err != nil {
			log.Error(ctx, ErrLoadConfig, zap.Error(err))
			return 1
		}

		configured, err := logger.NewLogger(cfg.Logging.GetEnvironment(), cfg.Logging.Level)
		if err != nil {
			log.Error(ctx, ErrInitLoggerWithConfig, zap.Error(err))
			return 1
		}
		logger.SetGlobalLogger(configured)

		configured.Info(ctx, LogServiceStarted,
			zap.String("environment", string(cfg.Logging.GetEnvironment())),
			zap.String("log_level", cfg.Logging.Level),
			zap.String("startup_time", time.Now().Format(time.RFC3339)))

		if err := run(ctx, cfg); err != nil {
			configured.Error(ctx, ErrRunAgent, zap.Error(err))
			return 1
		}

		configured.Info(ctx, LogServiceShutdownDone)
		return 0
	}()

	os.Exit(code)
}
