// Command mockapi запускает локальный фитнес-бэкенд для разработки и проверки клиента.
package main

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"fitsync/internal/mockapi/adapters/memory"
	"fitsync/internal/mockapi/adapters/services"
	"fitsync/internal/mockapi/app"
	httpServer "fitsync/internal/mockapi/app/http"
	"fitsync/internal/mockapi/config"
	"fitsync/internal/mockapi/domain/entities"
	"fitsync/pkg/logger"
	"fitsync/pkg/shutdown"
)

const (
	EnvLoggerMode  = "MOCKAPI_LOGGER_MODE"
	EnvLoggerLevel = "MOCKAPI_LOGGER_LEVEL"

	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrSeedDemoUser         = "failed to seed demo user"
	ErrStartHTTPServer      = "failed to start HTTP server"
	ErrShutdown             = "shutdown finished with errors"

	LogServiceStarted      = "mock API started"
	LogServiceShutdownDone = "mock API shutdown complete"
	LogStoppingHTTP        = "stopping HTTP server"
	LogStartingHTTP        = "starting HTTP server"
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
		log = configured

		users := memory.NewUserRepository()
		tokens := services.NewJWT(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)
		authUseCase := app.NewAuthUseCase(users, memory.NewTokenRepository(), services.NewBcrypt(cfg.JWT.BCryptCost), tokens)
		authUseCase.SetRefreshEnabled(!cfg.JWT.RefreshDisabled)
		fitnessUseCase := app.NewFitnessUseCase(users, memory.NewWorkoutRepository())

		if _, err := authUseCase.SeedUser(ctx, demoUser(&cfg.Demo), cfg.Demo.Password); err != nil {
			log.Error(ctx, ErrSeedDemoUser, zap.Error(err))
			return 1
		}

		server := fiber.New(fiber.Config{
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		})
		httpServer.SetupRouter(server, authUseCase, fitnessUseCase, tokens)

		log.Info(ctx, LogServiceStarted,
			zap.String("address", cfg.HTTP.GetAddress()),
			zap.String("startup_time", time.Now().Format(time.RFC3339)))

		go func() {
			log.Info(ctx, LogStartingHTTP)
			if err := server.Listen(cfg.HTTP.GetAddress()); err != nil {
				log.Error(ctx, ErrStartHTTPServer, zap.Error(err))
			}
		}()

		if err := shutdown.Wait(ctx, cfg.Shutdown.Timeout,
			func(ctx context.Context) error {
				log.Info(ctx, LogStoppingHTTP)
				return server.ShutdownWithContext(ctx)
			},
		); err != nil {
			log.Warn(ctx, ErrShutdown, zap.Error(err))
		}

		log.Info(ctx, LogServiceShutdownDone)
		return 0
	}()

	os.Exit(code)
}

func demoUser(cfg *config.DemoConfig) entities.User {
	user := entities.User{
		Email:             cfg.Email,
		Role:              cfg.Role,
		SubscriptionState: cfg.Subscription,
		ProductID:         cfg.ProductID,
	}

	switch cfg.Subscription {
	case entities.SubscriptionTrial:
		ends := time.Now().UTC().Add(cfg.TrialPeriod)
		user.TrialEndsAt = &ends
	case entities.SubscriptionActive:
		expires := time.Now().UTC().AddDate(0, 1, 0)
		user.ExpiresAt = &expires
	}
	return user
}
