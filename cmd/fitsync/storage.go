package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fitsync/internal/client/adapters/cache"
	"fitsync/internal/client/adapters/storage/memory"
	pgstore "fitsync/internal/client/adapters/storage/postgres"
	redisstore "fitsync/internal/client/adapters/storage/redis"
	"fitsync/internal/client/adapters/storage/sqlite"
	"fitsync/internal/client/config"
	portcache "fitsync/internal/client/ports/cache"
	"fitsync/internal/client/ports/storage"
	"fitsync/pkg/db/postgres"
	dbredis "fitsync/pkg/db/redis"
	"fitsync/pkg/logger"
)

const (
	LogOpeningStorage = "opening state storage"
	LogClosingStorage = "closing state storage"

	ErrUnknownStorageDriver = "unknown storage driver"
	ErrOpenStorage          = "failed to open storage"
	ErrMigrateStorage       = "failed to migrate storage"
)

// backend - выбранное хранилище сессии, офлайн-очереди и кэша. Кэш делит
// соединение с хранилищем, поэтому закрывается вместе с ним.
type backend struct {
	credentials storage.CredentialStore
	queue       storage.QueueStore
	cache       portcache.Cache
	close       func(context.Context) error
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	log := logger.Log(ctx).With(zap.String("driver", cfg.Storage.Driver))
	log.Info(ctx, LogOpeningStorage)

	switch cfg.Storage.Driver {
	case config.StorageMemory:
		store := memory.New()
		return &backend{
			credentials: store,
			queue:       store.Queue(),
			cache:       cache.NewMemoryCache(),
			close:       func(context.Context) error { return store.Close() },
		}, nil

	case config.StorageSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrOpenStorage, err)
		}
		return &backend{
			credentials: store,
			queue:       store.Queue(),
			cache:       cache.NewMemoryCache(),
			close:       func(context.Context) error { return store.Close() },
		}, nil

	case config.StorageRedis:
		client, err := dbredis.NewClient(ctx, cfg.Redis.Connection())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrOpenStorage, err)
		}
		store := redisstore.New(client, cfg.Redis.KeyPrefix)
		redisCache := cache.NewRedisCache(client, cfg.Redis.KeyPrefix, cfg.Redis.DefaultTTL)
		return &backend{
			credentials: store,
			queue:       store.Queue(),
			cache:       redisCache,
			close:       func(context.Context) error { return store.Close() },
		}, nil

	case config.StoragePostgres:
		if _, err := postgres.MigrateDSN(ctx, cfg.Postgres.DSN(), cfg.Postgres.MigrationsPath); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMigrateStorage, err)
		}
		db, err := postgres.New(ctx, cfg.Postgres.DSN(), postgres.WithPoolSize(cfg.Postgres.MinConn, cfg.Postgres.MaxConn))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrOpenStorage, err)
		}
		store := pgstore.New(db.Pool(), cfg.Postgres.Device)
		return &backend{
			credentials: store,
			queue:       store.Queue(),
			cache:       cache.NewMemoryCache(),
			close: func(ctx context.Context) error {
				db.Close(ctx)
				return nil
			},
		}, nil
	}

	return nil, fmt.Errorf("%s: %q", ErrUnknownStorageDriver, cfg.Storage.Driver)
}

func (b *backend) shutdownHook(ctx context.Context) error {
	logger.Log(ctx).Info(ctx, LogClosingStorage)

	closeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return b.close(closeCtx)
}
