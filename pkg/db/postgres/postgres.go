// Package postgres предоставляет пул соединений Postgres и применение миграций.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"fitsync/pkg/logger"
)

const (
	LogConnecting = "connecting to Postgres"
	LogConnected  = "connected to Postgres"
	LogClosing    = "closing Postgres pool"

	ErrParseConfig  = "failed to parse connection config"
	ErrCreatePool   = "failed to create connection pool"
	ErrPingDatabase = "failed to ping database"
)

const (
	defaultMaxConns          = 4
	defaultPingTimeout       = 5 * time.Second
	defaultHealthCheckPeriod = 30 * time.Second
)

type options struct {
	minConns    int32
	maxConns    int32
	pingTimeout time.Duration
}

// Option настраивает пул.
type Option func(*options)

// WithPoolSize задает границы пула. Минимум больше максимума приводится к максимуму.
func WithPoolSize(minConns, maxConns int) Option {
	return func(o *options) {
		if maxConns > 0 {
			o.maxConns = int32(maxConns)
		}
		if minConns >= 0 {
			o.minConns = min(int32(minConns), o.maxConns)
		}
	}
}

// WithPingTimeout ограничивает проверку соединения при открытии.
func WithPingTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pingTimeout = d
		}
	}
}

// Database - пул соединений Postgres.
type Database struct {
	pool *pgxpool.Pool
}

// New открывает пул по dsn и проверяет соединение.
func New(ctx context.Context, dsn string, opts ...Option) (*Database, error) {
	o := options{maxConns: defaultMaxConns, pingTimeout: defaultPingTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Log(ctx).Error(ctx, ErrParseConfig, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrParseConfig, err)
	}
	poolCfg.MinConns = o.minConns
	poolCfg.MaxConns = o.maxConns
	poolCfg.HealthCheckPeriod = defaultHealthCheckPeriod

	log := logger.Log(ctx).With(
		zap.String("host", poolCfg.ConnConfig.Host),
		zap.String("database", poolCfg.ConnConfig.Database),
		zap.Int32("max_conns", o.maxConns),
	)
	log.Info(ctx, LogConnecting)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error(ctx, ErrCreatePool, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrCreatePool, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, o.pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		log.Error(ctx, ErrPingDatabase, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrPingDatabase, err)
	}

	log.Info(ctx, LogConnected)
	return &Database{pool: pool}, nil
}

// Pool возвращает пул для адаптеров хранилища.
func (db *Database) Pool() *pgxpool.Pool {
	return db.pool
}

// Close закрывает пул.
func (db *Database) Close(ctx context.Context) {
	logger.Log(ctx).Info(ctx, LogClosing)
	db.pool.Close()
}

// Ping проверяет доступность базы данных.
func (db *Database) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}
