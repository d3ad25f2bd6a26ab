// Package redis открывает клиент Redis, общий для хранилища сессии и кэша.
package redis

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fitsync/pkg/logger"
)

const (
	LogConnected = "connected to Redis"

	ErrConnect = "failed to connect to redis"
)

const (
	defaultHost     = "localhost"
	defaultPort     = 6379
	defaultPoolSize = 10
	defaultTimeout  = 3 * time.Second
)

// Config содержит настройки подключения к Redis. Нулевые поля заменяются значениями по умолчанию.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
	Timeout  time.Duration
}

// Addr возвращает адрес host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = defaultHost
	}
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.PoolSize <= 0 {
		c.PoolSize = defaultPoolSize
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

// NewClient создает клиент Redis и проверяет соединение.
func NewClient(ctx context.Context, cfg *Config) (*redis.Client, error) {
	c := cfg.withDefaults()

	rdb := redis.NewClient(&redis.Options{
		Addr:         c.Addr(),
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		DialTimeout:  c.Timeout,
		ReadTimeout:  c.Timeout,
		WriteTimeout: c.Timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s %s: %w", ErrConnect, c.Addr(), err)
	}

	logger.Log(ctx).Info(ctx, LogConnected, zap.String("addr", c.Addr()), zap.Int("db", c.DB))
	return rdb, nil
}
