// Package cache содержит реализации кэша клиента: Redis и in-memory.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fitsync/internal/client/ports/cache"
	"fitsync/pkg/logger"
)

const (
	ErrorFailedToGet    = "redis cache get"
	ErrorFailedToSet    = "redis cache set"
	ErrorFailedToDelete = "redis cache delete"

	LogCacheError = "redis cache error"
)

var _ cache.Cache = (*RedisCache)(nil)

// RedisCache - кэш в Redis под пространством ключей "<prefix>:cache:". Соединение
// принадлежит вызывающему и не закрывается в Close.
type RedisCache struct {
	client     redis.UniversalClient
	namespace  string
	defaultTTL time.Duration
}

// NewRedisCache создает RedisCache поверх готового клиента. Нулевой TTL в Set
// заменяется на defaultTTL; нулевой defaultTTL означает хранение без срока.
func NewRedisCache(client redis.UniversalClient, prefix string, defaultTTL time.Duration) *RedisCache {
	namespace := "cache:"
	if prefix != "" {
		namespace = prefix + ":" + namespace
	}
	return &RedisCache{client: client, namespace: namespace, defaultTTL: defaultTTL}
}

// Get возвращает значение или пустую строку, если ключа нет.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, c.namespace+key).Result()
	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, redis.Nil):
		return "", nil
	default:
		return "", c.fail(ctx, ErrorFailedToGet, err, key)
	}
}

// Set сохраняет значение на ttl.
func (c *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.client.Set(ctx, c.namespace+key, value, ttl).Err(); err != nil {
		return c.fail(ctx, ErrorFailedToSet, err, key)
	}
	return nil
}

// Delete удаляет ключи одним запросом DEL.
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.namespace + k
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return c.fail(ctx, ErrorFailedToDelete, err, keys...)
	}
	return nil
}

// Close ничего не делает: соединение закрывает его владелец.
func (c *RedisCache) Close() error { return nil }

func (c *RedisCache) fail(ctx context.Context, op string, err error, keys ...string) error {
	logger.Log(ctx).Warn(ctx, LogCacheError,
		zap.String("op", op),
		zap.Strings("keys", keys),
		zap.Error(err))
	return fmt.Errorf("%s %v: %w", op, keys, err)
}
