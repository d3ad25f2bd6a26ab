// Package cache определяет интерфейс кэша клиента.
package cache

import (
	"context"
	"time"
)

// Cache - строковый кэш с TTL. Get возвращает пустую строку для отсутствующего ключа.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)

	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	Delete(ctx context.Context, keys ...string) error

	Close() error
}
