// Package redis хранит сессию и офлайн-очередь в Redis как JSON значения.
// Каждая запись заменяется одной командой SET, поэтому читатель никогда не
// видит частично записанное состояние.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fitsync/internal/client/domain/entities"
	"fitsync/pkg/logger"
)

const (
	keyVersion = "v1"

	ErrLoadCredential  = "failed to load credential from redis"
	ErrSaveCredential  = "failed to save credential to redis"
	ErrClearCredential = "failed to clear credential in redis"
	ErrLoadQueue       = "failed to load offline queue from redis"
	ErrSaveQueue       = "failed to save offline queue to redis"
	ErrClose           = "failed to close redis connection"
)

// Store реализует storage.CredentialStore.
type Store struct {
	client *redis.Client
	prefix string
}

// New создает хранилище с префиксом ключей prefix.
func New(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) credentialKey() string {
	return fmt.Sprintf("%s:%s:credential", s.prefix, keyVersion)
}

func (s *Store) queueKey() string {
	return fmt.Sprintf("%s:%s:offline_queue", s.prefix, keyVersion)
}

// Load возвращает сохраненную сессию или nil.
func (s *Store) Load(ctx context.Context) (*entities.Credential, error) {
	var cred entities.Credential
	found, err := s.get(ctx, s.credentialKey(), &cred)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrLoadCredential, err)
	}
	if !found {
		return nil, nil
	}
	return &cred, nil
}

func (s *Store) Save(ctx context.Context, cred entities.Credential) error {
	if err := s.set(ctx, s.credentialKey(), cred); err != nil {
		return fmt.Errorf("%s: %w", ErrSaveCredential, err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.credentialKey()).Err(); err != nil {
		logger.Log(ctx).Error(ctx, ErrClearCredential, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrClearCredential, err)
	}
	return nil
}

// Queue возвращает офлайн-очередь поверх того же клиента.
func (s *Store) Queue() *QueueStore {
	return &QueueStore{s: s}
}

// Close закрывает соединение с Redis.
func (s *Store) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("%s: %w", ErrClose, err)
	}
	return nil
}

// QueueStore реализует storage.QueueStore.
type QueueStore struct {
	s *Store
}

func (q *QueueStore) Load(ctx context.Context) ([]entities.QueuedRequest, error) {
	var items []entities.QueuedRequest
	if _, err := q.s.get(ctx, q.s.queueKey(), &items); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrLoadQueue, err)
	}
	return items, nil
}

func (q *QueueStore) Save(ctx context.Context, items []entities.QueuedRequest) error {
	if items == nil {
		items = []entities.QueuedRequest{}
	}
	if err := q.s.set(ctx, q.s.queueKey(), items); err != nil {
		return fmt.Errorf("%s: %w", ErrSaveQueue, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string, out any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		logger.Log(ctx).Error(ctx, "redis get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		logger.Log(ctx).Error(ctx, "redis set failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}
