// Package postgres хранит сессию и офлайн-очередь в Postgres.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"fitsync/internal/client/domain/entities"
	"fitsync/pkg/logger"
)

// Константы для сообщений об ошибках.
const (
	ErrLoadCredential  = "error loading credential"
	ErrSaveCredential  = "error saving credential"
	ErrClearCredential = "error clearing credential"
	ErrLoadQueue       = "error loading offline queue"
	ErrSaveQueue       = "error saving offline queue"
)

// PgxPoolInterface - подмножество pgxpool.Pool, используемое хранилищем.
type PgxPoolInterface interface {
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store реализует storage.CredentialStore для одного устройства.
type Store struct {
	pool   PgxPoolInterface
	device string
}

// New создает хранилище. device разделяет состояние нескольких клиентов в одной базе.
func New(pool PgxPoolInterface, device string) *Store {
	return &Store{pool: pool, device: device}
}

// Load возвращает сохраненную сессию или nil.
func (s *Store) Load(ctx context.Context) (*entities.Credential, error) {
	log := logger.Log(ctx).With(zap.String("repository", "credential"), zap.String("method", "Load"))

	query := `
        SELECT payload
        FROM credentials
        WHERE device = $1
    `

	var payload []byte
	if err := s.pool.QueryRow(ctx, query, s.device).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		log.Error(ctx, ErrLoadCredential, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrLoadCredential, err)
	}

	var cred entities.Credential
	if err := json.Unmarshal(payload, &cred); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrLoadCredential, err)
	}
	return &cred, nil
}

// Save заменяет сессию устройства.
func (s *Store) Save(ctx context.Context, cred entities.Credential) error {
	log := logger.Log(ctx).With(zap.String("repository", "credential"), zap.String("method", "Save"))

	payload, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrSaveCredential, err)
	}

	query := `
        INSERT INTO credentials (device, payload, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (device) DO UPDATE
        SET payload = EXCLUDED.payload, updated_at = NOW()
    `

	if _, err := s.pool.Exec(ctx, query, s.device, payload); err != nil {
		log.Error(ctx, ErrSaveCredential, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrSaveCredential, err)
	}
	return nil
}

// Clear удаляет сессию устройства.
func (s *Store) Clear(ctx context.Context) error {
	log := logger.Log(ctx).With(zap.String("repository", "credential"), zap.String("method", "Clear"))

	query := `
        DELETE FROM credentials
        WHERE device = $1
    `

	if _, err := s.pool.Exec(ctx, query, s.device); err != nil {
		log.Error(ctx, ErrClearCredential, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrClearCredential, err)
	}
	return nil
}

// Queue возвращает офлайн-очередь того же устройства.
func (s *Store) Queue() *QueueStore {
	return &QueueStore{pool: s.pool, device: s.device}
}

// QueueStore реализует storage.QueueStore. Порядок задается колонкой position.
type QueueStore struct {
	pool   PgxPoolInterface
	device string
}

// Load возвращает очередь от головы к хвосту.
func (q *QueueStore) Load(ctx context.Context) ([]entities.QueuedRequest, error) {
	log := logger.Log(ctx).With(zap.String("repository", "offline_queue"), zap.String("method", "Load"))

	query := `
        SELECT id, method, url, headers, body, enqueued_at
        FROM offline_queue
        WHERE device = $1
        ORDER BY position
    `

	rows, err := q.pool.Query(ctx, query, q.device)
	if err != nil {
		log.Error(ctx, ErrLoadQueue, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrLoadQueue, err)
	}
	defer rows.Close()

	var items []entities.QueuedRequest
	for rows.Next() {
		var (
			item    entities.QueuedRequest
			headers []byte
		)
		if err := rows.Scan(&item.ID, &item.Method, &item.URL, &headers, &item.Body, &item.EnqueuedAt); err != nil {
			log.Error(ctx, ErrLoadQueue, zap.Error(err))
			return nil, fmt.Errorf("%s: %w", ErrLoadQueue, err)
		}
		if len(headers) > 0 {
			if err := json.Unmarshal(headers, &item.Header); err != nil {
				return nil, fmt.Errorf("%s: %w", ErrLoadQueue, err)
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		log.Error(ctx, ErrLoadQueue, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrLoadQueue, err)
	}
	return items, nil
}

// Save заменяет очередь целиком в одной транзакции.
func (q *QueueStore) Save(ctx context.Context, items []entities.QueuedRequest) (err error) {
	log := logger.Log(ctx).With(zap.String("repository", "offline_queue"), zap.String("method", "Save"))

	tx, err := q.pool.Begin(ctx)
	if err != nil {
		log.Error(ctx, ErrSaveQueue, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrSaveQueue, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM offline_queue WHERE device = $1`, q.device); err != nil {
		log.Error(ctx, ErrSaveQueue, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrSaveQueue, err)
	}

	insert := `
        INSERT INTO offline_queue (device, position, id, method, url, headers, body, enqueued_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	for i, item := range items {
		var headers []byte
		if len(item.Header) > 0 {
			if headers, err = json.Marshal(item.Header); err != nil {
				return fmt.Errorf("%s: %w", ErrSaveQueue, err)
			}
		}
		if _, err = tx.Exec(ctx, insert,
			q.device, i, item.ID, item.Method, item.URL, headers, item.Body, item.EnqueuedAt.UTC().Truncate(time.Microsecond),
		); err != nil {
			log.Error(ctx, ErrSaveQueue, zap.Error(err), zap.String("queued_id", item.ID))
			return fmt.Errorf("%s: %w", ErrSaveQueue, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		log.Error(ctx, ErrSaveQueue, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrSaveQueue, err)
	}
	return nil
}
