// Package sqlite хранит сессию и офлайн-очередь в локальном файле SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"fitsync/internal/client/domain/entities"
	"fitsync/pkg/logger"
)

const (
	schemaVersion = 1

	LogSchemaApplied = "sqlite schema applied"

	ErrOpen            = "open sqlite db"
	ErrMigrate         = "apply sqlite schema"
	ErrLoadCredential  = "load credential"
	ErrSaveCredential  = "save credential"
	ErrClearCredential = "clear credential"
	ErrLoadQueue       = "load offline queue"
	ErrSaveQueue       = "save offline queue"
)

var errEmptyPath = errors.New("storage path is required")

const schema = `
CREATE TABLE IF NOT EXISTS credentials (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	payload TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS offline_queue (
	position INTEGER PRIMARY KEY,
	id TEXT NOT NULL,
	method TEXT NOT NULL,
	url TEXT NOT NULL,
	headers TEXT,
	body BLOB,
	enqueued_at INTEGER NOT NULL
);
`

// Store реализует storage.CredentialStore поверх файла SQLite.
type Store struct {
	db *sql.DB
}

// Open открывает файл и применяет схему. Версия схемы хранится в PRAGMA user_version.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%s: %w", ErrOpen, errEmptyPath)
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrOpen, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", ErrOpen, err)
	}

	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", ErrMigrate, err)
	}
	return store, nil
}

func (s *Store) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version >= schemaVersion {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	logger.Log(ctx).Info(ctx, LogSchemaApplied, zap.Int("version", schemaVersion))
	return nil
}

// Close закрывает файл базы.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load возвращает сохраненную сессию или nil.
func (s *Store) Load(ctx context.Context) (*entities.Credential, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM credentials WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrLoadCredential, err)
	}

	var cred entities.Credential
	if err := json.Unmarshal([]byte(payload), &cred); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrLoadCredential, err)
	}
	return &cred, nil
}

func (s *Store) Save(ctx context.Context, cred entities.Credential) error {
	payload, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrSaveCredential, err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO credentials (id, payload, updated_at) VALUES (1, ?, ?)
ON CONFLICT (id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
`, string(payload), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("%s: %w", ErrSaveCredential, err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return fmt.Errorf("%s: %w", ErrClearCredential, err)
	}
	return nil
}

// Queue возвращает офлайн-очередь в том же файле.
func (s *Store) Queue() *QueueStore {
	return &QueueStore{db: s.db}
}

// QueueStore реализует storage.QueueStore.
type QueueStore struct {
	db *sql.DB
}

func (q *QueueStore) Load(ctx context.Context) ([]entities.QueuedRequest, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT id, method, url, headers, body, enqueued_at
FROM offline_queue
ORDER BY position
`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrLoadQueue, err)
	}
	defer rows.Close()

	var items []entities.QueuedRequest
	for rows.Next() {
		var (
			item       entities.QueuedRequest
			headers    sql.NullString
			enqueuedAt int64
		)
		if err := rows.Scan(&item.ID, &item.Method, &item.URL, &headers, &item.Body, &enqueuedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrLoadQueue, err)
		}
		if headers.Valid && headers.String != "" {
			if err := json.Unmarshal([]byte(headers.String), &item.Header); err != nil {
				return nil, fmt.Errorf("%s: %w", ErrLoadQueue, err)
			}
		}
		item.EnqueuedAt = time.Unix(0, enqueuedAt).UTC()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrLoadQueue, err)
	}
	return items, nil
}

// Save заменяет очередь целиком в одной транзакции.
func (q *QueueStore) Save(ctx context.Context, items []entities.QueuedRequest) (err error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrSaveQueue, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM offline_queue`); err != nil {
		return fmt.Errorf("%s: %w", ErrSaveQueue, err)
	}
	for i, item := range items {
		var headers sql.NullString
		if len(item.Header) > 0 {
			data, mErr := json.Marshal(item.Header)
			if mErr != nil {
				err = mErr
				return fmt.Errorf("%s: %w", ErrSaveQueue, err)
			}
			headers = sql.NullString{String: string(data), Valid: true}
		}
		if _, err = tx.ExecContext(ctx, `
INSERT INTO offline_queue (position, id, method, url, headers, body, enqueued_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, i, item.ID, item.Method, item.URL, headers, item.Body, item.EnqueuedAt.UTC().UnixNano()); err != nil {
			return fmt.Errorf("%s: %w", ErrSaveQueue, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", ErrSaveQueue, err)
	}
	return nil
}
