// Package storage определяет порты долговременного хранения состояния клиента.
package storage

import (
	"context"

	"fitsync/internal/client/domain/entities"
)

// CredentialStore хранит текущую пару токенов.
// Load возвращает nil без ошибки, если сессии нет.
type CredentialStore interface {
	Load(ctx context.Context) (*entities.Credential, error)
	Save(ctx context.Context, cred entities.Credential) error
	Clear(ctx context.Context) error
}

// QueueStore хранит офлайн-очередь. Save атомарно заменяет всю очередь.
type QueueStore interface {
	Load(ctx context.Context) ([]entities.QueuedRequest, error)
	Save(ctx context.Context, queue []entities.QueuedRequest) error
}

// Closer освобождает ресурсы хранилища.
type Closer interface {
	Close() error
}
