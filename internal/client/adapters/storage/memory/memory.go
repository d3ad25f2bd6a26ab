// Package memory - хранилище сессии и очереди в памяти процесса.
package memory

import (
	"context"
	"slices"
	"sync"

	"fitsync/internal/client/domain/entities"
)

// Store реализует storage.CredentialStore и storage.QueueStore.
type Store struct {
	mu    sync.RWMutex
	cred  *entities.Credential
	queue []entities.QueuedRequest
}

// New создает пустое хранилище.
func New() *Store {
	return &Store{}
}

func (s *Store) Load(context.Context) (*entities.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return nil, nil
	}
	cred := *s.cred
	return &cred, nil
}

func (s *Store) Save(_ context.Context, cred entities.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = &cred
	return nil
}

func (s *Store) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	return nil
}

// Queue возвращает представление хранилища как QueueStore.
func (s *Store) Queue() *QueueStore {
	return &QueueStore{s: s}
}

func (s *Store) Close() error { return nil }

// QueueStore - офлайн-очередь поверх Store.
type QueueStore struct {
	s *Store
}

func (q *QueueStore) Load(context.Context) ([]entities.QueuedRequest, error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()
	return slices.Clone(q.s.queue), nil
}

func (q *QueueStore) Save(_ context.Context, queue []entities.QueuedRequest) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	q.s.queue = slices.Clone(queue)
	return nil
}
