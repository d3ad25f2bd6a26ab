// Package memory содержит потокобезопасные репозитории тестового бэкенда в памяти процесса.
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fitsync/internal/mockapi/domain/entities"
)

// ErrUserExists - пользователь с таким email уже зарегистрирован.
var ErrUserExists = errors.New("user already exists")

// UserRepository хранит пользователей в памяти.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*entities.User
	byEmail map[string]string
}

// NewUserRepository создает пустой репозиторий пользователей.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*entities.User),
		byEmail: make(map[string]string),
	}
}

// Create сохраняет пользователя, присваивая идентификатор и время создания при их отсутствии.
func (r *UserRepository) Create(_ context.Context, user *entities.User) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, ok := r.byEmail[email]; ok {
		return nil, ErrUserExists
	}

	created := *user
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	r.byID[created.ID] = &created
	r.byEmail[email] = created.ID

	out := created
	return &out, nil
}

// FindByEmail ищет пользователя по email без учета регистра.
func (r *UserRepository) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	out := *r.byID[id]
	return &out, nil
}

// FindByID ищет пользователя по идентификатору.
func (r *UserRepository) FindByID(_ context.Context, id string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	out := *user
	return &out, nil
}
