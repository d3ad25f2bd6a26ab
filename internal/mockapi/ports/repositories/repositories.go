// Package repositories определяет интерфейсы хранилищ тестового бэкенда.
package repositories

import (
	"context"

	"fitsync/internal/mockapi/domain/entities"
	"fitsync/internal/mockapi/domain/services"
)

// UserRepository - хранилище пользователей.
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	FindByID(ctx context.Context, id string) (*entities.User, error)
}

// TokenRepository - хранилище refresh токенов.
type TokenRepository interface {
	Store(ctx context.Context, token services.RefreshToken) error
	Find(ctx context.Context, token string) (*services.RefreshToken, error)
	Revoke(ctx context.Context, token string) error
}

// WorkoutRepository - хранилище тренировок.
type WorkoutRepository interface {
	Create(ctx context.Context, workout entities.Workout) (entities.Workout, error)
	ListByUser(ctx context.Context, userID string) ([]entities.Workout, error)
	Delete(ctx context.Context, userID, id string) error
}
