// Package services определяет интерфейсы сервисов тестового бэкенда.
package services

import (
	"context"
	"time"

	"fitsync/pkg/token"
)

// TokenService выпускает и проверяет access токены.
type TokenService interface {
	GenerateAccessToken(ctx context.Context, userID, email, role string) (string, time.Time, error)
	GenerateRefreshToken(ctx context.Context) (string, time.Time, error)
	ValidateAccessToken(ctx context.Context, tokenString string) (*token.Claims, error)
}

// PasswordService хэширует и проверяет пароли.
type PasswordService interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) (bool, error)
}
