package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"fitsync/internal/mockapi/domain/services"
	svc "fitsync/internal/mockapi/ports/services"
)

// maxPasswordBytes - bcrypt учитывает только первые 72 байта пароля.
const maxPasswordBytes = 72

const (
	errCtxPasswordLength = "password length"
	errCtxCompareHash    = "compare password hash"
)

// Passwords хэширует пароли bcrypt.
type Passwords struct {
	cost int
}

// NewBcrypt создает сервис паролей. Стоимость вне допустимого диапазона bcrypt
// заменяется стандартной.
func NewBcrypt(cost int) svc.PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Passwords{cost: cost}
}

// Hash хэширует пароль длиной от MinPasswordLength до 72 байт.
func (p *Passwords) Hash(_ context.Context, password string) (string, error) {
	if n := len(password); n < services.MinPasswordLength || n > maxPasswordBytes {
		return "", fmt.Errorf("%s %d: %w", errCtxPasswordLength, n, services.ErrInvalidPassword)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", errors.Join(services.ErrHashingFailed, err)
	}
	return string(hashed), nil
}

// Verify сравнивает пароль с хэшем. Несовпадение - не ошибка.
func (p *Passwords) Verify(_ context.Context, password, hash string) (bool, error) {
	if password == "" || hash == "" {
		return false, services.ErrInvalidPassword
	}

	switch err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%s: %w", errCtxCompareHash, err)
	}
}
