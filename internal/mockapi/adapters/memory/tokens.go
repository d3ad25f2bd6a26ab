package memory

import (
	"context"
	"sync"

	"fitsync/internal/mockapi/domain/services"
)

// TokenRepository хранит refresh токены в памяти.
type TokenRepository struct {
	mu     sync.Mutex
	tokens map[string]services.RefreshToken
}

// NewTokenRepository создает пустой репозиторий токенов.
func NewTokenRepository() *TokenRepository {
	return &TokenRepository{tokens: make(map[string]services.RefreshToken)}
}

// Store сохраняет refresh токен.
func (r *TokenRepository) Store(_ context.Context, token services.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[token.Token] = token
	return nil
}

// Find возвращает refresh токен по значению.
func (r *TokenRepository) Find(_ context.Context, token string) (*services.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tokens[token]
	if !ok {
		return nil, services.ErrInvalidRefreshToken
	}
	return &stored, nil
}

// Revoke помечает токен отозванным.
func (r *TokenRepository) Revoke(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tokens[token]
	if !ok {
		return services.ErrInvalidRefreshToken
	}
	stored.IsRevoked = true
	r.tokens[token] = stored
	return nil
}
