package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"fitsync/internal/client/domain/entities"
	"fitsync/internal/client/ports/services"
	"fitsync/pkg/logger"
)

const (
	LogLoggedIn     = "user logged in"
	LogSessionEnded = "session ended"
	LogResetFailed  = "failed to reset session state"

	ErrLogin  = "login"
	ErrLogout = "logout"
)

// CredentialManager хранит текущую сессию. Реализуется refresh.Coordinator.
type CredentialManager interface {
	Current(ctx context.Context) *entities.Credential
	Install(ctx context.Context, cred entities.Credential) error
	Clear(ctx context.Context) error
}

// Resetter сбрасывает состояние, привязанное к пользователю.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Session управляет входом и выходом пользователя и рассылает события
// о завершении сессии, в том числе при неудачном обновлении токена.
type Session struct {
	auth        services.Authenticator
	credentials CredentialManager

	mu         sync.RWMutex
	listeners  []services.SessionListener
	dependents []Resetter
}

// NewSession создает сессию.
func NewSession(auth services.Authenticator, credentials CredentialManager) *Session {
	return &Session{
		auth:        auth,
		credentials: credentials,
	}
}

// Subscribe добавляет слушателя завершения сессии.
func (s *Session) Subscribe(l services.SessionListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Attach добавляет состояние, сбрасываемое при завершении сессии.
func (s *Session) Attach(r Resetter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dependents = append(s.dependents, r)
}

// Login выполняет вход и сохраняет полученную сессию.
func (s *Session) Login(ctx context.Context, email, password string) (entities.Credential, error) {
	cred, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return entities.Credential{}, fmt.Errorf("%s: %w", ErrLogin, err)
	}
	if err := s.credentials.Install(ctx, cred); err != nil {
		return entities.Credential{}, fmt.Errorf("%s: %w", ErrLogin, err)
	}

	logger.Log(ctx).Info(ctx, LogLoggedIn, zap.String("userID", cred.UserID))
	return cred, nil
}

// Authenticated сообщает, есть ли активная сессия.
func (s *Session) Authenticated(ctx context.Context) bool {
	return s.credentials.Current(ctx) != nil
}

// Logout удаляет сессию и уведомляет слушателей.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.credentials.Clear(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrLogout, err)
	}
	s.OnSessionEnded(ctx, entities.SessionEvent{Reason: entities.SessionLoggedOut})
	return nil
}

// OnSessionEnded сбрасывает зависимое состояние и пересылает событие слушателям.
// Сессия к этому моменту уже удалена из хранилища.
func (s *Session) OnSessionEnded(ctx context.Context, event entities.SessionEvent) {
	log := logger.Log(ctx).With(zap.String("component", "session"))
	log.Info(ctx, LogSessionEnded, zap.String("reason", string(event.Reason)))

	s.mu.RLock()
	listeners := append([]services.SessionListener(nil), s.listeners...)
	dependents := append([]Resetter(nil), s.dependents...)
	s.mu.RUnlock()

	for _, r := range dependents {
		if err := r.Reset(ctx); err != nil {
			log.Warn(ctx, LogResetFailed, zap.Error(err))
		}
	}
	for _, l := range listeners {
		l.OnSessionEnded(ctx, event)
	}
}
