// Package services определяет порты внешних сервисов клиента API.
package services

import (
	"context"
	"net/http"

	"fitsync/internal/client/domain/entities"
)

// Doer выполняет HTTP запрос. Реализуется *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenRefresher обменивает текущую сессию на новую пару токенов.
type TokenRefresher interface {
	Refresh(ctx context.Context, cred entities.Credential) (entities.Credential, error)
}

// Authenticator выполняет вход по email и паролю.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (entities.Credential, error)
}

// SessionListener получает уведомление о завершении сессии.
type SessionListener interface {
	OnSessionEnded(ctx context.Context, event entities.SessionEvent)
}

// SessionListenerFunc адаптирует функцию к SessionListener.
type SessionListenerFunc func(ctx context.Context, event entities.SessionEvent)

func (f SessionListenerFunc) OnSessionEnded(ctx context.Context, event entities.SessionEvent) {
	f(ctx, event)
}

// ContextProvider возвращает контекст устройства для заголовков.
type ContextProvider interface {
	DeviceContext(ctx context.Context) entities.DeviceContext
}

// CredentialSource возвращает текущую сессию или nil.
type CredentialSource interface {
	Current(ctx context.Context) *entities.Credential
}

// Replayer повторяет запрос из офлайн-очереди.
type Replayer interface {
	Replay(ctx context.Context, req entities.QueuedRequest) (*entities.Response, error)
}

// PasswordProvider возвращает сохраненный пароль для входа без refresh токена.
type PasswordProvider interface {
	Password(ctx context.Context, email string) (string, error)
}
