// Package services содержит доменные ошибки и правила клиента API.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNoResponse - запрос не получил ответа: нет сети, таймаут, отказ соединения.
	ErrNoResponse = errors.New("no response from server")
	// ErrOffline - устройство офлайн, запрос не может быть выполнен сейчас.
	ErrOffline = errors.New("device is offline")
	// ErrRequestQueued - запрос сохранен в офлайн-очередь и будет повторен позже.
	ErrRequestQueued = fmt.Errorf("request queued for replay: %w", ErrOffline)
	// ErrUnauthorized - сервер отклонил запрос даже после обновления токена.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoCredential - нет активной сессии.
	ErrNoCredential = errors.New("no active credential")
	// ErrSessionExpired - обновление токена не удалось, сессия завершена.
	ErrSessionExpired = errors.New("session expired")
	// ErrRefreshRejected - сервер отклонил запрос на обновление токена.
	ErrRefreshRejected = errors.New("refresh rejected by server")
	// ErrDrainInProgress - очередь уже обрабатывается другим вызовом.
	ErrDrainInProgress = errors.New("offline queue drain already in progress")
)

// SessionExpiredMessage показывается пользователю при принудительном выходе.
const SessionExpiredMessage = "Your session has expired. Please sign in again."

// ResponseError - сервер ответил кодом ошибки (кроме обработанного 401).
type ResponseError struct {
	StatusCode int
	Method     string
	URL        string
	Body       []byte
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s %s: server responded with status %d", e.Method, e.URL, e.StatusCode)
}

// IsNoResponse сообщает, что ошибка означает отсутствие ответа сервера.
// Завершение сессии не считается отсутствием ответа, даже если обновление
// токена не получило ответа.
func IsNoResponse(err error) bool {
	return errors.Is(err, ErrNoResponse) && !errors.Is(err, ErrSessionExpired)
}
