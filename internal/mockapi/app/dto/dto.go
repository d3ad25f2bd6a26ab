// Package dto содержит структуры запросов и ответов HTTP API тестового бэкенда.
package dto

import "time"

// LoginRequest - тело запроса входа.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest - тело запроса обновления токенов. Допускается refresh токен
// либо повторная передача пароля.
type RefreshRequest struct {
	Email        string `json:"email"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Password     string `json:"password,omitempty"`
}

// SubscriptionResponse - статус подписки пользователя.
type SubscriptionResponse struct {
	Status      string     `json:"status"`
	ProductID   string     `json:"productId,omitempty"`
	TrialEndsAt *time.Time `json:"trialEndsAt,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	CheckedAt   time.Time  `json:"checkedAt"`
}

// WorkoutRequest - тело запроса создания тренировки.
type WorkoutRequest struct {
	ID              string    `json:"id,omitempty"`
	Type            string    `json:"type"`
	DurationMinutes int       `json:"durationMinutes"`
	Calories        int       `json:"calories,omitempty"`
	StartedAt       time.Time `json:"startedAt,omitempty"`
}

// ErrorResponse - тело ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}
