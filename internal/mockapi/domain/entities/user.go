// Package entities содержит доменные сущности тестового бэкенда.
package entities

import (
	"errors"
	"time"
)

// Ошибки домена пользователя.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrWorkoutNotFound = errors.New("workout not found")
	ErrInvalidWorkout  = errors.New("workout type and duration are required")
)

// Роли пользователя.
const (
	RoleFree    = "free"
	RolePremium = "premium"
)

// Состояния подписки.
const (
	SubscriptionActive  = "active"
	SubscriptionTrial   = "trial"
	SubscriptionExpired = "expired"
	SubscriptionNone    = "none"
)

// User - учетная запись пользователя.
type User struct {
	ID           string
	Email        string
	Role         string
	PasswordHash string
	// SubscriptionState - active, trial, expired или none.
	SubscriptionState string
	ProductID         string
	TrialEndsAt       *time.Time
	ExpiresAt         *time.Time
	CreatedAt         time.Time
}

// Workout - тренировка пользователя.
type Workout struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Type            string    `json:"type"`
	DurationMinutes int       `json:"durationMinutes"`
	Calories        int       `json:"calories,omitempty"`
	StartedAt       time.Time `json:"startedAt"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Validate проверяет обязательные поля тренировки.
func (w Workout) Validate() error {
	if w.Type == "" || w.DurationMinutes <= 0 {
		return ErrInvalidWorkout
	}
	return nil
}
