// Package services содержит доменные ошибки и типы аутентификации тестового бэкенда.
package services

import (
	"errors"
	"time"
)

// Ошибки домена аутентификации.
var (
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrInvalidRefreshToken   = errors.New("invalid refresh token")
	ErrRevokedRefreshToken   = errors.New("refresh token has been revoked")
	ErrExpiredRefreshToken   = errors.New("refresh token has expired")
	ErrTokenGenerationFailed = errors.New("failed to generate authentication tokens")
	ErrRefreshDisabled       = errors.New("token refresh is disabled")
)

// JWT ошибки.
var (
	ErrInvalidJWTToken    = errors.New("invalid JWT token")
	ErrExpiredJWTToken    = errors.New("JWT token has expired")
	ErrGeneratingJWTToken = errors.New("failed to generate JWT token")
)

// Ошибки паролей.
var (
	ErrHashingFailed   = errors.New("failed to hash password")
	ErrInvalidPassword = errors.New("invalid password")
)

// MinPasswordLength - минимальная длина пароля.
const MinPasswordLength = 8

// TokenPair - ответ эндпоинтов входа и обновления.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	UserID       string    `json:"userId"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// RefreshToken - непрозрачный refresh токен с ротацией при каждом использовании.
type RefreshToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	IsRevoked bool
}
