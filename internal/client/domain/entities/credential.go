// Package entities содержит доменные сущности клиента API.
package entities

import "time"

// Credential - пара токенов текущей сессии. Экземпляр не изменяется после
// создания: при входе и обновлении он заменяется целиком.
type Credential struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	Email        string    `json:"email"`
	UserID       string    `json:"userId,omitempty"`
	Role         string    `json:"role,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt,omitempty"`
}

// IsZero сообщает, что сессии нет.
func (c *Credential) IsZero() bool {
	return c == nil || c.AccessToken == ""
}

// WithTokens возвращает копию с новой парой токенов.
func (c Credential) WithTokens(accessToken, refreshToken string, expiresAt time.Time) Credential {
	c.AccessToken = accessToken
	if refreshToken != "" {
		c.RefreshToken = refreshToken
	}
	c.ExpiresAt = expiresAt
	return c
}
