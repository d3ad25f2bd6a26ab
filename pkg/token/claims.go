// Package token описывает claims access токена, общие для сервера и клиента.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const ErrParseToken = "error parsing token"

// Claims используется для адаптации между доменной моделью и библиотекой JWT.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// NewClaims создает claims с временем выпуска now и сроком жизни ttl.
func NewClaims(userID, email, role string, now time.Time, ttl time.Duration) Claims {
	return Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// Expiry возвращает срок действия или нулевое время.
func (c Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// DecodeUnverified читает claims без проверки подписи. Клиент не знает ключ
// сервера и использует claims только для заголовков и срока действия.
func DecodeUnverified(tokenString string) (Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, &claims); err != nil {
		return Claims{}, fmt.Errorf("%s: %w", ErrParseToken, err)
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	return claims, nil
}
