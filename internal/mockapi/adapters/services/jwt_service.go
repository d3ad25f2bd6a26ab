// Package services реализует выпуск токенов и хэширование паролей.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fitsync/internal/mockapi/domain/services"
	svc "fitsync/internal/mockapi/ports/services"
	"fitsync/pkg/logger"
	"fitsync/pkg/token"
)

// Константы для работы с JWT.
const (
	methodGenerateAccessToken  = "GenerateAccessToken"
	methodGenerateRefreshToken = "GenerateRefreshToken"
	methodValidateAccessToken  = "ValidateAccessToken"
	msgTokenGenerated          = "token generated successfully"
	msgTokenValidated          = "token validated successfully"
	msgInvalidToken            = "invalid token"
	msgTokenExpired            = "token has expired"
	//nolint:gosec
	errSigningToken       = "error signing token"
	errCtxGeneratingToken = "generating token"
	errCtxValidatingToken = "validating token"
)

// ErrInvalidAlgorithm - токен подписан не HMAC алгоритмом.
var ErrInvalidAlgorithm = errors.New("invalid signing algorithm")

// ServiceJWT реализует svc.TokenService.
type ServiceJWT struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWT создает сервис токенов.
func NewJWT(secretKey string, accessTokenTTL, refreshTokenTTL time.Duration) svc.TokenService {
	return &ServiceJWT{
		secret:     []byte(secretKey),
		accessTTL:  accessTokenTTL,
		refreshTTL: refreshTokenTTL,
		now:        time.Now,
	}
}

// GenerateAccessToken выпускает JWT (HS256) с идентификатором, email и ролью.
func (s *ServiceJWT) GenerateAccessToken(ctx context.Context, userID, email, role string) (string, time.Time, error) {
	log := logger.Log(ctx).With(
		zap.String("method", methodGenerateAccessToken),
		zap.String("userID", userID),
	)

	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("%s: %w: empty secret key", errCtxGeneratingToken, services.ErrGeneratingJWTToken)
	}

	claims := token.NewClaims(userID, email, role, s.now(), s.accessTTL)
	// jti делает токены, выпущенные в одну секунду, различимыми.
	claims.ID = uuid.NewString()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		log.Error(ctx, errSigningToken, zap.Error(err))
		return "", time.Time{}, fmt.Errorf("%s: %w: %w", errCtxGeneratingToken, services.ErrGeneratingJWTToken, err)
	}

	log.Debug(ctx, msgTokenGenerated, zap.Time("expiresAt", claims.Expiry()))
	return signed, claims.Expiry(), nil
}

// GenerateRefreshToken выпускает непрозрачный refresh токен.
func (s *ServiceJWT) GenerateRefreshToken(ctx context.Context) (string, time.Time, error) {
	logger.Log(ctx).Debug(ctx, msgTokenGenerated, zap.String("method", methodGenerateRefreshToken))
	return uuid.NewString(), s.now().Add(s.refreshTTL), nil
}

// ValidateAccessToken проверяет подпись и срок действия токена.
func (s *ServiceJWT) ValidateAccessToken(ctx context.Context, tokenString string) (*token.Claims, error) {
	log := logger.Log(ctx).With(zap.String("method", methodValidateAccessToken))

	var claims token.Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAlgorithm, t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			log.Debug(ctx, msgTokenExpired)
			return nil, fmt.Errorf("%s: %w", errCtxValidatingToken, services.ErrExpiredJWTToken)
		}
		log.Debug(ctx, msgInvalidToken, zap.Error(err))
		return nil, fmt.Errorf("%s: %w: %w", errCtxValidatingToken, services.ErrInvalidJWTToken, err)
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}

	log.Debug(ctx, msgTokenValidated, zap.String("userID", claims.UserID))
	return &claims, nil
}
