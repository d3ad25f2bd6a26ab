package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"fitsync/internal/mockapi/domain/services"
	svc "fitsync/internal/mockapi/ports/services"
	"fitsync/pkg/logger"
	"fitsync/pkg/token"
)

// Константы для логирования.
const (
	LogAuthMiddleware = "auth middleware"

	ErrorNoAuthHeader = "no authorization header provided"
	ErrorInvalidToken = "invalid access token"
	ErrorExpiredToken = "access token has expired"

	localsClaims = "claims"
	bearerPrefix = "Bearer "
)

// NewAuthMiddleware проверяет access токен из заголовка Authorization. Принимается
// как значение с префиксом Bearer, так и голый токен.
func NewAuthMiddleware(tokens svc.TokenService) fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestCtx := ctx.Context()
		log := logger.Log(requestCtx).With(zap.String("middleware", "auth"))
		log.Debug(requestCtx, LogAuthMiddleware)

		raw := strings.TrimSpace(strings.TrimPrefix(ctx.Get(fiber.HeaderAuthorization), bearerPrefix))
		if raw == "" {
			log.Debug(requestCtx, ErrorNoAuthHeader)
			return unauthorized(ctx, ErrorNoAuthHeader)
		}

		claims, err := tokens.ValidateAccessToken(requestCtx, raw)
		if err != nil {
			if errors.Is(err, services.ErrExpiredJWTToken) {
				return unauthorized(ctx, ErrorExpiredToken)
			}
			return unauthorized(ctx, ErrorInvalidToken)
		}

		ctx.Locals(localsClaims, claims)
		return ctx.Next()
	}
}

// ClaimsFromContext возвращает claims, установленные NewAuthMiddleware.
func ClaimsFromContext(ctx fiber.Ctx) (*token.Claims, bool) {
	claims, ok := ctx.Locals(localsClaims).(*token.Claims)
	return claims, ok && claims != nil
}

func unauthorized(ctx fiber.Ctx, message string) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": message})
}
