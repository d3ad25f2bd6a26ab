// Package middleware содержит промежуточное ПО HTTP сервера тестового бэкенда.
package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"fitsync/pkg/logger"
)

// HeaderRequestID - заголовок с идентификатором запроса.
const HeaderRequestID = "X-Request-ID"

// NewLoggerMiddleware логирует запросы вместе с контекстными заголовками клиента.
func NewLoggerMiddleware() fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestCtx := ctx.Context()
		start := time.Now()

		requestID := ctx.Get(HeaderRequestID)
		if requestID == "" {
			requestID = logger.GenerateRequestID()
		}
		ctx.Set(HeaderRequestID, requestID)

		log := logger.Log(requestCtx).With(
			zap.String(logger.RequestID, requestID),
			zap.String("path", ctx.Path()),
			zap.String("method", ctx.Method()),
			zap.String("ip", ctx.IP()),
			zap.String("appVersion", ctx.Get("X-App-Version")),
			zap.String("networkType", ctx.Get("X-Network-Type")),
		)

		log.Debug(requestCtx, "Request started")

		err := ctx.Next()

		fields := []zap.Field{
			zap.Int("status", ctx.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		}

		if err != nil {
			log.Error(requestCtx, "Request failed", append(fields, zap.Error(err))...)
			return fmt.Errorf("request processing error: %w", err)
		}

		log.Info(requestCtx, "Request completed", fields...)
		return nil
	}
}
