// Package handlers содержит HTTP обработчики тестового бэкенда.
package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"fitsync/internal/mockapi/app/dto"
	"fitsync/internal/mockapi/domain/services"
	svc "fitsync/internal/mockapi/ports/services"
	"fitsync/pkg/logger"
)

// Константы для логирования.
const (
	LogHandlerLogin   = "auth handler: login"
	LogHandlerRefresh = "auth handler: refresh tokens" // #nosec G101 - not a credential

	ErrorInvalidRequest       = "invalid request"
	ErrorFailedToServeRequest = "failed to serve request"
	ErrorEmailPasswordMissing = "email and password are required"
	ErrorRefreshSecretMissing = "refresh token or password is required"
)

func sendErrorResponse(ctx fiber.Ctx, statusCode int, message string) error {
	if err := ctx.Status(statusCode).JSON(dto.ErrorResponse{Error: message}); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// AuthHandler обслуживает вход и обновление токенов.
type AuthHandler struct {
	auth svc.AuthUseCase
}

// NewAuthHandler создает обработчик аутентификации.
func NewAuthHandler(auth svc.AuthUseCase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login обрабатывает POST /auth/login.
func (h *AuthHandler) Login(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx)
	log.Debug(requestCtx, LogHandlerLogin)

	var req dto.LoginRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		log.Debug(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return sendErrorResponse(ctx, fiber.StatusBadRequest, ErrorInvalidRequest)
	}
	if req.Email == "" || req.Password == "" {
		return sendErrorResponse(ctx, fiber.StatusBadRequest, ErrorEmailPasswordMissing)
	}

	pair, err := h.auth.Login(requestCtx, req.Email, req.Password)
	if err != nil {
		return authError(ctx, err)
	}

	if err := ctx.Status(fiber.StatusOK).JSON(pair); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

// Refresh обрабатывает POST /auth/refresh.
func (h *AuthHandler) Refresh(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx)
	log.Debug(requestCtx, LogHandlerRefresh)

	var req dto.RefreshRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		log.Debug(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return sendErrorResponse(ctx, fiber.StatusBadRequest, ErrorInvalidRequest)
	}
	if req.RefreshToken == "" && (req.Email == "" || req.Password == "") {
		return sendErrorResponse(ctx, fiber.StatusBadRequest, ErrorRefreshSecretMissing)
	}

	pair, err := h.auth.Refresh(requestCtx, req.Email, req.RefreshToken, req.Password)
	if err != nil {
		return authError(ctx, err)
	}

	if err := ctx.Status(fiber.StatusOK).JSON(pair); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

func authError(ctx fiber.Ctx, err error) error {
	requestCtx := ctx.Context()

	switch {
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidRefreshToken),
		errors.Is(err, services.ErrRevokedRefreshToken),
		errors.Is(err, services.ErrExpiredRefreshToken),
		errors.Is(err, services.ErrRefreshDisabled):
		logger.Log(requestCtx).Info(requestCtx, ErrorFailedToServeRequest, zap.Error(err))
		return sendErrorResponse(ctx, fiber.StatusUnauthorized, err.Error())
	default:
		logger.Log(requestCtx).Error(requestCtx, ErrorFailedToServeRequest, zap.Error(err))
		return sendErrorResponse(ctx, fiber.StatusInternalServerError, ErrorFailedToServeRequest)
	}
}
