package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"fitsync/internal/mockapi/app/dto"
	"fitsync/internal/mockapi/app/http/middleware"
	"fitsync/internal/mockapi/domain/entities"
	svc "fitsync/internal/mockapi/ports/services"
	"fitsync/pkg/logger"
)

// Константы для логирования.
const (
	LogHandlerCreateWorkout = "fitness handler: create workout"
	LogHandlerSubscription  = "fitness handler: subscription status"

	ErrorMissingClaims = "missing user claims"
)

// FitnessHandler обслуживает тренировки и статус подписки.
type FitnessHandler struct {
	fitness svc.FitnessUseCase
}

// NewFitnessHandler создает обработчик тренировок.
func NewFitnessHandler(fitness svc.FitnessUseCase) *FitnessHandler {
	return &FitnessHandler{fitness: fitness}
}

// Subscription обрабатывает GET /subscription/status.
func (h *FitnessHandler) Subscription(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	logger.Log(requestCtx).Debug(requestCtx, LogHandlerSubscription)

	claims, ok := middleware.ClaimsFromContext(ctx)
	if !ok {
		return sendErrorResponse(ctx, fiber.StatusUnauthorized, ErrorMissingClaims)
	}

	status, err := h.fitness.Subscription(requestCtx, claims.UserID)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return sendErrorResponse(ctx, fiber.StatusNotFound, err.Error())
		}
		logger.Log(requestCtx).Error(requestCtx, ErrorFailedToServeRequest, zap.Error(err))
		return sendErrorResponse(ctx, fiber.StatusInternalServerError, ErrorFailedToServeRequest)
	}

	return ctx.Status(fiber.StatusOK).JSON(status)
}

// ListWorkouts обрабатывает GET /workouts.
func (h *FitnessHandler) ListWorkouts(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()

	claims, ok := middleware.ClaimsFromContext(ctx)
	if !ok {
		return sendErrorResponse(ctx, fiber.StatusUnauthorized, ErrorMissingClaims)
	}

	list, err := h.fitness.ListWorkouts(requestCtx, claims.UserID)
	if err != nil {
		logger.Log(requestCtx).Error(requestCtx, ErrorFailedToServeRequest, zap.Error(err))
		return sendErrorResponse(ctx, fiber.StatusInternalServerError, ErrorFailedToServeRequest)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"workouts": list})
}

// CreateWorkout обрабатывает POST /workouts.
func (h *FitnessHandler) CreateWorkout(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx)
	log.Debug(requestCtx, LogHandlerCreateWorkout)

	claims, ok := middleware.ClaimsFromContext(ctx)
	if !ok {
		return sendErrorResponse(ctx, fiber.StatusUnauthorized, ErrorMissingClaims)
	}

	var req dto.WorkoutRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		log.Debug(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return sendErrorResponse(ctx, fiber.StatusBadRequest, ErrorInvalidRequest)
	}

	workout, err := h.fitness.CreateWorkout(requestCtx, claims.UserID, req)
	if err != nil {
		if errors.Is(err, entities.ErrInvalidWorkout) {
			return sendErrorResponse(ctx, fiber.StatusUnprocessableEntity, err.Error())
		}
		log.Error(requestCtx, ErrorFailedToServeRequest, zap.Error(err))
		return sendErrorResponse(ctx, fiber.StatusInternalServerError, ErrorFailedToServeRequest)
	}

	if err := ctx.Status(fiber.StatusCreated).JSON(workout); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

// DeleteWorkout обрабатывает DELETE /workouts/:id.
func (h *FitnessHandler) DeleteWorkout(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()

	claims, ok := middleware.ClaimsFromContext(ctx)
	if !ok {
		return sendErrorResponse(ctx, fiber.StatusUnauthorized, ErrorMissingClaims)
	}

	if err := h.fitness.DeleteWorkout(requestCtx, claims.UserID, ctx.Params("id")); err != nil {
		if errors.Is(err, entities.ErrWorkoutNotFound) {
			return sendErrorResponse(ctx, fiber.StatusNotFound, err.Error())
		}
		logger.Log(requestCtx).Error(requestCtx, ErrorFailedToServeRequest, zap.Error(err))
		return sendErrorResponse(ctx, fiber.StatusInternalServerError, ErrorFailedToServeRequest)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

// Health обрабатывает GET /health.
func Health(ctx fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}
