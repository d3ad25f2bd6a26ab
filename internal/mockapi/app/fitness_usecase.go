package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fitsync/internal/mockapi/app/dto"
	"fitsync/internal/mockapi/domain/entities"
	"fitsync/internal/mockapi/ports/repositories"
	"fitsync/pkg/logger"
)

const (
	msgWorkoutCreated = "workout created"

	errCtxCreatingWorkout = "creating workout"
	errCtxListingWorkouts = "listing workouts"
	errCtxLoadingUser     = "loading user"
	errCtxDeletingWorkout = "deleting workout"
)

// FitnessUseCase обслуживает тренировки и статус подписки.
type FitnessUseCase struct {
	users    repositories.UserRepository
	workouts repositories.WorkoutRepository
	now      func() time.Time
}

// NewFitnessUseCase создает сценарий тренировок и подписки.
func NewFitnessUseCase(users repositories.UserRepository, workouts repositories.WorkoutRepository) *FitnessUseCase {
	return &FitnessUseCase{users: users, workouts: workouts, now: time.Now}
}

// CreateWorkout сохраняет тренировку пользователя.
func (f *FitnessUseCase) CreateWorkout(ctx context.Context, userID string, req dto.WorkoutRequest) (entities.Workout, error) {
	workout, err := f.workouts.Create(ctx, entities.Workout{
		ID:              req.ID,
		UserID:          userID,
		Type:            req.Type,
		DurationMinutes: req.DurationMinutes,
		Calories:        req.Calories,
		StartedAt:       req.StartedAt,
	})
	if err != nil {
		return entities.Workout{}, fmt.Errorf("%s: %w", errCtxCreatingWorkout, err)
	}

	logger.Log(ctx).Info(ctx, msgWorkoutCreated,
		zap.String("userID", userID),
		zap.String("workoutID", workout.ID),
		zap.String("type", workout.Type))
	return workout, nil
}

// ListWorkouts возвращает тренировки пользователя.
func (f *FitnessUseCase) ListWorkouts(ctx context.Context, userID string) ([]entities.Workout, error) {
	list, err := f.workouts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxListingWorkouts, err)
	}
	return list, nil
}

// DeleteWorkout удаляет тренировку пользователя.
func (f *FitnessUseCase) DeleteWorkout(ctx context.Context, userID, id string) error {
	if err := f.workouts.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("%s: %w", errCtxDeletingWorkout, err)
	}
	return nil
}

// Subscription возвращает статус подписки пользователя. Истекшая подписка или
// пробный период отдаются как expired.
func (f *FitnessUseCase) Subscription(ctx context.Context, userID string) (dto.SubscriptionResponse, error) {
	user, err := f.users.FindByID(ctx, userID)
	if err != nil {
		return dto.SubscriptionResponse{}, fmt.Errorf("%s: %w", errCtxLoadingUser, err)
	}

	now := f.now().UTC()
	status := user.SubscriptionState
	switch {
	case status == "":
		status = entities.SubscriptionNone
	case status == entities.SubscriptionTrial && user.TrialEndsAt != nil && !now.Before(*user.TrialEndsAt),
		status == entities.SubscriptionActive && user.ExpiresAt != nil && !now.Before(*user.ExpiresAt):
		status = entities.SubscriptionExpired
	}

	return dto.SubscriptionResponse{
		Status:      status,
		ProductID:   user.ProductID,
		TrialEndsAt: user.TrialEndsAt,
		ExpiresAt:   user.ExpiresAt,
		CheckedAt:   now,
	}, nil
}
