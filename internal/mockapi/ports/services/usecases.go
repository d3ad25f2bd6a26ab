package services

import (
	"context"

	"fitsync/internal/mockapi/app/dto"
	"fitsync/internal/mockapi/domain/entities"
	"fitsync/internal/mockapi/domain/services"
)

// AuthUseCase - сценарии входа и обновления токенов.
type AuthUseCase interface {
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, email, refreshToken, password string) (*services.TokenPair, error)
}

// FitnessUseCase - сценарии тренировок и подписки.
type FitnessUseCase interface {
	CreateWorkout(ctx context.Context, userID string, req dto.WorkoutRequest) (entities.Workout, error)
	ListWorkouts(ctx context.Context, userID string) ([]entities.Workout, error)
	DeleteWorkout(ctx context.Context, userID, id string) error
	Subscription(ctx context.Context, userID string) (dto.SubscriptionResponse, error)
}
