package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fitsync/internal/mockapi/adapters/memory"
	adapters "fitsync/internal/mockapi/adapters/services"
	"fitsync/internal/mockapi/app"
	"fitsync/internal/mockapi/app/dto"
	"fitsync/internal/mockapi/domain/entities"
	"fitsync/internal/mockapi/domain/services"
	"fitsync/pkg/token"
)

const (
	testEmail    = "runner@example.com"
	testPassword = "password123"
)

var errTokenBackend = errors.New("token backend down")

type mockTokenService struct {
	mock.Mock
}

func (m *mockTokenService) GenerateAccessToken(ctx context.Context, userID, email, role string) (string, time.Time, error) {
	args := m.Called(ctx, userID, email, role)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *mockTokenService) GenerateRefreshToken(ctx context.Context) (string, time.Time, error) {
	args := m.Called(ctx)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *mockTokenService) ValidateAccessToken(ctx context.Context, tokenString string) (*token.Claims, error) {
	args := m.Called(ctx, tokenString)
	claims, _ := args.Get(0).(*token.Claims)
	return claims, args.Error(1)
}

func newAuth(t *testing.T) (*app.AuthUseCase, *entities.User) {
	t.Helper()

	uc := app.NewAuthUseCase(
		memory.NewUserRepository(),
		memory.NewTokenRepository(),
		adapters.NewBcrypt(bcrypt.MinCost),
		adapters.NewJWT("secret", time.Minute, time.Hour),
	)
	user, err := uc.SeedUser(context.Background(), entities.User{Email: testEmail, Role: entities.RolePremium}, testPassword)
	require.NoError(t, err)
	return uc, user
}

func TestAuthUseCase_Login(t *testing.T) {
	uc, user := newAuth(t)
	ctx := context.Background()

	pair, err := uc.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
	assert.Equal(t, user.ID, pair.UserID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	_, err = uc.Login(ctx, testEmail, "wrong-password")
	require.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = uc.Login(ctx, "nobody@example.com", testPassword)
	require.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = uc.Login(ctx, testEmail, "")
	require.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestAuthUseCase_RefreshRotatesToken(t *testing.T) {
	uc, _ := newAuth(t)
	ctx := context.Background()

	pair, err := uc.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	next, err := uc.Refresh(ctx, testEmail, pair.RefreshToken, "")
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, err = uc.Refresh(ctx, testEmail, pair.RefreshToken, "")
	require.ErrorIs(t, err, services.ErrRevokedRefreshToken)

	_, err = uc.Refresh(ctx, testEmail, "unknown", "")
	require.ErrorIs(t, err, services.ErrInvalidRefreshToken)

	_, err = uc.Refresh(ctx, "other@example.com", next.RefreshToken, "")
	require.ErrorIs(t, err, services.ErrInvalidRefreshToken)
}

func TestAuthUseCase_RefreshWithPassword(t *testing.T) {
	uc, user := newAuth(t)
	ctx := context.Background()

	pair, err := uc.Refresh(ctx, testEmail, "", testPassword)
	require.NoError(t, err)
	assert.Equal(t, user.ID, pair.UserID)

	_, err = uc.Refresh(ctx, testEmail, "", "wrong-password")
	require.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestAuthUseCase_RefreshDisabled(t *testing.T) {
	uc, _ := newAuth(t)
	ctx := context.Background()

	pair, err := uc.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	uc.SetRefreshEnabled(false)
	_, err = uc.Refresh(ctx, testEmail, pair.RefreshToken, "")
	require.ErrorIs(t, err, services.ErrRefreshDisabled)

	uc.SetRefreshEnabled(true)
	_, err = uc.Refresh(ctx, testEmail, pair.RefreshToken, "")
	require.NoError(t, err)
}

func TestAuthUseCase_TokenGenerationFailure(t *testing.T) {
	ctx := context.Background()
	tokens := &mockTokenService{}
	uc := app.NewAuthUseCase(
		memory.NewUserRepository(),
		memory.NewTokenRepository(),
		adapters.NewBcrypt(bcrypt.MinCost),
		tokens,
	)
	_, err := uc.SeedUser(ctx, entities.User{Email: testEmail}, testPassword)
	require.NoError(t, err)

	tokens.On("GenerateAccessToken", mock.Anything, mock.Anything, testEmail, "").
		Return("", time.Time{}, errTokenBackend).Once()

	_, err = uc.Login(ctx, testEmail, testPassword)
	require.ErrorIs(t, err, services.ErrTokenGenerationFailed)
	tokens.AssertExpectations(t)
}

func TestFitnessUseCase_Workouts(t *testing.T) {
	ctx := context.Background()
	uc := app.NewFitnessUseCase(memory.NewUserRepository(), memory.NewWorkoutRepository())

	created, err := uc.CreateWorkout(ctx, "u-1", dto.WorkoutRequest{Type: "run", DurationMinutes: 30})
	require.NoError(t, err)
	assert.Equal(t, "u-1", created.UserID)

	_, err = uc.CreateWorkout(ctx, "u-1", dto.WorkoutRequest{Type: "run"})
	require.ErrorIs(t, err, entities.ErrInvalidWorkout)

	list, err := uc.ListWorkouts(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, uc.DeleteWorkout(ctx, "u-1", created.ID))
	require.ErrorIs(t, uc.DeleteWorkout(ctx, "u-1", created.ID), entities.ErrWorkoutNotFound)
}

func TestFitnessUseCase_Subscription(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	uc := app.NewFitnessUseCase(users, memory.NewWorkoutRepository())

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name string
		user entities.User
		want string
	}{
		{name: "no subscription", user: entities.User{Email: "a@example.com"}, want: entities.SubscriptionNone},
		{name: "active", user: entities.User{Email: "b@example.com", SubscriptionState: entities.SubscriptionActive, ExpiresAt: &future}, want: entities.SubscriptionActive},
		{name: "active but lapsed", user: entities.User{Email: "c@example.com", SubscriptionState: entities.SubscriptionActive, ExpiresAt: &past}, want: entities.SubscriptionExpired},
		{name: "trial", user: entities.User{Email: "d@example.com", SubscriptionState: entities.SubscriptionTrial, TrialEndsAt: &future}, want: entities.SubscriptionTrial},
		{name: "trial ended", user: entities.User{Email: "e@example.com", SubscriptionState: entities.SubscriptionTrial, TrialEndsAt: &past}, want: entities.SubscriptionExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := users.Create(ctx, &tt.user)
			require.NoError(t, err)

			status, err := uc.Subscription(ctx, user.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, status.Status)
			assert.False(t, status.CheckedAt.IsZero())
		})
	}

	_, err := uc.Subscription(ctx, "missing")
	assert.ErrorIs(t, err, entities.ErrUserNotFound)
}
