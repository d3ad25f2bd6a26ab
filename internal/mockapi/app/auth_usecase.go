// Package app содержит сценарии тестового бэкенда.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"fitsync/internal/mockapi/domain/entities"
	"fitsync/internal/mockapi/domain/services"
	"fitsync/internal/mockapi/ports/repositories"
	svc "fitsync/internal/mockapi/ports/services"
	"fitsync/pkg/logger"
)

const (
	methodLogin          = "Login"
	methodRefresh        = "Refresh"
	methodSeedUser       = "SeedUser"
	methodGenerateTokens = "generateTokenPair"

	msgLoginAttempt        = "login attempt"
	msgLoginNonExistent    = "login attempt with non-existent email"
	msgInvalidPasswordAuth = "invalid password provided"
	msgUserLoggedIn        = "user logged in successfully"
	msgRefreshingTokens    = "refreshing tokens"
	msgRefreshDisabled     = "refresh rejected: refresh is disabled"
	msgRevokedTokenAttempt = "attempt to use revoked refresh token"
	msgExpiredTokenAttempt = "attempt to use expired refresh token"
	msgTokensRefreshed     = "tokens refreshed successfully"
	msgTokenPairGenerated  = "token pair generated successfully"
	msgUserSeeded          = "user seeded"

	msgErrFindingUser          = "error finding user by email"
	msgErrVerifyingPassword    = "error verifying password"
	msgErrInvalidRefreshToken  = "invalid refresh token"
	msgErrRevokingOldToken     = "failed to revoke old token"
	msgErrGenerateAccessToken  = "failed to generate access token"
	msgErrGenerateRefreshToken = "failed to generate refresh token"
	msgErrStoreRefreshToken    = "failed to store refresh token"

	errCtxInvalidCredentials     = "invalid credentials"
	errCtxFindingUser            = "finding user"
	errCtxVerifyingPassword      = "verifying password"
	errCtxFindingRefreshToken    = "finding refresh token"
	errCtxTokenRevoked           = "token revoked"
	errCtxTokenExpired           = "token expired"
	errCtxTokenOwner             = "token issued to another user"
	errCtxRevokingOldToken       = "revoking old token"
	errCtxGeneratingAccessToken  = "generating access token"
	errCtxGeneratingRefreshToken = "generating refresh token"
	errCtxStoringRefreshToken    = "storing refresh token"
	errCtxHashingPassword        = "hashing password"
	errCtxCreatingUser           = "creating user"
)

// AuthUseCase выдает и обновляет токены.
type AuthUseCase struct {
	userRepo    repositories.UserRepository
	tokenRepo   repositories.TokenRepository
	passwordSvc svc.PasswordService
	tokenSvc    svc.TokenService

	refreshDisabled atomic.Bool
	now             func() time.Time
}

// NewAuthUseCase создает сценарий аутентификации.
func NewAuthUseCase(
	userRepo repositories.UserRepository,
	tokenRepo repositories.TokenRepository,
	passwordSvc svc.PasswordService,
	tokenSvc svc.TokenService,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		passwordSvc: passwordSvc,
		tokenSvc:    tokenSvc,
		now:         time.Now,
	}
}

// SetRefreshEnabled включает или отключает эндпоинт обновления. Отключенное обновление
// позволяет воспроизвести завершение сессии на клиенте.
func (a *AuthUseCase) SetRefreshEnabled(enabled bool) {
	a.refreshDisabled.Store(!enabled)
}

// SeedUser создает пользователя с заданным паролем.
func (a *AuthUseCase) SeedUser(ctx context.Context, user entities.User, password string) (*entities.User, error) {
	log := logger.Log(ctx).With(zap.String("method", methodSeedUser), zap.String("email", user.Email))

	hash, err := a.passwordSvc.Hash(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxHashingPassword, err)
	}
	user.PasswordHash = hash

	created, err := a.userRepo.Create(ctx, &user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxCreatingUser, err)
	}

	log.Info(ctx, msgUserSeeded, zap.String("userID", created.ID), zap.String("role", created.Role))
	return created, nil
}

// Login аутентифицирует пользователя по email и паролю.
func (a *AuthUseCase) Login(ctx context.Context, email, password string) (*services.TokenPair, error) {
	log := logger.Log(ctx).With(zap.String("method", methodLogin), zap.String("email", email))
	log.Debug(ctx, msgLoginAttempt)

	user, err := a.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	log.Info(ctx, msgUserLoggedIn, zap.String("userID", user.ID))
	return a.generateTokenPair(ctx, user)
}

// Refresh выпускает новую пару токенов. Использованный refresh токен отзывается.
// Без refresh токена принимается повторная проверка пароля.
func (a *AuthUseCase) Refresh(ctx context.Context, email, refreshToken, password string) (*services.TokenPair, error) {
	log := logger.Log(ctx).With(zap.String("method", methodRefresh), zap.String("email", email))
	log.Debug(ctx, msgRefreshingTokens)

	if a.refreshDisabled.Load() {
		log.Info(ctx, msgRefreshDisabled)
		return nil, services.ErrRefreshDisabled
	}

	if refreshToken == "" {
		user, err := a.authenticate(ctx, email, password)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, msgTokensRefreshed, zap.String("userID", user.ID))
		return a.generateTokenPair(ctx, user)
	}

	stored, err := a.tokenRepo.Find(ctx, refreshToken)
	if err != nil {
		log.Debug(ctx, msgErrInvalidRefreshToken, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxFindingRefreshToken, services.ErrInvalidRefreshToken)
	}

	log = log.With(zap.String("userID", stored.UserID))

	if stored.IsRevoked {
		log.Debug(ctx, msgRevokedTokenAttempt)
		return nil, fmt.Errorf("%s: %w", errCtxTokenRevoked, services.ErrRevokedRefreshToken)
	}
	if !a.now().Before(stored.ExpiresAt) {
		log.Debug(ctx, msgExpiredTokenAttempt)
		return nil, fmt.Errorf("%s: %w", errCtxTokenExpired, services.ErrExpiredRefreshToken)
	}

	user, err := a.userRepo.FindByID(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxFindingUser, err)
	}
	if email != "" && email != user.Email {
		return nil, fmt.Errorf("%s: %w", errCtxTokenOwner, services.ErrInvalidRefreshToken)
	}

	if err := a.tokenRepo.Revoke(ctx, refreshToken); err != nil {
		log.Error(ctx, msgErrRevokingOldToken, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxRevokingOldToken, err)
	}

	pair, err := a.generateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Info(ctx, msgTokensRefreshed)
	return pair, nil
}

func (a *AuthUseCase) authenticate(ctx context.Context, email, password string) (*entities.User, error) {
	log := logger.Log(ctx).With(zap.String("email", email))

	user, err := a.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			log.Debug(ctx, msgLoginNonExistent)
			return nil, fmt.Errorf("%s: %w", errCtxInvalidCredentials, services.ErrInvalidCredentials)
		}
		log.Error(ctx, msgErrFindingUser, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxFindingUser, err)
	}

	valid, err := a.passwordSvc.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPassword) {
			return nil, fmt.Errorf("%s: %w", errCtxInvalidCredentials, services.ErrInvalidCredentials)
		}
		log.Error(ctx, msgErrVerifyingPassword, zap.Error(err), zap.String("userID", user.ID))
		return nil, fmt.Errorf("%s: %w", errCtxVerifyingPassword, err)
	}
	if !valid {
		log.Debug(ctx, msgInvalidPasswordAuth, zap.String("userID", user.ID))
		return nil, fmt.Errorf("%s: %w", errCtxInvalidCredentials, services.ErrInvalidCredentials)
	}
	return user, nil
}

func (a *AuthUseCase) generateTokenPair(ctx context.Context, user *entities.User) (*services.TokenPair, error) {
	log := logger.Log(ctx).With(
		zap.String("method", methodGenerateTokens),
		zap.String("userID", user.ID),
	)

	accessToken, accessExpires, err := a.tokenSvc.GenerateAccessToken(ctx, user.ID, user.Email, user.Role)
	if err != nil {
		log.Error(ctx, msgErrGenerateAccessToken, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxGeneratingAccessToken, services.ErrTokenGenerationFailed)
	}

	refreshToken, refreshExpires, err := a.tokenSvc.GenerateRefreshToken(ctx)
	if err != nil {
		log.Error(ctx, msgErrGenerateRefreshToken, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxGeneratingRefreshToken, services.ErrTokenGenerationFailed)
	}

	if err := a.tokenRepo.Store(ctx, services.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: refreshExpires,
	}); err != nil {
		log.Error(ctx, msgErrStoreRefreshToken, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxStoringRefreshToken, err)
	}

	log.Debug(ctx, msgTokenPairGenerated)

	return &services.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       user.ID,
		ExpiresAt:    accessExpires,
	}, nil
}
