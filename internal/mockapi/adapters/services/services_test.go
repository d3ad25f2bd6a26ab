package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fitsync/internal/mockapi/adapters/services"
	domain "fitsync/internal/mockapi/domain/services"
	"fitsync/pkg/token"
)

func TestServiceJWT_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := services.NewJWT("secret", time.Minute, time.Hour)

	signed, exp, err := svc.GenerateAccessToken(ctx, "u-1", "runner@example.com", "premium")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 2*time.Second)

	claims, err := svc.ValidateAccessToken(ctx, signed)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "premium", claims.Role)

	other, _, err := svc.GenerateAccessToken(ctx, "u-1", "runner@example.com", "premium")
	require.NoError(t, err)
	assert.NotEqual(t, signed, other)
}

func TestServiceJWT_RejectsForeignAndExpired(t *testing.T) {
	ctx := context.Background()
	svc := services.NewJWT("secret", time.Minute, time.Hour)

	foreign, _, err := services.NewJWT("other", time.Minute, time.Hour).GenerateAccessToken(ctx, "u-1", "", "")
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(ctx, foreign)
	assert.ErrorIs(t, err, domain.ErrInvalidJWTToken)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256,
		token.NewClaims("u-1", "", "", time.Now().Add(-time.Hour), time.Minute)).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(ctx, expired)
	assert.ErrorIs(t, err, domain.ErrExpiredJWTToken)

	_, err = svc.ValidateAccessToken(ctx, "garbage")
	assert.ErrorIs(t, err, domain.ErrInvalidJWTToken)
}

func TestServiceJWT_EmptySecret(t *testing.T) {
	_, _, err := services.NewJWT("", time.Minute, time.Hour).GenerateAccessToken(context.Background(), "u-1", "", "")
	assert.ErrorIs(t, err, domain.ErrGeneratingJWTToken)
}

func TestServiceJWT_RefreshTokensAreUnique(t *testing.T) {
	svc := services.NewJWT("secret", time.Minute, time.Hour)
	a, expA, err := svc.GenerateRefreshToken(context.Background())
	require.NoError(t, err)
	b, _, err := svc.GenerateRefreshToken(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, expA.After(time.Now().Add(59*time.Minute)))
}

func TestServiceBcrypt(t *testing.T) {
	ctx := context.Background()
	svc := services.NewBcrypt(bcrypt.MinCost)

	hash, err := svc.Hash(ctx, "password1")
	require.NoError(t, err)

	ok, err := svc.Verify(ctx, "password1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Verify(ctx, "password2", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Hash(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)

	_, err = svc.Hash(ctx, strings.Repeat("x", 73))
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)

	_, err = svc.Verify(ctx, "", hash)
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)

	_, err = svc.Verify(ctx, "password1", "not-a-bcrypt-hash")
	assert.Error(t, err)
}
