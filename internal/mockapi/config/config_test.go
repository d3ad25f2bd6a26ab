package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitsync/internal/mockapi/config"
	"fitsync/pkg/logger"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.GetAddress())
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.False(t, cfg.JWT.RefreshDisabled)
	assert.Equal(t, "demo@fitsync.local", cfg.Demo.Email)
	assert.Equal(t, logger.Development, cfg.Logging.GetEnvironment())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("MOCKAPI_HTTP_PORT", "9090")
	t.Setenv("MOCKAPI_JWT_ACCESS_TOKEN_TTL", "30s")
	t.Setenv("MOCKAPI_JWT_REFRESH_DISABLED", "true")
	t.Setenv("MOCKAPI_LOGGER_MODE", "production")

	cfg, err := config.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.JWT.AccessTokenTTL)
	assert.True(t, cfg.JWT.RefreshDisabled)
	assert.Equal(t, logger.Production, cfg.Logging.GetEnvironment())
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("MOCKAPI_JWT_ACCESS_TOKEN_TTL", "soon")

	_, err := config.Load(context.Background())
	require.Error(t, err)
}
