package redis_test

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbredis "fitsync/pkg/db/redis"
)

func TestNewClient_Success(t *testing.T) {
	s := miniredis.RunT(t)

	host, portStr, _ := strings.Cut(s.Addr(), ":")
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := &dbredis.Config{Host: host, Port: port}

	client, err := dbredis.NewClient(context.Background(), cfg)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewClient_ConnectionFailure(t *testing.T) {
	cfg := &dbredis.Config{
		Host:    "127.0.0.1",
		Port:    1,
		Timeout: 100 * time.Millisecond,
	}

	client, err := dbredis.NewClient(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), dbredis.ErrConnect)
}

func TestConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache.local:6380", dbredis.Config{Host: "cache.local", Port: 6380}.Addr())
	assert.Equal(t, "[::1]:6379", dbredis.Config{Host: "::1", Port: 6379}.Addr())
}
