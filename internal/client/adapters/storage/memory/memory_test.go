package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitsync/internal/client/adapters/storage/memory"
	"fitsync/internal/client/domain/entities"
	"fitsync/internal/client/ports/storage"
)

var (
	_ storage.CredentialStore = (*memory.Store)(nil)
	_ storage.QueueStore      = (*memory.QueueStore)(nil)
)

func TestCredentialRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	cred, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, cred)

	require.NoError(t, s.Save(ctx, entities.Credential{AccessToken: "a", RefreshToken: "r"}))
	cred, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", cred.AccessToken)

	cred.AccessToken = "mutated"
	again, _ := s.Load(ctx)
	assert.Equal(t, "a", again.AccessToken)

	require.NoError(t, s.Clear(ctx))
	cred, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestQueueSaveReplaces(t *testing.T) {
	ctx := context.Background()
	q := memory.New().Queue()

	items := []entities.QueuedRequest{{ID: "a"}, {ID: "b"}}
	require.NoError(t, q.Save(ctx, items))
	items[0].ID = "changed"

	got, err := q.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", got[0].ID)

	require.NoError(t, q.Save(ctx, got[1:]))
	got, err = q.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}
