package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitsync/internal/client/adapters/storage/sqlite"
	"fitsync/internal/client/domain/entities"
)

func openStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := sqlite.Open(context.Background(), "  ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), sqlite.ErrOpen)
}

func TestStore_CredentialSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fitsync.db")

	store := openStore(t, path)
	cred, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, cred)

	want := entities.Credential{AccessToken: "a1", RefreshToken: "r1", Email: "runner@example.com", Role: "premium"}
	require.NoError(t, store.Save(ctx, want))
	require.NoError(t, store.Save(ctx, want.WithTokens("a2", "", time.Time{})))
	require.NoError(t, store.Close())

	reopened := openStore(t, path)
	cred, err = reopened.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "a2", cred.AccessToken)
	assert.Equal(t, "r1", cred.RefreshToken)

	require.NoError(t, reopened.Clear(ctx))
	cred, err = reopened.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestQueueStore_OrderAndReplace(t *testing.T) {
	ctx := context.Background()
	q := openStore(t, filepath.Join(t.TempDir(), "queue.db")).Queue()

	at := time.Date(2026, 5, 1, 7, 30, 0, 123456789, time.UTC)
	want := []entities.QueuedRequest{
		{ID: "q1", Method: "POST", URL: "/api/v1/workouts", Body: []byte(`{"n":1}`), EnqueuedAt: at},
		{ID: "q2", Method: "PATCH", URL: "/api/v1/profile", Header: map[string][]string{"X-A": {"1"}}, Body: []byte(`{}`), EnqueuedAt: at.Add(time.Second)},
		{ID: "q3", Method: "DELETE", URL: "/api/v1/workouts/7", Body: []byte{}, EnqueuedAt: at.Add(2 * time.Second)},
	}
	require.NoError(t, q.Save(ctx, want))

	items, err := q.Load(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for i := range want {
		assert.Equal(t, want[i].ID, items[i].ID)
		assert.Equal(t, want[i].Method, items[i].Method)
		assert.Equal(t, want[i].URL, items[i].URL)
		assert.True(t, want[i].EnqueuedAt.Equal(items[i].EnqueuedAt))
	}
	assert.Equal(t, []string{"1"}, items[1].Header["X-A"])
	assert.Equal(t, `{"n":1}`, string(items[0].Body))

	require.NoError(t, q.Save(ctx, want[1:]))
	items, err = q.Load(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "q2", items[0].ID)

	require.NoError(t, q.Save(ctx, nil))
	items, err = q.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}
