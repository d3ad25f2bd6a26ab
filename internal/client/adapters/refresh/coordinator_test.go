package refresh_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fitsync/internal/client/adapters/refresh"
	"fitsync/internal/client/adapters/storage/memory"
	"fitsync/internal/client/domain/entities"
	domain "fitsync/internal/client/domain/services"
)

type gatedRefresher struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	next    entities.Credential
	err     error
}

func newGatedRefresher(next entities.Credential, err error) *gatedRefresher {
	return &gatedRefresher{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
		next:    next,
		err:     err,
	}
}

func (g *gatedRefresher) Refresh(ctx context.Context, _ entities.Credential) (entities.Credential, error) {
	g.calls.Add(1)
	select {
	case g.started <- struct{}{}:
	default:
	}
	select {
	case <-g.release:
	case <-ctx.Done():
		return entities.Credential{}, ctx.Err()
	}
	if g.err != nil {
		return entities.Credential{}, g.err
	}
	return g.next, nil
}

type mockListener struct {
	mock.Mock
}

func (m *mockListener) OnSessionEnded(ctx context.Context, event entities.SessionEvent) {
	m.Called(ctx, event)
}

var oldCred = entities.Credential{AccessToken: "old-access", RefreshToken: "old-refresh", Email: "runner@fitsync.app"}

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.Save(context.Background(), oldCred))
	return store
}

type result struct {
	token string
	err   error
}

// startWave запускает лидера и дожидается, пока остальные n-1 запросов встанут в ожидание.
func startWave(t *testing.T, c *refresh.Coordinator, r *gatedRefresher, n int) <-chan result {
	t.Helper()
	results := make(chan result, n)
	var wg sync.WaitGroup

	run := func() {
		defer wg.Done()
		token, err := c.HandleUnauthorized(context.Background(), oldCred.AccessToken)
		results <- result{token, err}
	}

	wg.Add(1)
	go run()
	select {
	case <-r.started:
	case <-time.After(time.Second):
		t.Fatal("refresh was not started")
	}
	require.Equal(t, refresh.StateRefreshing, c.State())

	for i := 1; i < n; i++ {
		wg.Add(1)
		go run()
	}
	require.Eventually(t, func() bool { return c.Pending() == n-1 }, time.Second, 5*time.Millisecond)

	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

func TestHandleUnauthorized_SingleFlight(t *testing.T) {
	const n = 8
	store := newStore(t)
	next := oldCred.WithTokens("new-access", "new-refresh", time.Time{})
	r := newGatedRefresher(next, nil)
	c := refresh.NewCoordinator(store, r)

	results := startWave(t, c, r, n)
	close(r.release)

	count := 0
	for res := range results {
		require.NoError(t, res.err)
		assert.Equal(t, "new-access", res.token)
		count++
	}

	assert.Equal(t, n, count)
	assert.Equal(t, int32(1), r.calls.Load())
	assert.Equal(t, refresh.StateIdle, c.State())
	assert.Zero(t, c.Pending())

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-access", saved.AccessToken)
	assert.Equal(t, "new-refresh", saved.RefreshToken)
}

func TestHandleUnauthorized_FailureIsFatal(t *testing.T) {
	const n = 4
	store := newStore(t)
	r := newGatedRefresher(entities.Credential{}, domain.ErrRefreshRejected)

	listener := &mockListener{}
	listener.On("OnSessionEnded", mock.Anything, mock.MatchedBy(func(e entities.SessionEvent) bool {
		return e.Reason == entities.SessionRefreshFailed && e.Message == domain.SessionExpiredMessage
	})).Once()

	c := refresh.NewCoordinator(store, r, refresh.WithSessionListener(listener))

	results := startWave(t, c, r, n)
	close(r.release)

	count := 0
	for res := range results {
		require.ErrorIs(t, res.err, domain.ErrSessionExpired)
		require.ErrorIs(t, res.err, domain.ErrRefreshRejected)
		assert.Empty(t, res.token)
		count++
	}
	assert.Equal(t, n, count)
	assert.Equal(t, int32(1), r.calls.Load())
	listener.AssertExpectations(t)
	listener.AssertNumberOfCalls(t, "OnSessionEnded", 1)

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, saved)
	assert.Nil(t, c.Current(context.Background()))

	_, err = c.HandleUnauthorized(context.Background(), oldCred.AccessToken)
	require.ErrorIs(t, err, domain.ErrNoCredential)
}

func TestHandleUnauthorized_StaleTokenSkipsRefresh(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Save(context.Background(), oldCred.WithTokens("fresh", "r2", time.Time{})))
	r := newGatedRefresher(entities.Credential{}, nil)
	c := refresh.NewCoordinator(store, r)

	token, err := c.HandleUnauthorized(context.Background(), "expired-before-last-refresh")

	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
	assert.Zero(t, r.calls.Load())
}

func TestHandleUnauthorized_NoCredential(t *testing.T) {
	r := newGatedRefresher(entities.Credential{}, nil)
	c := refresh.NewCoordinator(memory.New(), r)

	_, err := c.HandleUnauthorized(context.Background(), "")

	require.ErrorIs(t, err, domain.ErrNoCredential)
	assert.Zero(t, r.calls.Load())
}

func TestHandleUnauthorized_WaiterCancelDoesNotBlockOthers(t *testing.T) {
	store := newStore(t)
	r := newGatedRefresher(oldCred.WithTokens("new-access", "", time.Time{}), nil)
	c := refresh.NewCoordinator(store, r)

	results := startWave(t, c, r, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancelled := make(chan error, 1)
	go func() {
		_, err := c.HandleUnauthorized(ctx, oldCred.AccessToken)
		cancelled <- err
	}()
	require.Eventually(t, func() bool { return c.Pending() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-cancelled, context.Canceled)

	close(r.release)
	for res := range results {
		require.NoError(t, res.err)
		assert.Equal(t, "new-access", res.token)
	}
	assert.Zero(t, c.Pending())
}

func TestHandleUnauthorized_LeaderCancelStillSettles(t *testing.T) {
	store := newStore(t)
	r := newGatedRefresher(oldCred.WithTokens("new-access", "", time.Time{}), nil)
	c := refresh.NewCoordinator(store, r)

	ctx, cancel := context.WithCancel(context.Background())
	leader := make(chan result, 1)
	go func() {
		token, err := c.HandleUnauthorized(ctx, oldCred.AccessToken)
		leader <- result{token, err}
	}()
	<-r.started
	cancel()
	close(r.release)

	res := <-leader
	require.NoError(t, res.err)
	assert.Equal(t, "new-access", res.token)
	assert.Equal(t, "new-access", c.Current(context.Background()).AccessToken)
}

func TestHandleUnauthorized_RefreshTimeout(t *testing.T) {
	store := newStore(t)
	r := newGatedRefresher(entities.Credential{}, nil)
	c := refresh.NewCoordinator(store, r, refresh.WithTimeout(20*time.Millisecond))

	_, err := c.HandleUnauthorized(context.Background(), oldCred.AccessToken)

	require.ErrorIs(t, err, domain.ErrSessionExpired)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInstallAndClear(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	c := refresh.NewCoordinator(store, newGatedRefresher(entities.Credential{}, nil))

	assert.Nil(t, c.Current(ctx))

	require.NoError(t, c.Install(ctx, oldCred))
	cur := c.Current(ctx)
	require.NotNil(t, cur)
	assert.Equal(t, oldCred.AccessToken, cur.AccessToken)

	cur.AccessToken = "mutated"
	assert.Equal(t, oldCred.AccessToken, c.Current(ctx).AccessToken)

	require.NoError(t, c.Clear(ctx))
	assert.Nil(t, c.Current(ctx))
	saved, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", refresh.StateIdle.String())
	assert.Equal(t, "refreshing", refresh.StateRefreshing.String())
}
