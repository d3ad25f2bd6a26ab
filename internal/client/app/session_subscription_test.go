package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitsync/internal/client/adapters/cache"
	"fitsync/internal/client/adapters/refresh"
	"fitsync/internal/client/app"
	"fitsync/internal/client/domain/entities"
	domain "fitsync/internal/client/domain/services"
	"fitsync/internal/client/ports/services"
)

func TestSessionEnd_DuringSubscriptionCheck(t *testing.T) {
	ctx := context.Background()

	var accept atomic.Bool
	accept.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !accept.Load() || r.Header.Get("Authorization") != "a1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"active","productId":"pro.monthly"}`))
	}))
	defer srv.Close()

	var (
		mu     sync.Mutex
		events []entities.SessionEvent
	)
	session := app.NewSession(new(mockAuthenticator), nil)
	session.Subscribe(services.SessionListenerFunc(func(_ context.Context, e entities.SessionEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}))

	h := newHarness(t, srv.URL, srv.Client(), &countingRefresher{err: domain.ErrRefreshRejected},
		refresh.WithSessionListener(session))
	h.login(t, "a1")

	c := cache.NewMemoryCache()
	checker := app.NewSubscriptionChecker(h.client, c, app.WithSubscriptionPolicy(fastPolicy()))
	session.Attach(checker)

	status, err := checker.Check(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, entities.SubscriptionActive, status.State)

	accept.Store(false)

	done := make(chan error, 1)
	go func() {
		_, err := checker.Check(ctx, true)
		done <- err
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, domain.ErrSessionExpired)
	case <-time.After(3 * time.Second):
		t.Fatal("subscription check did not return after session ended")
	}

	mu.Lock()
	require.Len(t, events, 1)
	assert.Equal(t, entities.SessionRefreshFailed, events[0].Reason)
	mu.Unlock()

	cached, err := c.Get(ctx, "subscription:status")
	require.NoError(t, err)
	assert.Empty(t, cached)
	assert.Nil(t, h.coordinator.Current(ctx))
}

// gatedGetter держит запрос до закрытия release.
type gatedGetter struct {
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (g *gatedGetter) GetJSON(_ context.Context, _ string, out any) error {
	g.calls.Add(1)
	g.entered <- struct{}{}
	<-g.release
	*(out.(*entities.SubscriptionStatus)) = entities.SubscriptionStatus{State: entities.SubscriptionTrial}
	return nil
}

func TestSubscriptionChecker_ResetDuringCheckSkipsCaching(t *testing.T) {
	ctx := context.Background()
	getter := &gatedGetter{entered: make(chan struct{}, 1), release: make(chan struct{})}
	c := cache.NewMemoryCache()
	checker := app.NewSubscriptionChecker(getter, c, app.WithSubscriptionPolicy(fastPolicy()))

	done := make(chan error, 1)
	go func() {
		_, err := checker.Check(ctx, true)
		done <- err
	}()

	<-getter.entered
	require.NoError(t, checker.Reset(ctx))
	close(getter.release)
	require.NoError(t, <-done)

	cached, err := c.Get(ctx, "subscription:status")
	require.NoError(t, err)
	assert.Empty(t, cached)

	getter.entered = make(chan struct{}, 1)
	_, err = checker.Check(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), getter.calls.Load())
}
