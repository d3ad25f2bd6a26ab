package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitsync/internal/client/adapters/interceptor"
	"fitsync/internal/client/adapters/queue"
	"fitsync/internal/client/adapters/refresh"
	"fitsync/internal/client/adapters/storage/memory"
	"fitsync/internal/client/app"
	"fitsync/internal/client/domain/entities"
	domain "fitsync/internal/client/domain/services"
	"fitsync/internal/client/ports/services"
)

type countingRefresher struct {
	calls atomic.Int32
	delay time.Duration
	next  string
	err   error
}

func (r *countingRefresher) Refresh(_ context.Context, cred entities.Credential) (entities.Credential, error) {
	r.calls.Add(1)
	time.Sleep(r.delay)
	if r.err != nil {
		return entities.Credential{}, r.err
	}
	return cred.WithTokens(r.next, "refresh-"+r.next, time.Time{}), nil
}

type doerFunc func(req *http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

type harness struct {
	client      *app.Client
	coordinator *refresh.Coordinator
	queue       *queue.Queue
	store       *memory.Store
}

func newHarness(t *testing.T, baseURL string, doer services.Doer, refresher services.TokenRefresher, opts ...refresh.Option) *harness {
	t.Helper()

	store := memory.New()
	coordinator := refresh.NewCoordinator(store, refresher, opts...)
	q := queue.New(store.Queue())
	decorator := interceptor.NewHeaderDecorator(coordinator, &interceptor.StaticContext{
		Device: entities.DeviceContext{BundleID: "com.example.fitsync", AppVersion: "1.0.0", OSName: "linux", OSVersion: "6"},
	})
	client := app.NewClient(baseURL, doer, decorator, coordinator, q, app.WithRequestTimeout(time.Second))

	return &harness{client: client, coordinator: coordinator, queue: q, store: store}
}

func (h *harness) login(t *testing.T, token string) {
	t.Helper()
	require.NoError(t, h.coordinator.Install(context.Background(), entities.Credential{
		AccessToken:  token,
		RefreshToken: "refresh-" + token,
		Email:        "runner@example.com",
	}))
}

// tokenServer отвечает 200 только на токен valid, остальным 401.
func tokenServer(valid string, hits *sync.Map) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if hits != nil {
			n, _ := hits.LoadOrStore(auth, new(atomic.Int32))
			n.(*atomic.Int32).Add(1)
		}
		if auth != valid {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
}

func TestClient_ConcurrentUnauthorizedRefreshOnce(t *testing.T) {
	var hits sync.Map
	srv := tokenServer("fresh", &hits)
	defer srv.Close()

	refresher := &countingRefresher{next: "fresh", delay: 50 * time.Millisecond}
	h := newHarness(t, srv.URL, srv.Client(), refresher)
	h.login(t, "expired")

	paths := []string{"/api/v1/profile", "/api/v1/workouts", "/api/v1/plans"}
	var wg sync.WaitGroup
	errs := make([]error, len(paths))
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			var out map[string]bool
			errs[i] = h.client.GetJSON(context.Background(), path, &out)
			if errs[i] == nil && !out["ok"] {
				errs[i] = errors.New("unexpected body")
			}
		}(i, path)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), refresher.calls.Load())

	fresh, ok := hits.Load("fresh")
	require.True(t, ok)
	assert.Equal(t, int32(3), fresh.(*atomic.Int32).Load())

	cred := h.coordinator.Current(context.Background())
	require.NotNil(t, cred)
	assert.Equal(t, "fresh", cred.AccessToken)
	assert.Equal(t, refresh.StateIdle, h.coordinator.State())
}

func TestClient_RetryUnauthorizedIsNotRefreshedAgain(t *testing.T) {
	srv := tokenServer("never", nil)
	defer srv.Close()

	refresher := &countingRefresher{next: "fresh"}
	h := newHarness(t, srv.URL, srv.Client(), refresher)
	h.login(t, "expired")

	resp, err := h.client.Do(context.Background(), &entities.Request{Method: http.MethodGet, URL: "/api/v1/profile"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(1), refresher.calls.Load())
}

func TestClient_RefreshFailureEndsSession(t *testing.T) {
	srv := tokenServer("fresh", nil)
	defer srv.Close()

	var events []entities.SessionEvent
	listener := services.SessionListenerFunc(func(_ context.Context, e entities.SessionEvent) {
		events = append(events, e)
	})

	refresher := &countingRefresher{err: domain.ErrRefreshRejected}
	h := newHarness(t, srv.URL, srv.Client(), refresher, refresh.WithSessionListener(listener))
	h.login(t, "expired")

	_, err := h.client.Do(context.Background(), &entities.Request{Method: http.MethodGet, URL: "/api/v1/profile"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)

	require.Len(t, events, 1)
	assert.Equal(t, entities.SessionRefreshFailed, events[0].Reason)
	assert.Equal(t, domain.SessionExpiredMessage, events[0].Message)

	stored, err := h.store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestClient_RefreshWithoutResponseIsNotQueued(t *testing.T) {
	srv := tokenServer("fresh", nil)
	defer srv.Close()

	refresher := &countingRefresher{err: fmt.Errorf("post refresh: %w", domain.ErrNoResponse)}
	h := newHarness(t, srv.URL, srv.Client(), refresher)
	h.login(t, "expired")

	_, err := h.client.Do(context.Background(), &entities.Request{
		Method:    http.MethodPost,
		URL:       "/api/v1/workouts",
		Body:      []byte(`{"type":"run"}`),
		Queueable: true,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.NotErrorIs(t, err, domain.ErrRequestQueued)
	assert.False(t, domain.IsNoResponse(err))

	n, err := h.queue.Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClient_DrainDropsEntryWhenSessionEnds(t *testing.T) {
	srv := tokenServer("fresh", nil)
	defer srv.Close()

	refresher := &countingRefresher{err: fmt.Errorf("post refresh: %w", domain.ErrNoResponse)}
	h := newHarness(t, srv.URL, srv.Client(), refresher)
	h.login(t, "expired")

	_, err := h.queue.Enqueue(context.Background(), entities.QueuedRequest{Method: http.MethodPost, URL: "/api/v1/workouts"})
	require.NoError(t, err)

	res, err := h.client.DrainQueue(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rejected)
	assert.False(t, res.Offline)

	n, err := h.queue.Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClient_UnauthorizedWithoutSession(t *testing.T) {
	srv := tokenServer("fresh", nil)
	defer srv.Close()

	refresher := &countingRefresher{next: "fresh"}
	h := newHarness(t, srv.URL, srv.Client(), refresher)

	_, err := h.client.Do(context.Background(), &entities.Request{Method: http.MethodGet, URL: "/api/v1/profile"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Zero(t, refresher.calls.Load())
}

func TestClient_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"bad workout"}`))
	}))
	defer srv.Close()

	h := newHarness(t, srv.URL, srv.Client(), &countingRefresher{})
	h.login(t, "token")

	resp, err := h.client.Do(context.Background(), &entities.Request{
		Method:    http.MethodPost,
		URL:       "/api/v1/workouts",
		Body:      []byte(`{}`),
		Queueable: true,
	})
	require.Error(t, err)

	var respErr *domain.ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, http.StatusUnprocessableEntity, respErr.StatusCode)
	require.NotNil(t, resp)
	assert.JSONEq(t, `{"error":"bad workout"}`, string(resp.Body))

	n, err := h.queue.Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClient_QueuesWriteWithoutResponse(t *testing.T) {
	offline := doerFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: network is unreachable")
	})
	h := newHarness(t, "http://api.invalid", offline, &countingRefresher{})
	h.login(t, "token")

	header := http.Header{"X-Idempotency-Key": []string{"w-1"}}
	_, err := h.client.Do(context.Background(), &entities.Request{
		Method:    http.MethodPost,
		URL:       "/api/v1/workouts",
		Header:    header,
		Body:      []byte(`{"type":"run"}`),
		Queueable: true,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRequestQueued)
	assert.ErrorIs(t, err, domain.ErrOffline)

	items, err := h.queue.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, http.MethodPost, items[0].Method)
	assert.Equal(t, "/api/v1/workouts", items[0].URL)
	assert.Equal(t, `{"type":"run"}`, string(items[0].Body))
	assert.Equal(t, []string{"w-1"}, items[0].Header["X-Idempotency-Key"])
	assert.NotContains(t, items[0].Header, "Authorization")
}

func TestClient_ReadsAreNotQueued(t *testing.T) {
	offline := doerFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	h := newHarness(t, "http://api.invalid", offline, &countingRefresher{})

	_, err := h.client.Do(context.Background(), &entities.Request{Method: http.MethodGet, URL: "/api/v1/workouts", Queueable: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoResponse)
	assert.NotErrorIs(t, err, domain.ErrRequestQueued)

	n, err := h.queue.Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClient_TimeoutIsNoResponse(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	store := memory.New()
	q := queue.New(store.Queue())
	client := app.NewClient(srv.URL, srv.Client(), nil, nil, q, app.WithRequestTimeout(50*time.Millisecond))

	_, err := client.Do(context.Background(), &entities.Request{Method: http.MethodPut, URL: "/api/v1/profile", Queueable: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoResponse)
	assert.ErrorIs(t, err, domain.ErrRequestQueued)

	n, err := q.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestClient_CallerCancelIsNotQueued(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	doer := doerFunc(func(req *http.Request) (*http.Response, error) {
		cancel()
		<-req.Context().Done()
		return nil, req.Context().Err()
	})
	h := newHarness(t, "http://api.invalid", doer, &countingRefresher{})

	_, err := h.client.Do(ctx, &entities.Request{Method: http.MethodPost, URL: "/api/v1/workouts", Queueable: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	n, err := h.queue.Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClient_DrainQueueReplaysWithCurrentToken(t *testing.T) {
	var mu sync.Mutex
	var received []string
	online := atomic.Bool{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		received = append(received, r.Header.Get("Authorization")+" "+string(body))
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	doer := doerFunc(func(req *http.Request) (*http.Response, error) {
		if !online.Load() {
			return nil, errors.New("network is unreachable")
		}
		return srv.Client().Do(req)
	})

	h := newHarness(t, srv.URL, doer, &countingRefresher{})
	h.login(t, "old")

	for _, body := range []string{`{"n":1}`, `{"n":2}`} {
		_, err := h.client.Do(context.Background(), &entities.Request{
			Method: http.MethodPost, URL: "/api/v1/workouts", Body: []byte(body), Queueable: true,
		})
		require.ErrorIs(t, err, domain.ErrRequestQueued)
	}

	res, err := h.client.DrainQueue(context.Background(), app.TriggerManual)
	require.NoError(t, err)
	assert.True(t, res.Offline)
	assert.Equal(t, 2, res.Remaining)

	h.login(t, "new")
	online.Store(true)

	res, err = h.client.DrainQueue(context.Background(), app.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Delivered)
	assert.False(t, res.Offline)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{`new {"n":1}`, `new {"n":2}`}, received)
}

func TestClient_SendJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "w-1", "type": in["type"]})
	}))
	defer srv.Close()

	h := newHarness(t, srv.URL+"/", srv.Client(), &countingRefresher{})
	h.login(t, "token")

	var out map[string]string
	err := h.client.SendJSON(context.Background(), http.MethodPost, "api/v1/workouts", map[string]string{"type": "swim"}, true, &out)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"id": "w-1", "type": "swim"}, out)
}
