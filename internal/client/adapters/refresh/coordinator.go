// Package refresh координирует обновление токена доступа: на волну ответов 401
// выполняется ровно один вызов обновления, остальные запросы ждут его результата.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"fitsync/internal/client/domain/entities"
	domain "fitsync/internal/client/domain/services"
	"fitsync/internal/client/metrics"
	"fitsync/internal/client/ports/services"
	"fitsync/internal/client/ports/storage"
	"fitsync/pkg/logger"
)

// State - состояние координатора.
type State int

const (
	// StateIdle - обновление не выполняется.
	StateIdle State = iota
	// StateRefreshing - один вызов обновления в полете, остальные ждут.
	StateRefreshing
)

func (s State) String() string {
	if s == StateRefreshing {
		return "refreshing"
	}
	return "idle"
}

// DefaultRefreshTimeout - таймаут вызова обновления, если не задан WithTimeout.
const DefaultRefreshTimeout = 15 * time.Second

// Сообщения логов и префикс ошибки координатора.
const (
	LogRefreshStarted   = "token refresh started"
	LogRefreshSucceeded = "token refresh succeeded"
	LogRefreshFailed    = "token refresh failed, ending session"
	LogWaiterRegistered = "waiting for in-flight token refresh"
	LogStaleToken       = "unauthorized with stale token, reusing current credential"
	LogLoadFailed       = "failed to load credential"
	LogSaveFailed       = "failed to persist refreshed credential"
	LogClearFailed      = "failed to clear credential"

	ErrRefresh = "refresh token"
)

type outcome struct {
	token string
	err   error
}

// Coordinator владеет текущей сессией и состоянием обновления.
type Coordinator struct {
	store     storage.CredentialStore
	refresher services.TokenRefresher
	listener  services.SessionListener
	metrics   *metrics.Metrics
	timeout   time.Duration

	mu      sync.Mutex
	state   State
	loaded  bool
	current *entities.Credential
	waiters []chan outcome
}

// Option настраивает Coordinator.
type Option func(*Coordinator)

// WithMetrics подключает метрики.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithTimeout задает таймаут вызова обновления.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSessionListener задает получателя события о завершении сессии.
func WithSessionListener(l services.SessionListener) Option {
	return func(c *Coordinator) { c.listener = l }
}

// NewCoordinator создает координатор поверх хранилища сессии.
func NewCoordinator(store storage.CredentialStore, refresher services.TokenRefresher, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		refresher: refresher,
		timeout:   DefaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State возвращает текущее состояние.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending возвращает число запросов, ожидающих обновления.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// Current возвращает копию текущей сессии или nil.
func (c *Coordinator) Current(ctx context.Context) *entities.Credential {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(ctx)
	if c.current.IsZero() {
		return nil
	}
	cred := *c.current
	return &cred
}

// Install сохраняет новую сессию после входа.
func (c *Coordinator) Install(ctx context.Context, cred entities.Credential) error {
	if err := c.store.Save(ctx, cred); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	c.mu.Lock()
	c.current = &cred
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// Clear удаляет сессию.
func (c *Coordinator) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.current = nil
	c.loaded = true
	c.mu.Unlock()

	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// HandleUnauthorized вызывается запросом, получившим 401 с токеном failedToken.
// Возвращает access токен для повтора запроса либо ошибку, оборачивающую
// domain.ErrSessionExpired, если обновление не удалось.
func (c *Coordinator) HandleUnauthorized(ctx context.Context, failedToken string) (string, error) {
	log := logger.Log(ctx).With(zap.String("component", "refresh"))

	c.mu.Lock()
	c.loadLocked(ctx)

	if c.state == StateRefreshing {
		ch := make(chan outcome, 1)
		c.waiters = append(c.waiters, ch)
		c.mu.Unlock()

		log.Debug(ctx, LogWaiterRegistered)
		select {
		case res := <-ch:
			return res.token, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if c.current.IsZero() {
		c.mu.Unlock()
		return "", domain.ErrNoCredential
	}

	if c.current.AccessToken != failedToken {
		token := c.current.AccessToken
		c.mu.Unlock()
		log.Debug(ctx, LogStaleToken)
		c.metrics.Refresh(metrics.ResultStale)
		return token, nil
	}

	c.state = StateRefreshing
	cred := *c.current
	c.mu.Unlock()

	return c.refresh(ctx, log, cred)
}

// refresh выполняет единственный вызов обновления и раздает результат ожидающим.
func (c *Coordinator) refresh(ctx context.Context, log *logger.Logger, cred entities.Credential) (string, error) {
	log.Info(ctx, LogRefreshStarted)

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	next, err := c.refresher.Refresh(rctx, cred)
	if err == nil {
		if saveErr := c.store.Save(rctx, next); saveErr != nil {
			log.Warn(ctx, LogSaveFailed, zap.Error(saveErr))
		}
	}

	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.state = StateIdle
	c.loaded = true
	if err != nil {
		c.current = nil
	} else {
		c.current = &next
	}
	c.mu.Unlock()

	if err != nil {
		return "", c.fail(ctx, log, waiters, err)
	}

	log.Info(ctx, LogRefreshSucceeded, zap.Int("waiters", len(waiters)))
	c.metrics.Refresh(metrics.ResultSuccess)
	for _, ch := range waiters {
		ch <- outcome{token: next.AccessToken}
		c.metrics.Waiter(metrics.ResultSuccess)
	}
	return next.AccessToken, nil
}

func (c *Coordinator) fail(ctx context.Context, log *logger.Logger, waiters []chan outcome, cause error) error {
	log.Warn(ctx, LogRefreshFailed, zap.Error(cause), zap.Int("waiters", len(waiters)))
	c.metrics.Refresh(metrics.ResultFailure)

	err := fmt.Errorf("%s: %w: %w", ErrRefresh, domain.ErrSessionExpired, cause)
	for _, ch := range waiters {
		ch <- outcome{err: err}
		c.metrics.Waiter(metrics.ResultFailure)
	}

	if clearErr := c.store.Clear(context.WithoutCancel(ctx)); clearErr != nil {
		log.Error(ctx, LogClearFailed, zap.Error(clearErr))
	}
	if c.listener != nil {
		c.listener.OnSessionEnded(ctx, entities.SessionEvent{
			Reason:  entities.SessionRefreshFailed,
			Message: domain.SessionExpiredMessage,
			Err:     err,
		})
	}
	return err
}

// loadLocked лениво читает сессию из хранилища. Вызывается под c.mu.
func (c *Coordinator) loadLocked(ctx context.Context) {
	if c.loaded {
		return
	}
	cred, err := c.store.Load(ctx)
	if err != nil {
		logger.Log(ctx).Warn(ctx, LogLoadFailed, zap.Error(err))
		return
	}
	c.current = cred
	c.loaded = true
}
