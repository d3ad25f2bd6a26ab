package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"fitsync/internal/client/domain/entities"
	domain "fitsync/internal/client/domain/services"
	"fitsync/internal/client/ports/cache"
	"fitsync/internal/client/resilience"
	"fitsync/pkg/logger"
)

const (
	subscriptionStatusKey  = "subscription:status"
	subscriptionCheckedKey = "subscription:checked_at"

	DefaultSubscriptionPath     = "/api/v1/subscription/status"
	DefaultSubscriptionInterval = time.Hour

	LogSubscriptionCached  = "subscription status served from cache"
	LogSubscriptionChecked = "subscription status checked"
	LogCacheReadFailed     = "failed to read subscription cache"
	LogCacheWriteFailed    = "failed to write subscription cache"

	ErrCheckSubscription = "check subscription"
	ErrResetSubscription = "reset subscription cache"
)

// JSONGetter выполняет GET запрос и декодирует JSON ответ. Реализуется Client.
type JSONGetter interface {
	GetJSON(ctx context.Context, path string, out any) error
}

// SubscriptionChecker проверяет статус подписки не чаще заданного интервала.
// Время последней проверки и ее результат хранятся в кэше. Одновременные
// проверки объединяются в один сетевой запрос.
type SubscriptionChecker struct {
	api      JSONGetter
	cache    cache.Cache
	policy   *resilience.Policy
	path     string
	interval time.Duration
	now      func() time.Time

	flight singleflight.Group
	// generation растет при каждом Reset; результат запроса, начатого до Reset, не кэшируется.
	generation atomic.Uint64
}

// SubscriptionOption настраивает SubscriptionChecker.
type SubscriptionOption func(*SubscriptionChecker)

// WithSubscriptionPath задает путь эндпоинта статуса.
func WithSubscriptionPath(path string) SubscriptionOption {
	return func(s *SubscriptionChecker) {
		if path != "" {
			s.path = path
		}
	}
}

// WithCheckInterval задает минимальный интервал между проверками.
func WithCheckInterval(d time.Duration) SubscriptionOption {
	return func(s *SubscriptionChecker) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithSubscriptionPolicy задает политику повторов.
func WithSubscriptionPolicy(p *resilience.Policy) SubscriptionOption {
	return func(s *SubscriptionChecker) { s.policy = p }
}

// WithSubscriptionClock подменяет источник времени.
func WithSubscriptionClock(now func() time.Time) SubscriptionOption {
	return func(s *SubscriptionChecker) { s.now = now }
}

// NewSubscriptionChecker создает SubscriptionChecker.
func NewSubscriptionChecker(api JSONGetter, c cache.Cache, opts ...SubscriptionOption) *SubscriptionChecker {
	s := &SubscriptionChecker{
		api:      api,
		cache:    c,
		path:     DefaultSubscriptionPath,
		interval: DefaultSubscriptionInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.policy == nil {
		retry := resilience.DefaultRetryConfig()
		retry.ShouldRetry = isTransient
		breaker := resilience.DefaultCircuitBreakerConfig()
		breaker.IsFailure = isTransient
		s.policy = resilience.NewPolicy("subscription", breaker, retry)
	}
	return s
}

// Check возвращает статус подписки. Без force сетевой запрос выполняется, только
// если с последней проверки прошло не меньше интервала.
func (s *SubscriptionChecker) Check(ctx context.Context, force bool) (entities.SubscriptionStatus, error) {
	log := logger.Log(ctx).With(zap.String("component", "subscription"))

	if !force {
		if status, ok := s.cached(ctx, log); ok {
			log.Debug(ctx, LogSubscriptionCached, zap.String("status", string(status.State)))
			return status, nil
		}
	}

	v, err, _ := s.flight.Do(subscriptionStatusKey, func() (any, error) {
		return s.fetch(ctx, log)
	})
	if err != nil {
		return entities.SubscriptionStatus{}, fmt.Errorf("%s: %w", ErrCheckSubscription, err)
	}
	return v.(entities.SubscriptionStatus), nil
}

// Reset удаляет сохраненный статус, следующая проверка пойдет в сеть.
// Не ждет проверок в полете, поэтому безопасен из обработчика завершения сессии.
func (s *SubscriptionChecker) Reset(ctx context.Context) error {
	s.generation.Add(1)
	if err := s.cache.Delete(ctx, subscriptionStatusKey, subscriptionCheckedKey); err != nil {
		return fmt.Errorf("%s: %w", ErrResetSubscription, err)
	}
	return nil
}

func (s *SubscriptionChecker) fetch(ctx context.Context, log *logger.Logger) (entities.SubscriptionStatus, error) {
	gen := s.generation.Load()

	status, err := resilience.Call(ctx, s.policy, "check_subscription", func() (entities.SubscriptionStatus, error) {
		var st entities.SubscriptionStatus
		err := s.api.GetJSON(ctx, s.path, &st)
		return st, err
	})
	if err != nil {
		return entities.SubscriptionStatus{}, err
	}

	status.CheckedAt = s.now().UTC()
	if s.generation.Load() == gen {
		s.store(ctx, log, status)
	}

	log.Info(ctx, LogSubscriptionChecked,
		zap.String("status", string(status.State)),
		zap.Bool("access", status.HasAccess()))
	return status, nil
}

func (s *SubscriptionChecker) cached(ctx context.Context, log *logger.Logger) (entities.SubscriptionStatus, bool) {
	raw, err := s.cache.Get(ctx, subscriptionCheckedKey)
	if err != nil {
		log.Warn(ctx, LogCacheReadFailed, zap.Error(err))
		return entities.SubscriptionStatus{}, false
	}
	if raw == "" {
		return entities.SubscriptionStatus{}, false
	}
	checkedAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil || s.now().Sub(checkedAt) >= s.interval {
		return entities.SubscriptionStatus{}, false
	}

	data, err := s.cache.Get(ctx, subscriptionStatusKey)
	if err != nil {
		log.Warn(ctx, LogCacheReadFailed, zap.Error(err))
		return entities.SubscriptionStatus{}, false
	}
	var status entities.SubscriptionStatus
	if data == "" || json.Unmarshal([]byte(data), &status) != nil {
		return entities.SubscriptionStatus{}, false
	}
	return status, true
}

func (s *SubscriptionChecker) store(ctx context.Context, log *logger.Logger, status entities.SubscriptionStatus) {
	data, err := json.Marshal(status)
	if err != nil {
		log.Warn(ctx, LogCacheWriteFailed, zap.Error(err))
		return
	}
	err = errors.Join(
		s.cache.Set(ctx, subscriptionStatusKey, string(data), 0),
		s.cache.Set(ctx, subscriptionCheckedKey, status.CheckedAt.Format(time.RFC3339Nano), 0),
	)
	if err != nil {
		log.Warn(ctx, LogCacheWriteFailed, zap.Error(err))
	}
}

// isTransient - ошибки, после которых имеет смысл повторить вызов.
func isTransient(err error) bool {
	if domain.IsNoResponse(err) {
		return true
	}
	var respErr *domain.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode >= http.StatusInternalServerError
}
