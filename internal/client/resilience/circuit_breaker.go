// Package resilience содержит механизмы отказоустойчивости вызовов API:
// повторные попытки с экспоненциальной задержкой и Circuit Breaker.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"fitsync/pkg/logger"
)

// CircuitState представляет состояние Circuit Breaker.
type CircuitState int

const (
	// StateClosed - вызовы проходят.
	StateClosed CircuitState = iota
	// StateOpen - вызовы отклоняются до истечения Timeout.
	StateOpen
	// StateHalfOpen - пробные вызовы.
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

const (
	LogCircuitStateChange = "circuit breaker state changed"
	LogCircuitReject      = "circuit breaker rejected call"
)

// ErrCircuitOpen возвращается, когда Circuit Breaker открыт.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig содержит настройки Circuit Breaker.
type CircuitBreakerConfig struct {
	// ErrorThreshold - число ошибок подряд до открытия.
	ErrorThreshold int
	// Timeout - время в открытом состоянии до пробного вызова.
	Timeout time.Duration
	// SuccessThreshold - число успешных пробных вызовов до закрытия.
	SuccessThreshold int
	// IsFailure решает, считается ли ошибка отказом. По умолчанию любая ошибка.
	IsFailure func(error) bool
}

// DefaultCircuitBreakerConfig возвращает конфигурацию по умолчанию.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		ErrorThreshold:   5,
		Timeout:          30 * time.Second,
		SuccessThreshold: 1,
	}
}

// CircuitBreaker реализует паттерн Circuit Breaker.
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig
	now    func() time.Time

	mu        sync.Mutex
	state     CircuitState
	failures  int
	successes int
	changedAt time.Time
}

// NewCircuitBreaker создает Circuit Breaker в закрытом состоянии.
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}
	return &CircuitBreaker{
		name:      name,
		config:    config,
		now:       time.Now,
		changedAt: time.Now(),
	}
}

// Execute выполняет fn, если Circuit Breaker пропускает вызов.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if !cb.Allow(ctx) {
		return ErrCircuitOpen
	}
	err := fn()
	cb.Record(ctx, err)
	return err
}

// Allow проверяет, можно ли выполнить вызов, и переводит открытый
// Circuit Breaker в полуоткрытое состояние по истечении Timeout.
func (cb *CircuitBreaker) Allow(ctx context.Context) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.changedAt) < cb.config.Timeout {
			logger.Log(ctx).Debug(ctx, LogCircuitReject, zap.String("circuit_breaker", cb.name))
			return false
		}
		cb.transition(ctx, StateHalfOpen)
		return true
	default:
		return true
	}
}

// Record учитывает результат вызова.
func (cb *CircuitBreaker) Record(ctx context.Context, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil && cb.config.IsFailure(err) {
		switch cb.state {
		case StateClosed:
			cb.failures++
			if cb.failures >= cb.config.ErrorThreshold {
				cb.transition(ctx, StateOpen)
			}
		case StateHalfOpen:
			cb.transition(ctx, StateOpen)
		}
		return
	}

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.transition(ctx, StateClosed)
		}
	}
}

// State возвращает текущее состояние.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) transition(ctx context.Context, next CircuitState) {
	logger.Log(ctx).Info(ctx, LogCircuitStateChange,
		zap.String("circuit_breaker", cb.name),
		zap.Stringer("from", cb.state),
		zap.Stringer("to", next))

	cb.state = next
	cb.changedAt = cb.now()
	cb.failures = 0
	cb.successes = 0
}
