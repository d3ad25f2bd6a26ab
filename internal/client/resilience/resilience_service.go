package resilience

import (
	"context"

	"go.uber.org/zap"

	"fitsync/pkg/logger"
)

// Policy объединяет Circuit Breaker и повторные попытки для одного вида вызовов.
type Policy struct {
	name    string
	breaker *CircuitBreaker
	retry   *Retry
}

// NewPolicy создает политику с заданными настройками.
func NewPolicy(name string, breaker CircuitBreakerConfig, retry RetryConfig) *Policy {
	return &Policy{
		name:    name,
		breaker: NewCircuitBreaker(name, breaker),
		retry:   NewRetry(name, retry),
	}
}

// Breaker возвращает Circuit Breaker политики.
func (p *Policy) Breaker() *CircuitBreaker {
	return p.breaker
}

// Call выполняет fn с повторными попытками под защитой Circuit Breaker.
func Call[T any](ctx context.Context, p *Policy, operation string, fn func() (T, error)) (T, error) {
	logger.Log(ctx).Debug(ctx, "executing call with resilience",
		zap.String("policy", p.name),
		zap.String("operation", operation))

	var result T
	err := p.breaker.Execute(ctx, func() error {
		return p.retry.Execute(ctx, func() error {
			var err error
			result, err = fn()
			return err
		})
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
