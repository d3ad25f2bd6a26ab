package resilience

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fitsync/pkg/logger"
)

// RetryConfig содержит настройки повторных попыток.
type RetryConfig struct {
	// MaxAttempts - максимальное количество попыток, включая первую.
	MaxAttempts int
	// InitialBackoff - задержка перед второй попыткой.
	InitialBackoff time.Duration
	// MaxBackoff - верхняя граница задержки.
	MaxBackoff time.Duration
	// BackoffFactor - множитель экспоненциальной задержки.
	BackoffFactor float64
	// ShouldRetry решает, повторять ли вызов после ошибки.
	ShouldRetry func(error) bool
}

// DefaultRetryConfig возвращает конфигурацию по умолчанию.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		BackoffFactor:  2.0,
		ShouldRetry:    func(error) bool { return true },
	}
}

const (
	LogRetryAttempt     = "retry attempt"
	LogRetryMaxAttempts = "retry max attempts reached"
)

// Retry выполняет функцию с повторными попытками.
type Retry struct {
	name   string
	config RetryConfig
}

// NewRetry создает Retry.
func NewRetry(name string, config RetryConfig) *Retry {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.ShouldRetry == nil {
		config.ShouldRetry = func(error) bool { return true }
	}
	return &Retry{name: name, config: config}
}

// Execute вызывает operation, пока она не завершится успешно, ошибка не станет
// неповторяемой или не закончатся попытки. Отмена ctx прерывает ожидание.
func (r *Retry) Execute(ctx context.Context, operation func() error) error {
	log := logger.Log(ctx).With(zap.String("retry", r.name))
	backoff := r.config.InitialBackoff

	var err error
	for attempt := 1; ; attempt++ {
		err = operation()
		if err == nil || !r.config.ShouldRetry(err) {
			return err
		}
		if attempt >= r.config.MaxAttempts {
			log.Warn(ctx, LogRetryMaxAttempts, zap.Int("attempts", attempt), zap.Error(err))
			return err
		}

		log.Debug(ctx, LogRetryAttempt,
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry %s: %w", r.name, ctx.Err())
		}

		backoff = time.Duration(float64(backoff) * r.config.BackoffFactor)
		if backoff > r.config.MaxBackoff {
			backoff = r.config.MaxBackoff
		}
	}
}
