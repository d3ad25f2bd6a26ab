// Package shutdown реализует корректное завершение агента: ожидание сигнала
// SIGINT/SIGTERM или отмены контекста и выполнение хуков с ограничением по времени.
package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"fitsync/pkg/logger"
)

const (
	LogShutdownStarted = "shutdown started"
	LogHookFailed      = "shutdown hook failed"
	LogShutdownTimeout = "shutdown timed out"
)

// Hook - действие, выполняемое при завершении.
type Hook func(context.Context) error

// Wait блокируется до сигнала SIGINT/SIGTERM или отмены ctx, затем параллельно
// выполняет хуки. Возвращает объединенную ошибку хуков или context.DeadlineExceeded,
// если хуки не уложились в timeout.
func Wait(ctx context.Context, timeout time.Duration, hooks ...Hook) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	return Run(context.WithoutCancel(ctx), timeout, hooks...)
}

// Run выполняет хуки параллельно в рамках timeout.
func Run(ctx context.Context, timeout time.Duration, hooks ...Hook) error {
	log := logger.Log(ctx)
	log.Info(ctx, LogShutdownStarted, zap.Int("hooks", len(hooks)), zap.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, hook := range hooks {
		wg.Add(1)
		go func(fn Hook) {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				log.Warn(ctx, LogHookFailed, zap.Error(err))
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(hook)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		mu.Lock()
		defer mu.Unlock()
		return errors.Join(errs...)
	case <-ctx.Done():
		log.Error(ctx, LogShutdownTimeout)
		return context.DeadlineExceeded
	}
}
