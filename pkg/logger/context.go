package logger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	ErrLoggerNotFound   = errors.New("logger not found in context")
	ErrInitGlobalLogger = errors.New("failed to initialize global logger")
)

var (
	globalMu sync.RWMutex
	global   *Logger
	fallback = newFallback()
)

type ctxKey struct{}

// newFallback создает резервный logger уровня warn, который используется,
// пока глобальный logger не инициализирован.
func newFallback() *Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	zl, err := cfg.Build()
	if err != nil {
		return NewNop()
	}
	return &Logger{l: zl.With(zap.String("logger", "fallback"))}
}

// NewContext кладет logger в контекст.
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext извлекает logger из контекста.
func FromContext(ctx context.Context) (*Logger, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context validation: %w", ErrLoggerNotFound)
	}
	l, ok := ctx.Value(ctxKey{}).(*Logger)
	if !ok || l == nil {
		return nil, fmt.Errorf("logger lookup: %w", ErrLoggerNotFound)
	}
	return l, nil
}

// InitGlobalLogger инициализирует глобальный logger, если он еще не задан.
func InitGlobalLogger(env Environment, level string) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global != nil {
		return nil
	}

	l, err := NewLogger(env, level)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInitGlobalLogger, err)
	}
	global = l
	return nil
}

// SetGlobalLogger заменяет глобальный logger. nil сбрасывает его.
func SetGlobalLogger(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = l
}

// Log возвращает logger из контекста, затем глобальный, затем резервный.
func Log(ctx context.Context) *Logger {
	if l, err := FromContext(ctx); err == nil {
		return l
	}

	globalMu.RLock()
	defer globalMu.RUnlock()
	if global != nil {
		return global
	}
	return fallback
}
