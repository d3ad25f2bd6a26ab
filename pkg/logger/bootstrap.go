package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
)

// EnvironmentFromString разбирает режим логгера. Все, кроме production, считается development.
func EnvironmentFromString(mode string) Environment {
	if strings.EqualFold(strings.TrimSpace(mode), string(Production)) {
		return Production
	}
	return Development
}

// Bootstrap создает стартовый logger по переменным окружения modeEnv и levelEnv
// и делает его глобальным. Используется до загрузки конфигурации.
func Bootstrap(modeEnv, levelEnv string) (*Logger, error) {
	l, err := NewLogger(EnvironmentFromString(os.Getenv(modeEnv)), os.Getenv(levelEnv))
	if err != nil {
		return nil, fmt.Errorf("bootstrap logger: %w", err)
	}
	SetGlobalLogger(l)
	return l, nil
}

// SyncTo сбрасывает буферы и пишет ошибку в w. Ошибки sync для консоли
// (EINVAL, ENOTTY) игнорируются.
func (l *Logger) SyncTo(w io.Writer) {
	err := l.Sync()
	if err == nil || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return
	}
	_, _ = fmt.Fprintf(w, "failed to sync logger: %v\n", err)
}
