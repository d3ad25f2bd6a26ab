// Package connectivity отслеживает доступность сервера API.
package connectivity

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"fitsync/internal/client/domain/entities"
	"fitsync/internal/client/metrics"
	"fitsync/internal/client/ports/services"
	"fitsync/internal/client/resilience"
	"fitsync/pkg/logger"
)

const (
	DefaultInterval = 10 * time.Second
	DefaultTimeout  = 3 * time.Second

	LogReachabilityChanged = "backend reachability changed"
	LogProbeFailed         = "health probe got no response"
	LogProbeSuppressed     = "health probe suppressed by circuit breaker"
	LogMonitorStarted      = "connectivity monitor started"
	LogMonitorStopped      = "connectivity monitor stopped"

	ErrBuildProbe = "build health probe"
)

// Listener получает изменения доступности. Реализуется app.Syncer.
type Listener interface {
	OnReachabilityChanged(ctx context.Context, reachable bool)
}

// Monitor периодически опрашивает health эндпоинт. Любой HTTP ответ означает
// доступность сервера, отсутствие ответа означает недоступность.
type Monitor struct {
	doer     services.Doer
	url      string
	network  string
	interval time.Duration
	timeout  time.Duration
	breaker  *resilience.CircuitBreaker
	metrics  *metrics.Metrics

	mu        sync.RWMutex
	known     bool
	reachable bool
	listeners []Listener
}

// Option настраивает Monitor.
type Option func(*Monitor)

// WithInterval задает период опроса.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithTimeout задает таймаут одного опроса.
func WithTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithNetworkType задает тип сети, сообщаемый при доступном сервере.
func WithNetworkType(network string) Option {
	return func(m *Monitor) { m.network = network }
}

// WithMetrics подключает метрики.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Monitor) { m.metrics = mt }
}

// WithBreaker задает настройки Circuit Breaker опросов.
func WithBreaker(cfg resilience.CircuitBreakerConfig) Option {
	return func(m *Monitor) { m.breaker = resilience.NewCircuitBreaker("health-probe", cfg) }
}

// NewMonitor создает монитор для health URL.
func NewMonitor(doer services.Doer, healthURL string, opts ...Option) *Monitor {
	m := &Monitor{
		doer:     doer,
		url:      healthURL,
		network:  entities.NetworkWiFi,
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.breaker == nil {
		cfg := resilience.DefaultCircuitBreakerConfig()
		cfg.ErrorThreshold = 3
		cfg.Timeout = 3 * m.interval
		m.breaker = resilience.NewCircuitBreaker("health-probe", cfg)
	}
	return m
}

// Subscribe добавляет слушателя изменений доступности.
func (m *Monitor) Subscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Reachable сообщает последний известный результат. До первого опроса сервер
// считается доступным.
func (m *Monitor) Reachable() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.known || m.reachable
}

// NetworkType возвращает тип сети для заголовка X-Network-Type.
func (m *Monitor) NetworkType() string {
	if !m.Reachable() {
		return entities.NetworkNone
	}
	return m.network
}

// Probe выполняет один опрос и уведомляет слушателей при смене состояния.
func (m *Monitor) Probe(ctx context.Context) bool {
	reachable := m.probe(ctx)
	m.update(ctx, reachable)
	return reachable
}

// Run опрашивает сервер до отмены ctx.
func (m *Monitor) Run(ctx context.Context) error {
	log := logger.Log(ctx).With(zap.String("component", "connectivity"))
	log.Info(ctx, LogMonitorStarted, zap.String("url", m.url), zap.Duration("interval", m.interval))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info(ctx, LogMonitorStopped)
			return nil
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) bool {
	log := logger.Log(ctx).With(zap.String("component", "connectivity"))

	if !m.breaker.Allow(ctx) {
		log.Debug(ctx, LogProbeSuppressed)
		return false
	}

	err := m.get(ctx)
	m.breaker.Record(ctx, err)
	if err != nil {
		log.Debug(ctx, LogProbeFailed, zap.Error(err))
		return false
	}
	return true
}

func (m *Monitor) get(ctx context.Context) error {
	pctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(pctx, http.MethodGet, m.url, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrBuildProbe, err)
	}
	resp, err := m.doer.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (m *Monitor) update(ctx context.Context, reachable bool) {
	m.mu.Lock()
	changed := !m.known || m.reachable != reachable
	m.known = true
	m.reachable = reachable
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	m.metrics.Reachable(reachable)
	if !changed {
		return
	}

	logger.Log(ctx).Info(ctx, LogReachabilityChanged,
		zap.Bool("reachable", reachable),
		zap.String("network", m.NetworkType()))
	for _, l := range listeners {
		l.OnReachabilityChanged(ctx, reachable)
	}
}
