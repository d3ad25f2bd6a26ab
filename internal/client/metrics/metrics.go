// Package metrics содержит Prometheus метрики клиента API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fitsync"

// Результаты операций для меток.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultStale   = "stale"

	OutcomeDelivered = "delivered"
	OutcomeRejected  = "rejected"
	OutcomeOffline   = "offline"
)

// Metrics - набор коллекторов клиента. Нулевой указатель допустим: методы ничего не делают.
type Metrics struct {
	registry *prometheus.Registry

	refreshes  *prometheus.CounterVec
	waiters    *prometheus.CounterVec
	requests   *prometheus.CounterVec
	enqueued   prometheus.Counter
	replays    *prometheus.CounterVec
	queueDepth prometheus.Gauge
	drains     *prometheus.CounterVec
	reachable  prometheus.Gauge
}

// New создает метрики на собственном реестре.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "refreshes_total",
			Help:      "Token refresh calls by result.",
		}, []string{"result"}),
		waiters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "refresh_waiters_total",
			Help:      "Requests that waited for an in-flight refresh, by result.",
		}, []string{"result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "API requests by method and status class.",
		}, []string{"method", "status"}),
		enqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "enqueued_total",
			Help:      "Requests stored in the offline queue.",
		}),
		replays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "replays_total",
			Help:      "Offline queue replay attempts by outcome.",
		}, []string{"outcome"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Current number of requests in the offline queue.",
		}),
		drains: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "drains_total",
			Help:      "Drain runs by trigger.",
		}, []string{"trigger"}),
		reachable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "connectivity",
			Name:      "reachable",
			Help:      "1 when the backend is reachable.",
		}),
	}

	m.registry.MustRegister(
		m.refreshes, m.waiters, m.requests, m.enqueued,
		m.replays, m.queueDepth, m.drains, m.reachable,
	)
	return m
}

// Registry возвращает реестр для сбора или тестов.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler возвращает HTTP обработчик /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Refresh(result string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) Waiter(result string) {
	if m == nil {
		return
	}
	m.waiters.WithLabelValues(result).Inc()
}

func (m *Metrics) Request(method, status string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, status).Inc()
}

func (m *Metrics) Enqueued(depth int) {
	if m == nil {
		return
	}
	m.enqueued.Inc()
	m.queueDepth.Set(float64(depth))
}

func (m *Metrics) Replayed(outcome string, depth int) {
	if m == nil {
		return
	}
	m.replays.WithLabelValues(outcome).Inc()
	m.queueDepth.Set(float64(depth))
}

func (m *Metrics) Drain(trigger string) {
	if m == nil {
		return
	}
	m.drains.WithLabelValues(trigger).Inc()
}

func (m *Metrics) Reachable(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.reachable.Set(1)
		return
	}
	m.reachable.Set(0)
}
