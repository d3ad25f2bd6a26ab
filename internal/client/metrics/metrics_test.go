package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitsync/internal/client/metrics"
)

func TestNilMetricsAreNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.Refresh(metrics.ResultSuccess)
		m.Waiter(metrics.ResultFailure)
		m.Request("GET", "2xx")
		m.Enqueued(1)
		m.Replayed(metrics.OutcomeDelivered, 0)
		m.Drain("foreground")
		m.Reachable(true)
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := metrics.New()
	m.Refresh(metrics.ResultSuccess)
	m.Enqueued(3)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `fitsync_auth_refreshes_total{result="success"} 1`)
	assert.Contains(t, string(body), "fitsync_queue_depth 3")
}

func TestCollectorCount(t *testing.T) {
	m := metrics.New()
	m.Replayed(metrics.OutcomeOffline, 2)
	m.Drain("schedule")

	count, err := testutil.GatherAndCount(m.Registry(), "fitsync_queue_replays_total", "fitsync_queue_drains_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
