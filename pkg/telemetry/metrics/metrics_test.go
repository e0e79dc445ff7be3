package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"z2api-hq/z2api/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	return NewCollector(config.MetricsConfig{Namespace: "z2api"}, prometheus.NewRegistry())
}

func TestPoolMetricsGauges(t *testing.T) {
	c := newTestCollector(t)

	c.Pool.SetPoolState(5, 2)

	if got := testutil.ToFloat64(c.Pool.size); got != 5 {
		t.Errorf("pool size gauge = %v, want 5", got)
	}
	if got := testutil.ToFloat64(c.Pool.failed); got != 2 {
		t.Errorf("pool failed gauge = %v, want 2", got)
	}
}

func TestPoolMetricsCounters(t *testing.T) {
	c := newTestCollector(t)

	c.Pool.RecordAcquire("hit")
	c.Pool.RecordAcquire("hit")
	c.Pool.RecordAcquire("empty")
	c.Pool.RecordRefresh(true)
	c.Pool.RecordRefresh(false)
	c.Pool.RecordEviction()
	c.Pool.RecordMark("failed")
	c.Pool.RecordProbe(true, 50*time.Millisecond)

	if got := testutil.ToFloat64(c.Pool.acquires.WithLabelValues("hit")); got != 2 {
		t.Errorf("acquires{hit} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.Pool.acquires.WithLabelValues("empty")); got != 1 {
		t.Errorf("acquires{empty} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.Pool.refreshes.WithLabelValues("success")); got != 1 {
		t.Errorf("refreshes{success} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.Pool.evictions); got != 1 {
		t.Errorf("evictions = %v, want 1", got)
	}
}

func TestNilPoolMetricsSafe(t *testing.T) {
	var pm *PoolMetrics

	// All recording methods must be no-ops on a nil receiver.
	pm.SetPoolState(1, 1)
	pm.RecordAcquire("hit")
	pm.RecordMark("failed")
	pm.RecordRefresh(true)
	pm.RecordEviction()
	pm.RecordProbe(false, time.Second)
}

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	c := newTestCollector(t)
	c.Pool.SetPoolState(3, 0)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("metrics endpoint status = %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "z2api_pool_size") {
		t.Errorf("metrics output missing z2api_pool_size:\n%s", body)
	}
}
