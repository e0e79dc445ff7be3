package metrics

import (
	"time"

	"z2api-hq/z2api/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// PoolMetrics tracks credential pool health and rotation behavior.
//
// Metrics:
//   - z2api_pool_size: Current number of pool entries
//   - z2api_pool_failed: Current number of entries marked failed
//   - z2api_pool_acquires_total: Acquire calls by outcome
//   - z2api_pool_marks_total: Failure feedback by kind
//   - z2api_pool_refreshes_total: Refresh attempts by outcome
//   - z2api_pool_evictions_total: Permanent evictions
//   - z2api_pool_probe_duration_seconds: Health probe latency by outcome
type PoolMetrics struct {
	size     prometheus.Gauge
	failed   prometheus.Gauge
	acquires *prometheus.CounterVec
	marks    *prometheus.CounterVec

	refreshes *prometheus.CounterVec
	evictions prometheus.Counter

	probeDuration *prometheus.HistogramVec
}

// NewPoolMetrics creates and registers pool metrics with the provided registry.
func NewPoolMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *PoolMetrics {
	pm := &PoolMetrics{
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "pool",
			Name:      "size",
			Help:      "Current number of credential pool entries",
		}),

		failed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "pool",
			Name:      "failed",
			Help:      "Current number of entries marked failed",
		}),

		acquires: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "pool",
				Name:      "acquires_total",
				Help:      "Credential acquisitions by outcome (hit, exhausted_reset, empty)",
			},
			[]string{"outcome"},
		),

		marks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "pool",
				Name:      "marks_total",
				Help:      "Failure feedback calls by kind (failed, success, unresolved)",
			},
			[]string{"kind"},
		),

		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "pool",
				Name:      "refreshes_total",
				Help:      "Credential refresh attempts by outcome (success, failure)",
			},
			[]string{"outcome"},
		),

		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "pool",
			Name:      "evictions_total",
			Help:      "Credentials permanently evicted after failed recovery",
		}),

		probeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "pool",
				Name:      "probe_duration_seconds",
				Help:      "Health probe latency by outcome (ok, failed)",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		pm.size,
		pm.failed,
		pm.acquires,
		pm.marks,
		pm.refreshes,
		pm.evictions,
		pm.probeDuration,
	)

	return pm
}

// SetPoolState updates the size and failed gauges.
func (pm *PoolMetrics) SetPoolState(size, failed int) {
	if pm == nil {
		return
	}
	pm.size.Set(float64(size))
	pm.failed.Set(float64(failed))
}

// RecordAcquire records an acquire call outcome.
func (pm *PoolMetrics) RecordAcquire(outcome string) {
	if pm == nil {
		return
	}
	pm.acquires.WithLabelValues(outcome).Inc()
}

// RecordMark records a mark-failed/mark-success call.
func (pm *PoolMetrics) RecordMark(kind string) {
	if pm == nil {
		return
	}
	pm.marks.WithLabelValues(kind).Inc()
}

// RecordRefresh records a refresh attempt outcome.
func (pm *PoolMetrics) RecordRefresh(success bool) {
	if pm == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	pm.refreshes.WithLabelValues(outcome).Inc()
}

// RecordEviction records a permanent eviction.
func (pm *PoolMetrics) RecordEviction() {
	if pm == nil {
		return
	}
	pm.evictions.Inc()
}

// RecordProbe records a health probe duration and outcome.
func (pm *PoolMetrics) RecordProbe(ok bool, duration time.Duration) {
	if pm == nil {
		return
	}
	outcome := "failed"
	if ok {
		outcome = "ok"
	}
	pm.probeDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
