package metrics

import (
	"z2api-hq/z2api/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the Prometheus registry and all metric subsystems. One
// collector is constructed at startup and handed to the pool and the HTTP
// layer; a nil *Collector is valid everywhere and records nothing, so
// metrics can be disabled without branching at every call site.
type Collector struct {
	registry *prometheus.Registry

	Pool    *PoolMetrics
	Request *RequestMetrics
}

// NewCollector creates a collector with all subsystems registered. If
// registry is nil a fresh private registry is used.
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "z2api"
	}

	return &Collector{
		registry: registry,
		Pool:     NewPoolMetrics(cfg, registry),
		Request:  NewRequestMetrics(cfg, registry),
	}
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}
