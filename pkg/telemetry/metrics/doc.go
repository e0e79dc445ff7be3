// Package metrics provides Prometheus instrumentation for the proxy: pool
// rotation and recovery metrics, inbound request metrics, and the /metrics
// HTTP handler. All recording methods are safe on nil receivers so callers
// never need to branch on whether metrics are enabled.
package metrics
