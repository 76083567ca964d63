// Package metrics exposes the server's runtime counters and histograms
// (SPEC_FULL.md §5.11) via prometheus/client_golang. Grounded in the
// deleted teacher internal/metrics package's collector-registration
// style, rebuilt around the dispatcher/registry/connection events this
// core actually emits rather than the teacher's RTM-specific counters.
package metrics

// file: internal/metrics/metrics.go

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every collector the core registers. Build one per
// server instance via New and pass it to the components that report
// through it.
type Metrics struct {
	RequestsTotal          *prometheus.CounterVec
	ToolCallsTotal         *prometheus.CounterVec
	ActiveConnections      prometheus.Gauge
	DispatchDurationSeconds *prometheus.HistogramVec
}

// New builds and registers a Metrics bundle against registry. Passing
// prometheus.NewRegistry() (rather than the global DefaultRegisterer)
// keeps test instances isolated from one another.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcpcore",
			Name:      "requests_total",
			Help:      "Total JSON-RPC requests dispatched, by method.",
		}, []string{"method"}),
		ToolCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcpcore",
			Name:      "tool_calls_total",
			Help:      "Total tool invocations, by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mcpcore",
			Name:      "active_connections",
			Help:      "Number of currently open connections.",
		}),
		DispatchDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mcpcore",
			Name:      "dispatch_duration_seconds",
			Help:      "Dispatch latency in seconds, by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	registry.MustRegister(m.RequestsTotal, m.ToolCallsTotal, m.ActiveConnections, m.DispatchDurationSeconds)
	return m
}

// RecordToolCall observes one tools/call outcome ("ok" or "error").
func (m *Metrics) RecordToolCall(tool string, isError bool) {
	outcome := "ok"
	if isError {
		outcome = "error"
	}
	m.ToolCallsTotal.WithLabelValues(tool, outcome).Inc()
}

// ConnectionOpened increments the active-connection gauge.
func (m *Metrics) ConnectionOpened() {
	m.ActiveConnections.Inc()
}

// ConnectionClosed decrements the active-connection gauge.
func (m *Metrics) ConnectionClosed() {
	m.ActiveConnections.Dec()
}
