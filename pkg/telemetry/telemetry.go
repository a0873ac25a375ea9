// Package telemetry exposes Prometheus metrics for the Ghost client,
// resilience layer and tool dispatch.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors for one process. Construct it once and
// share it between the MCP and HTTP servers.
type Metrics struct {
	registry *prometheus.Registry

	toolCalls     *prometheus.CounterVec
	toolErrors    *prometheus.CounterVec
	ghostRequests *prometheus.CounterVec
	retries       *prometheus.CounterVec
	breakerState  *prometheus.GaugeVec
}

// breaker state gauge values
const (
	gaugeClosed   = 0
	gaugeOpen     = 1
	gaugeHalfOpen = 2
)

// NewMetrics builds a Metrics instance on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	return &Metrics{
		registry: reg,
		toolCalls: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ghostmcp_tool_calls_total",
			Help: "MCP tool invocations by tool name.",
		}, []string{"tool"}),
		toolErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ghostmcp_tool_errors_total",
			Help: "Failed MCP tool invocations by tool name and error code.",
		}, []string{"tool", "code"}),
		ghostRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ghostmcp_ghost_requests_total",
			Help: "Ghost Admin API operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		retries: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ghostmcp_retries_total",
			Help: "Retry attempts by operation.",
		}, []string{"operation"}),
		breakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "ghostmcp_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 open, 2 half-open).",
		}, []string{"breaker"}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordToolCall counts one tool invocation.
func (m *Metrics) RecordToolCall(tool string) {
	m.toolCalls.WithLabelValues(tool).Inc()
}

// RecordToolError counts one failed tool invocation.
func (m *Metrics) RecordToolError(tool, code string) {
	m.toolErrors.WithLabelValues(tool, code).Inc()
}

// RecordGhostRequest counts one upstream operation with its outcome,
// "success" or "error".
func (m *Metrics) RecordGhostRequest(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.ghostRequests.WithLabelValues(operation, outcome).Inc()
}

// RecordRetry counts one retry attempt for an operation.
func (m *Metrics) RecordRetry(operation string) {
	m.retries.WithLabelValues(operation).Inc()
}

// SetBreakerState updates the state gauge for a named breaker.
func (m *Metrics) SetBreakerState(breaker, state string) {
	v := float64(gaugeClosed)
	switch state {
	case "OPEN":
		v = gaugeOpen
	case "HALF_OPEN":
		v = gaugeHalfOpen
	}
	m.breakerState.WithLabelValues(breaker).Set(v)
}
