// Package metrics defines the Prometheus collectors exported by the bridge.
//
// A nil *Metrics is valid and records nothing, so components can be used without metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "agentcore"

// Outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeToolError = "tool_error"
	OutcomeError     = "error"
)

// Metrics groups the bridge collectors on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	exchanges   *prometheus.CounterVec
	toolCalls   *prometheus.CounterVec
	credentials *prometheus.CounterVec
	respond     *prometheus.HistogramVec
}

// New creates and registers the collectors.
func New() *Metrics {
	ret := &Metrics{
		registry: prometheus.NewRegistry(),
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_exchanges_total",
			Help:      "JSON-RPC exchanges sent to the tool server by method and outcome.",
		}, []string{"method", "outcome"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool invocations requested by the dispatch loop by tool and outcome.",
		}, []string{"tool", "outcome"}),
		credentials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credential_acquisitions_total",
			Help:      "OAuth2 client-credentials exchanges by outcome.",
		}, []string{"outcome"}),
		respond: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "respond_duration_seconds",
			Help:      "Latency of prompt responses.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"outcome"}),
	}
	ret.registry.MustRegister(ret.exchanges, ret.toolCalls, ret.credentials, ret.respond)
	return ret
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns the HTTP handler exposing the collectors.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Exchange records one JSON-RPC exchange.
func (m *Metrics) Exchange(method, outcome string) {
	if m == nil {
		return
	}
	m.exchanges.WithLabelValues(method, outcome).Inc()
}

// ToolCall records one tool invocation.
func (m *Metrics) ToolCall(tool, outcome string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
}

// Credential records one credential acquisition.
func (m *Metrics) Credential(outcome string) {
	if m == nil {
		return
	}
	m.credentials.WithLabelValues(outcome).Inc()
}

// Respond records the latency of one prompt response.
func (m *Metrics) Respond(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.respond.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
