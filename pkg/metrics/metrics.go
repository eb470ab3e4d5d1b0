// Package metrics tracks proxy-wide Prometheus metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks data-plane and storage Prometheus metrics.
//
// All metrics use the replayd_ prefix. A nil *Metrics is a valid no-op
// collector, so callers never need to branch on whether metrics are enabled.
type Metrics struct {
	// RequestsTotal counts data-plane requests by session mode and status
	RequestsTotal *prometheus.CounterVec

	// RequestDuration tracks data-plane latency distribution by mode
	RequestDuration *prometheus.HistogramVec

	// InteractionsStored counts captured interactions by store backend
	InteractionsStored *prometheus.CounterVec

	// MatcherMisses counts replay requests with no matching interaction
	MatcherMisses prometheus.Counter

	// UpstreamErrors counts failed upstream round-trips
	UpstreamErrors prometheus.Counter

	// SessionsActive tracks the current number of registered sessions
	SessionsActive prometheus.Gauge
}

// New creates proxy metrics registered on reg.
// Panics if registration fails (expected during initialization only).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "replayd_requests_total",
				Help: "Total data-plane requests by session mode and status code",
			},
			[]string{"mode", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "replayd_request_duration_seconds",
				Help:    "Data-plane request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		InteractionsStored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "replayd_interactions_stored_total",
				Help: "Total interactions captured, by store backend",
			},
			[]string{"store"},
		),
		MatcherMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "replayd_matcher_misses_total",
				Help: "Replay requests that matched no stored interaction",
			},
		),
		UpstreamErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "replayd_upstream_errors_total",
				Help: "Upstream round-trips that failed",
			},
		),
		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "replayd_sessions_active",
				Help: "Current number of registered sessions",
			},
		),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.InteractionsStored,
		m.MatcherMisses,
		m.UpstreamErrors,
		m.SessionsActive,
	)

	return m
}

// ObserveRequest records one finished data-plane request.
func (m *Metrics) ObserveRequest(mode string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(mode, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(mode).Observe(seconds)
}

// RecordInteractionStored counts one captured interaction.
func (m *Metrics) RecordInteractionStored(storeType string) {
	if m == nil {
		return
	}
	m.InteractionsStored.WithLabelValues(storeType).Inc()
}

// RecordMatcherMiss counts one replay miss.
func (m *Metrics) RecordMatcherMiss() {
	if m == nil {
		return
	}
	m.MatcherMisses.Inc()
}

// RecordUpstreamError counts one failed upstream round-trip.
func (m *Metrics) RecordUpstreamError() {
	if m == nil {
		return
	}
	m.UpstreamErrors.Inc()
}

// SetSessionsActive updates the registered-session gauge.
func (m *Metrics) SetSessionsActive(n int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(n))
}
