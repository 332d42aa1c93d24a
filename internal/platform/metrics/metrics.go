package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the orchestrator. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   prometheus.Counter
	errorsTotal     prometheus.Counter
	sessionsCreated prometheus.Counter
	submissions     prometheus.Counter
	verdicts        *prometheus.CounterVec
	factsRevealed   prometheus.Counter
	playbackErrors  *prometheus.CounterVec
	activeSessions  prometheus.Gauge
}

// New creates and registers Prometheus metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "popup_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "popup_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "popup_sessions_created_total",
			Help: "Total number of playback sessions opened",
		}),
		submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "popup_submissions_total",
			Help: "Total number of video identifiers submitted",
		}),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "popup_verdicts_total",
			Help: "Generation verdicts by classification outcome",
		}, []string{"outcome"}),
		factsRevealed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "popup_facts_revealed_total",
			Help: "Total number of facts shown in the overlay",
		}),
		playbackErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "popup_session_errors_total",
			Help: "Sessions that entered the error state, by kind",
		}, []string{"kind"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "popup_active_sessions",
			Help: "Number of sessions generating or playing",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.sessionsCreated,
		m.submissions,
		m.verdicts,
		m.factsRevealed,
		m.playbackErrors,
		m.activeSessions,
	)
	return m
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	if m != nil {
		m.requestsTotal.Inc()
	}
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	if m != nil {
		m.errorsTotal.Inc()
	}
}

// IncSessionsCreated counts one opened session.
func (m *Metrics) IncSessionsCreated() {
	if m != nil {
		m.sessionsCreated.Inc()
	}
}

// IncSubmissions counts one submitted identifier.
func (m *Metrics) IncSubmissions() {
	if m != nil {
		m.submissions.Inc()
	}
}

// IncVerdict counts one classified verdict.
func (m *Metrics) IncVerdict(outcome string) {
	if m != nil {
		m.verdicts.WithLabelValues(outcome).Inc()
	}
}

// IncFactsRevealed counts one fact shown in the overlay.
func (m *Metrics) IncFactsRevealed() {
	if m != nil {
		m.factsRevealed.Inc()
	}
}

// IncSessionErrors counts a session entering the error state.
func (m *Metrics) IncSessionErrors(kind string) {
	if m != nil {
		m.playbackErrors.WithLabelValues(kind).Inc()
	}
}

// SetActiveSessions sets the active sessions gauge.
func (m *Metrics) SetActiveSessions(n int) {
	if m != nil {
		m.activeSessions.Set(float64(n))
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
