package scrape

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the two-tier pipeline.
type Metrics struct {
	Registry         *prometheus.Registry
	AttemptsTotal    *prometheus.CounterVec
	EscalationsTotal prometheus.Counter
	ShellPagesTotal  prometheus.Counter
	ErrorsTotal      *prometheus.CounterVec
	ScrapeDuration   *prometheus.HistogramVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	attempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkpeek_attempts_total",
			Help: "Extraction attempts by tier.",
		},
		[]string{"tier"},
	)
	escalations := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "linkpeek_escalations_total",
			Help: "Static passes that yielded nothing and escalated to rendering.",
		},
	)
	shellPages := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "linkpeek_shell_pages_total",
			Help: "Escalated pages whose static markup looked like a script-rendered shell.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkpeek_errors_total",
			Help: "Per-URL failures by error code.",
		},
		[]string{"code"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linkpeek_scrape_duration_seconds",
			Help:    "Wall time per URL by final tier.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tier"},
	)

	registry.MustRegister(attempts, escalations, shellPages, errorsTotal, duration)

	return &Metrics{
		Registry:         registry,
		AttemptsTotal:    attempts,
		EscalationsTotal: escalations,
		ShellPagesTotal:  shellPages,
		ErrorsTotal:      errorsTotal,
		ScrapeDuration:   duration,
	}
}

// IncAttempt counts an attempt for the given tier ("static" or "rendered").
func (m *Metrics) IncAttempt(tier string) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(tier).Inc()
}

// IncEscalation counts an escalation; shell marks SPA-shell-looking markup.
func (m *Metrics) IncEscalation(shell bool) {
	if m == nil {
		return
	}
	m.EscalationsTotal.Inc()
	if shell {
		m.ShellPagesTotal.Inc()
	}
}

// IncError counts a per-URL failure by code.
func (m *Metrics) IncError(code string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(code).Inc()
}

// ObserveDuration records per-URL wall time for the tier that produced
// the final record.
func (m *Metrics) ObserveDuration(tier string, d time.Duration) {
	if m == nil {
		return
	}
	m.ScrapeDuration.WithLabelValues(tier).Observe(d.Seconds())
}
