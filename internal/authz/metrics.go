package authz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects Prometheus metrics for authorization decisions.
type Metrics struct {
	decisions *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewMetrics registers decision metrics against the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_authz_decisions_total",
		Help: "Authorization decisions by outcome and deciding stage.",
	}, []string{"outcome", "stage"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "atlas_authz_evaluation_seconds",
		Help:    "Latency of policy evaluation per deciding stage.",
		Buckets: prometheus.ExponentialBuckets(0.000005, 4, 8),
	}, []string{"stage"})
	reg.MustRegister(decisions, duration)
	return &Metrics{decisions: decisions, duration: duration}
}

// RecordDecision records one evaluation outcome. Stage is "rbac" when the
// coarse gate rejected, "abac" when a rule matched and "default" for the
// default-deny path.
func (m *Metrics) RecordDecision(outcome, stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(outcome, stage).Inc()
	m.duration.WithLabelValues(stage).Observe(elapsed.Seconds())
}
