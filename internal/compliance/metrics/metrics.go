package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the compliance engine.
type Metrics struct {
	// Decisions by outcome and reason code name
	Decisions *prometheus.CounterVec

	// Full transfer evaluation latency including snapshot assembly
	EvaluateLatency prometheus.Histogram
}

// New creates a Metrics instance with all compliance metrics registered.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custos_compliance_decisions_total",
			Help: "Total transfer decisions by outcome and reason",
		}, []string{"outcome", "reason"}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "custos_compliance_evaluate_duration_seconds",
			Help:    "Duration of transfer evaluation including state snapshot assembly",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}
}

// IncrementDecision records one decision outcome.
func (m *Metrics) IncrementDecision(allowed bool, reason string) {
	if m != nil {
		outcome := "denied"
		if allowed {
			outcome = "allowed"
		}
		m.Decisions.WithLabelValues(outcome, reason).Inc()
	}
}

// ObserveEvaluateLatency records the total evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
