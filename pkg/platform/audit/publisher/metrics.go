package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks audit publishing health. A nil *Metrics is a no-op so tests
// can skip registration.
type Metrics struct {
	eventsEmitted   prometheus.Counter
	persistFailures prometheus.Counter
	fanoutDropped   prometheus.Counter
	persistDuration prometheus.Histogram
}

// NewMetrics registers audit publisher metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		eventsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custos_audit_events_emitted_total",
			Help: "Total audit events successfully persisted",
		}),
		persistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custos_audit_persist_failures_total",
			Help: "Total audit persistence failures (fail-closed for decisions)",
		}),
		fanoutDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custos_audit_fanout_dropped_total",
			Help: "Total audit events dropped from the async fan-out stream",
		}),
		persistDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "custos_audit_persist_duration_seconds",
			Help:    "Duration of synchronous audit persistence",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}
}

func (m *Metrics) IncEventsEmitted() {
	if m != nil {
		m.eventsEmitted.Inc()
	}
}

func (m *Metrics) IncPersistFailures() {
	if m != nil {
		m.persistFailures.Inc()
	}
}

func (m *Metrics) IncFanoutDropped() {
	if m != nil {
		m.fanoutDropped.Inc()
	}
}

func (m *Metrics) ObservePersistDuration(seconds float64) {
	if m != nil {
		m.persistDuration.Observe(seconds)
	}
}
