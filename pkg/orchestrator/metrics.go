package orchestrator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded on requests_total.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics are the prometheus collectors of an Orchestrator.
type Metrics struct {
	Requests       *prometheus.CounterVec
	Duration       *prometheus.HistogramVec
	Inflight       prometheus.Gauge
	RefreshSkipped prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cerberus",
				Name:      "requests_total",
				Help:      "Total number of requests sent to the semantics service",
			},
			[]string{"action", "outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cerberus",
				Name:      "request_duration_seconds",
				Help:      "Duration of requests to the semantics service",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		Inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cerberus",
			Name:      "inflight_requests",
			Help:      "Requests currently waiting for the semantics service",
		}),
		RefreshSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cerberus",
			Name:      "refresh_skipped_total",
			Help:      "Refreshes answered from cache because the view was clean",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.Duration, m.Inflight, m.RefreshSkipped)
	}
	return m
}

func (m *Metrics) observe(action, outcome string, elapsed time.Duration) {
	m.Requests.WithLabelValues(action, outcome).Inc()
	m.Duration.WithLabelValues(action).Observe(elapsed.Seconds())
}
