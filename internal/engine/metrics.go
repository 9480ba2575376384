package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the engine's Prometheus instruments. Pass a custom
// registry for tests; nil registers on the default one.
type Metrics struct {
	RunsTotal     *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	Anomalies     prometheus.Counter
	FraudAlerts   prometheus.Counter
}

// NewMetrics registers the engine instruments on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	auto := promauto.With(reg)
	return &Metrics{
		RunsTotal: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cfo",
			Subsystem: "engine",
			Name:      "runs_total",
			Help:      "Completed analysis runs by outcome.",
		}, []string{"outcome"}),
		StageDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cfo",
			Subsystem: "engine",
			Name:      "stage_duration_seconds",
			Help:      "Wall time per analysis stage.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"stage"}),
		Anomalies: auto.NewCounter(prometheus.CounterOpts{
			Namespace: "cfo",
			Subsystem: "engine",
			Name:      "anomalies_total",
			Help:      "Anomaly records emitted after merge.",
		}),
		FraudAlerts: auto.NewCounter(prometheus.CounterOpts{
			Namespace: "cfo",
			Subsystem: "engine",
			Name:      "fraud_alerts_total",
			Help:      "Fraud alerts emitted after dedup.",
		}),
	}
}
