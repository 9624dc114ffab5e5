package leaderboardmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the updater pipeline.
type Metrics struct {
	FetchAttempts *prometheus.CounterVec
	FetchFailures *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	CombinedRows  prometheus.Gauge
	UpdatesTotal  prometheus.Counter
}

// New registers and returns the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FetchAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leaderboard_fetch_attempts_total",
			Help: "Upstream fetches attempted, by source.",
		}, []string{"source"}),
		FetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leaderboard_fetch_failures_total",
			Help: "Upstream fetches that failed, by source.",
		}, []string{"source"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leaderboard_fetch_duration_seconds",
			Help:    "Upstream fetch latency, by source.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		CombinedRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "leaderboard_combined_rows",
			Help: "Rows in the most recently combined leaderboard.",
		}),
		UpdatesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "leaderboard_updates_total",
			Help: "Completed update passes.",
		}),
	}
}
