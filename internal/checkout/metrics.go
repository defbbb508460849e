package checkout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_submissions_total",
			Help: "Total number of checkout submissions by outcome",
		},
		[]string{"outcome"},
	)

	submitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storefront_checkout_submit_duration_seconds",
			Help:    "Duration of order submissions to the order API in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_checkout_sessions_active",
			Help: "Number of checkout sessions held in memory",
		},
	)
)
