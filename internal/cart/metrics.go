package cart

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Total number of cart mutations by operation and result",
		},
		[]string{"op", "result"},
	)

	corruptSlotsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_cart_corrupt_slots_total",
			Help: "Total number of cart slots that failed to decode and were read as empty",
		},
	)
)
