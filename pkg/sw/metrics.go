package sw

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for lifecycle operations.
var (
	installsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nwbus_sw_installs_total",
		Help: "Install steps by result",
	}, []string{"result"}) // "success", "failure"

	installDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nwbus_sw_install_duration_seconds",
		Help:    "Duration of install steps in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	activationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nwbus_sw_activations_total",
		Help: "Activate steps by result",
	}, []string{"result"})

	regionsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nwbus_sw_regions_deleted_total",
		Help: "Stale cache regions deleted during activation",
	})

	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nwbus_sw_fetches_total",
		Help: "Intercepted requests by source",
	}, []string{"source"}) // "cache", "network"

	skipWaitingTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nwbus_sw_skip_waiting_total",
		Help: "Skip-waiting messages accepted",
	})
)
