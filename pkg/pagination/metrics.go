package pagination

import (
	"github.com/Sternrassler/emuready-client/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var factory = promauto.With(metrics.Registry)

var (
	pageLoadsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "rpc_page_loads_total",
		Help: "Total page loads by endpoint and outcome (loaded or error kind)",
	}, []string{"endpoint", "outcome"})

	pageLoadDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rpc_page_load_duration_seconds",
		Help:    "Page load duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"endpoint"})

	pageLoadsInFlight = factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rpc_page_loads_in_flight",
		Help: "Page loads currently in the loading state by endpoint",
	}, []string{"endpoint"})
)
