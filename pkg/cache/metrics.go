package cache

import (
	"github.com/Sternrassler/emuready-client/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var factory = promauto.With(metrics.Registry)

var (
	// CacheHits tracks cache hits by procedure
	CacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpc_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"procedure"},
	)

	// CacheMisses tracks cache misses by procedure
	CacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpc_cache_misses_total",
			Help: "Total number of response cache misses",
		},
		[]string{"procedure"},
	)

	// CacheWrittenBytes tracks bytes written to Redis
	CacheWrittenBytes = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "rpc_cache_written_bytes_total",
			Help: "Total bytes written to the response cache",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpc_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "put", "delete", "purge"
	)
)
