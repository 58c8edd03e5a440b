package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by backend (redis, memory)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nwbus_cache_hits_total",
			Help: "Total number of cache region hits",
		},
		[]string{"backend"},
	)

	// CacheMisses tracks cache misses by backend
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nwbus_cache_misses_total",
			Help: "Total number of cache region misses",
		},
		[]string{"backend"},
	)

	// CacheWrittenBytes counts bytes written to cache regions by backend
	CacheWrittenBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nwbus_cache_written_bytes_total",
			Help: "Total bytes written to cache regions",
		},
		[]string{"backend"},
	)

	// CacheErrors tracks storage operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nwbus_cache_errors_total",
			Help: "Total number of cache storage errors",
		},
		[]string{"operation"}, // "open", "keys", "get", "put", "delete"
	)
)
