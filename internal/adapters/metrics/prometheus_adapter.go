package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHitsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cache_hits_total",
			Help: "Number of cache hits, labeled by resource class.",
		},
		[]string{"resource"},
	)

	CacheMissesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cache_misses_total",
			Help: "Number of cache misses, labeled by resource class.",
		},
		[]string{"resource"},
	)

	CacheEvictionsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_cache_evictions_total",
			Help: "Number of expired cache entries swept by the janitor.",
		},
	)

	CacheInvalidationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cache_invalidations_total",
			Help: "Number of explicit cache invalidations after mutations, labeled by resource class.",
		},
		[]string{"resource"},
	)

	TokenRefreshCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_token_refreshes_total",
			Help: "Number of refresh-credential rotations, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	HTTPRequestsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "Number of HTTP requests, labeled by method and status class.",
		},
		[]string{"method", "status"},
	)

	ActiveNotifierConnectionsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_active_notifier_connections",
			Help: "Number of active update-notifier WebSocket connections.",
		},
	)
)

// IncrementCacheHit increments the cache hit counter for a resource class.
func IncrementCacheHit(resource string) {
	CacheHitsCounter.WithLabelValues(resource).Inc()
}

// IncrementCacheMiss increments the cache miss counter for a resource class.
func IncrementCacheMiss(resource string) {
	CacheMissesCounter.WithLabelValues(resource).Inc()
}

// AddCacheEvictions adds swept-entry counts from the cache janitor.
func AddCacheEvictions(n float64) {
	CacheEvictionsCounter.Add(n)
}

// IncrementCacheInvalidation increments the invalidation counter for a resource class.
func IncrementCacheInvalidation(resource string) {
	CacheInvalidationsCounter.WithLabelValues(resource).Inc()
}

// IncrementTokenRefresh increments the refresh counter with an outcome label
// ("success" or "failure").
func IncrementTokenRefresh(outcome string) {
	TokenRefreshCounter.WithLabelValues(outcome).Inc()
}

// IncrementActiveNotifierConnections increments the notifier connections gauge.
func IncrementActiveNotifierConnections() {
	ActiveNotifierConnectionsGauge.Inc()
}

// DecrementActiveNotifierConnections decrements the notifier connections gauge.
func DecrementActiveNotifierConnections() {
	ActiveNotifierConnectionsGauge.Dec()
}
