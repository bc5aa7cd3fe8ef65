// Package metrics provides Prometheus metrics for the image gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookups counts local cache lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loqed",
			Name:      "image_cache_lookups_total",
			Help:      "Local image cache lookups by result",
		},
		[]string{"result"},
	)

	// CacheWriteFailures counts cache writes that failed and were skipped.
	CacheWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loqed",
			Name:      "image_cache_write_failures_total",
			Help:      "Cache writes that failed, by operation",
		},
		[]string{"operation"},
	)

	// TokensRejected counts capability tokens that failed validation.
	TokensRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "loqed",
			Name:      "image_tokens_rejected_total",
			Help:      "Capability tokens rejected as invalid or expired",
		},
	)

	// ImagesIngested counts images normalized and stored.
	ImagesIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "loqed",
			Name:      "images_ingested_total",
			Help:      "Images normalized and written to the content store",
		},
	)

	// OrphanCleanupFailures counts old blobs that could not be removed after a replace or delete.
	OrphanCleanupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "loqed",
			Name:      "image_cleanup_failures_total",
			Help:      "Old image blobs or cache entries that could not be removed",
		},
	)
)

// RecordCacheLookup records a cache lookup result.
func RecordCacheLookup(result string) {
	CacheLookups.WithLabelValues(result).Inc()
}

// RecordCacheWriteFailure records a skipped cache write.
func RecordCacheWriteFailure(operation string) {
	CacheWriteFailures.WithLabelValues(operation).Inc()
}
