// Package metrics exposes Prometheus instrumentation for the sync layer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RemoteRequestDuration tracks latency of Taiga API calls.
	RemoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taiga_remote_request_duration_seconds",
			Help:    "Taiga API request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"operation", "status"},
	)

	// SyncUpserts counts records merged into the local store.
	SyncUpserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taiga_sync_upserts_total",
			Help: "Total records upserted into the local cache",
		},
		[]string{"entity"},
	)

	// SyncFallbacks counts syncs that served cached data after a remote failure.
	SyncFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taiga_sync_fallbacks_total",
			Help: "Total syncs that fell back to cached data",
		},
		[]string{"entity"},
	)
)

// ObserveRemoteRequest records one API call.
func ObserveRemoteRequest(operation, status string, duration time.Duration) {
	RemoteRequestDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// IncrementUpsert records one merged record.
func IncrementUpsert(entity string) {
	SyncUpserts.WithLabelValues(entity).Inc()
}

// IncrementFallback records one cache fallback.
func IncrementFallback(entity string) {
	SyncFallbacks.WithLabelValues(entity).Inc()
}
