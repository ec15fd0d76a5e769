package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestCounter counts HTTP requests by status code, method, and path
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ctf_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"status", "method", "path"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ctf_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status", "method", "path"},
	)

	// FlagSubmissions counts flag attempts by outcome
	FlagSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ctf_flag_submissions_total",
			Help: "Total number of flag submissions by outcome",
		},
		[]string{"result"},
	)

	// StoreOperationDuration measures key-value store operations
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ctf_store_operation_duration_seconds",
			Help:    "Store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "key"},
	)

	// StoreConflicts counts optimistic write retries
	StoreConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ctf_store_version_conflicts_total",
			Help: "Compare-and-set conflicts observed by the store",
		},
		[]string{"key"},
	)

	// RealtimeClients tracks connected solve-feed websockets
	RealtimeClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ctf_realtime_clients",
			Help: "Number of connected solve feed clients",
		},
	)
)

// RecordStoreOperation records the duration of a store operation
func RecordStoreOperation(operation string, key string, startTime time.Time) {
	StoreOperationDuration.WithLabelValues(operation, key).Observe(time.Since(startTime).Seconds())
}
