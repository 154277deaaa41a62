// Package metrics provides Prometheus metrics for owslog record emission
// and delivery.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Record pipeline metrics
	RecordsEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "owslog_records_emitted_total",
			Help: "Total number of log records accepted for delivery",
		},
		[]string{"level"},
	)

	RecordsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "owslog_records_dropped_total",
			Help: "Total number of log records dropped before delivery",
		},
		[]string{"reason"}, // "below_level", "rate_limited"
	)

	SerializationFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "owslog_serialization_fallbacks_total",
			Help: "Total number of records degraded because an extra field was not JSON-serializable",
		},
	)

	ReservedKeyCollisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "owslog_reserved_key_collisions_total",
			Help: "Total number of caller extras dropped for colliding with a reserved payload key",
		},
		[]string{"key"},
	)

	// Delivery metrics
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "owslog_deliveries_total",
			Help: "Total number of delivery attempts",
		},
		[]string{"sink", "status"}, // status: "success", "failure"
	)

	DeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "owslog_delivery_duration_seconds",
			Help:    "Delivery attempt duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sink"},
	)
)

// RegisterMetrics ensures all metrics are registered with Prometheus.
// This function is idempotent and safe to call multiple times.
func RegisterMetrics() {
	// All metrics are automatically registered via promauto.
	// This function exists for explicit initialization if needed.
}
