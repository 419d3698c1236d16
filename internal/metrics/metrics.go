// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidtube_http_requests_total",
			Help: "Total number of HTTP requests by route, method and status class",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidtube_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// MediaOperations counts delegate calls by operation (upload, delete) and outcome.
	MediaOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidtube_media_operations_total",
			Help: "Total number of media delegate operations",
		},
		[]string{"operation", "outcome"},
	)

	MediaBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vidtube_media_breaker_state",
			Help: "Media delegate circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	JanitorQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidtube_janitor_queue_depth",
			Help: "Orphaned assets waiting for deletion",
		},
	)

	JanitorDeletes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidtube_janitor_deletes_total",
			Help: "Orphaned asset deletions by outcome",
		},
		[]string{"outcome"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidtube_operation_duration_seconds",
			Help:    "Duration of traced service operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StatsCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidtube_stats_cache_lookups_total",
			Help: "Channel stats cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	ToggleRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidtube_toggle_retries_total",
			Help: "Toggle attempts retried after a concurrent write",
		},
		[]string{"relation"},
	)
)
