// Package metrics registers the Prometheus collectors for the API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)

	URLCreationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "url_creation_total",
			Help: "Total number of short URLs created",
		},
		[]string{"status"},
	)

	URLRedirectTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "url_redirect_total",
			Help: "Total number of redirect resolutions",
		},
		[]string{"status"},
	)

	CodeCollisionTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortcode_collision_total",
			Help: "Generated short codes that collided with an existing code",
		},
	)

	VisitRecordFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "visit_record_failures_total",
			Help: "Visit records that failed to persist",
		},
	)

	VisitQueueDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "visit_queue_dropped_total",
			Help: "Visit records dropped because the queue was full",
		},
	)

	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)
)

// RecordHTTPMetrics records metrics for a completed HTTP request.
func RecordHTTPMetrics(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
