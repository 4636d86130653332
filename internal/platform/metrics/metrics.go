// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP surface.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitallab_api_requests_total",
			Help: "Total number of API requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vitallab_api_request_duration_seconds",
			Help:    "API request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIRateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vitallab_api_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter.",
		},
	)

	APIPanics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitallab_api_panics_total",
			Help: "Handler panics recovered, by route.",
		},
		[]string{"route"},
	)

	APIRequestTimeouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitallab_api_request_timeouts_total",
			Help: "Requests answered with 504 after the request deadline, by route.",
		},
		[]string{"route"},
	)

	// Remote data source.
	RemoteFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitallab_remote_fetches_total",
			Help: "Remote CSV fetches by resource kind and result.",
		},
		[]string{"kind", "result"},
	)

	RemoteFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vitallab_remote_fetch_duration_seconds",
			Help:    "Remote CSV fetch latency in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vitallab_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitallab_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions.",
		},
		[]string{"name", "from", "to"},
	)

	// Synchronization.
	SyncItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitallab_sync_items_total",
			Help: "Synchronized items by entity and result.",
		},
		[]string{"entity", "result"},
	)

	SyncPoints = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vitallab_sync_track_points_total",
			Help: "Track data points written by track synchronization.",
		},
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vitallab_sync_duration_seconds",
			Help:    "Duration of a full synchronization run.",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 3600},
		},
		[]string{"entity"},
	)

	// Caches.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitallab_cache_lookups_total",
			Help: "Cache lookups by cache name and result (hit or miss).",
		},
		[]string{"cache", "result"},
	)
)
