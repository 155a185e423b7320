package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_request_duration_seconds",
			Help:    "Search request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.15, 0.2, 0.5, 1, 2.5},
		},
		[]string{"path", "status"},
	)

	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Total number of search requests",
		},
		[]string{"path", "status"},
	)

	SpellCorrectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_spell_corrections_total",
			Help: "Spelling correction attempts after zero-result searches",
		},
		[]string{"outcome"},
	)

	SuggestionSourceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suggestion_source_errors_total",
			Help: "Suggestion sources skipped due to per-source errors",
		},
		[]string{"source"},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_cache_hits_total",
			Help: "Total number of Redis cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_cache_misses_total",
			Help: "Total number of Redis cache misses",
		},
	)

	CatalogSnapshotSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_snapshot_items",
			Help: "Number of items in the in-memory catalog snapshot",
		},
	)

	CatalogSyncEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_sync_events_total",
			Help: "Catalog change events applied to the snapshot",
		},
		[]string{"operation", "status"},
	)

	CatalogLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_load_duration_seconds",
			Help:    "Firestore catalog load duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"status"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	SlowQueryCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slow_query_total",
			Help: "Total number of slow queries",
		},
		[]string{"severity", "query_type"},
	)
)
