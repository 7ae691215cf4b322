package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the course service.
// Metrics are organized by subsystem: place searches, collection, curation,
// generation, cache, and circuit breaker. All counters and histograms are
// registered via promauto for automatic registration with the default
// Prometheus registry.
//
// A nil *Metrics is valid: all Record* methods become no-ops, which keeps
// components testable without touching the global registry.
type Metrics struct {
	// SearchRequestsTotal counts HTTP requests to the place search API, labeled by region and keyword.
	SearchRequestsTotal *prometheus.CounterVec

	// SearchRequestsFailed counts failed place search requests, labeled by region and error type.
	SearchRequestsFailed *prometheus.CounterVec

	// SearchRequestDuration observes place search request duration in seconds.
	SearchRequestDuration prometheus.Histogram

	// PlacesCollected counts unique places stored during collection, labeled by region.
	PlacesCollected *prometheus.CounterVec

	// PlacesDuplicate counts duplicates skipped during collection, labeled by region.
	PlacesDuplicate *prometheus.CounterVec

	// CollectionRunsTotal counts collection batch runs by outcome.
	CollectionRunsTotal *prometheus.CounterVec

	// PlacesCurated counts places successfully curated by the LLM.
	PlacesCurated prometheus.Counter

	// CurationFallbacks counts places that received the default curation.
	CurationFallbacks prometheus.Counter

	// CurationDuration observes single-place curation duration in seconds.
	CurationDuration prometheus.Histogram

	// GenerationsTotal counts course generation requests, labeled by outcome (llm, fallback, error).
	GenerationsTotal *prometheus.CounterVec

	// GenerationDuration observes end-to-end generation duration in seconds.
	GenerationDuration prometheus.Histogram

	// CacheHits counts generation cache hits.
	CacheHits prometheus.Counter

	// CacheMisses counts generation cache misses.
	CacheMisses prometheus.Counter

	// BreakerTransitions counts circuit breaker state transitions, labeled by from and to state.
	BreakerTransitions *prometheus.CounterVec

	// LLMRequestsTotal counts LLM API requests, labeled by operation.
	LLMRequestsTotal *prometheus.CounterVec

	// LLMRequestsFailed counts failed LLM API requests, labeled by operation and error type.
	LLMRequestsFailed *prometheus.CounterVec

	// LLMTokensUsed counts tokens consumed by LLM operations, labeled by operation and token type.
	LLMTokensUsed *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Place search
		SearchRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of place search API requests",
		}, []string{"region", "keyword"}),
		SearchRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_failed_total",
			Help:      "Total number of failed place search API requests",
		}, []string{"region", "error_type"}),
		SearchRequestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_request_duration_seconds",
			Help:      "Duration of place search API requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		// Collection
		PlacesCollected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "places_collected_total",
			Help:      "Total number of unique places stored during collection",
		}, []string{"region"}),
		PlacesDuplicate: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "places_duplicate_total",
			Help:      "Total number of duplicate places skipped during collection",
		}, []string{"region"}),
		CollectionRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_runs_total",
			Help:      "Total number of collection batch runs by outcome",
		}, []string{"outcome"}),

		// Curation
		PlacesCurated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "places_curated_total",
			Help:      "Total number of places curated by the LLM",
		}),
		CurationFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "curation_fallbacks_total",
			Help:      "Total number of places that received the default curation",
		}),
		CurationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "curation_duration_seconds",
			Help:      "Duration of single-place curation in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),

		// Generation
		GenerationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of course generation requests by outcome",
		}, []string{"outcome"}),
		GenerationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Duration of course generation in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),

		// Cache
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of generation cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of generation cache misses",
		}),

		// Circuit breaker
		BreakerTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transitions_total",
			Help:      "Total number of circuit breaker state transitions",
		}, []string{"from", "to"}),

		// LLM
		LLMRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests by operation",
		}, []string{"operation"}),
		LLMRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_failed_total",
			Help:      "Total number of failed LLM requests by operation",
		}, []string{"operation", "error_type"}),
		LLMTokensUsed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_used_total",
			Help:      "Total number of tokens used by LLM operations",
		}, []string{"operation", "token_type"}),
	}
}

// RecordSearchRequest records a place search API request.
func (m *Metrics) RecordSearchRequest(region, keyword string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.SearchRequestsTotal.WithLabelValues(region, keyword).Inc()
	m.SearchRequestDuration.Observe(durationSeconds)
}

// RecordSearchRequestFailed records a failed place search API request.
func (m *Metrics) RecordSearchRequestFailed(region, errorType string) {
	if m == nil {
		return
	}
	m.SearchRequestsFailed.WithLabelValues(region, errorType).Inc()
}

// RecordPlacesCollected records unique places stored for a region.
func (m *Metrics) RecordPlacesCollected(region string, count int) {
	if m == nil {
		return
	}
	m.PlacesCollected.WithLabelValues(region).Add(float64(count))
}

// RecordPlacesDuplicate records duplicates skipped for a region.
func (m *Metrics) RecordPlacesDuplicate(region string, count int) {
	if m == nil {
		return
	}
	m.PlacesDuplicate.WithLabelValues(region).Add(float64(count))
}

// RecordCollectionRun records a completed collection batch run.
func (m *Metrics) RecordCollectionRun(outcome string) {
	if m == nil {
		return
	}
	m.CollectionRunsTotal.WithLabelValues(outcome).Inc()
}

// RecordPlaceCurated records a successful LLM curation.
func (m *Metrics) RecordPlaceCurated(durationSeconds float64) {
	if m == nil {
		return
	}
	m.PlacesCurated.Inc()
	m.CurationDuration.Observe(durationSeconds)
}

// RecordCurationFallback records a place that received the default curation.
func (m *Metrics) RecordCurationFallback() {
	if m == nil {
		return
	}
	m.CurationFallbacks.Inc()
}

// RecordGeneration records a course generation request by outcome.
func (m *Metrics) RecordGeneration(outcome string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.GenerationsTotal.WithLabelValues(outcome).Inc()
	m.GenerationDuration.Observe(durationSeconds)
}

// RecordCacheHit records a generation cache hit.
func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

// RecordCacheMiss records a generation cache miss.
func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}

// RecordBreakerTransition records a circuit breaker state change.
func (m *Metrics) RecordBreakerTransition(from, to string) {
	if m == nil {
		return
	}
	m.BreakerTransitions.WithLabelValues(from, to).Inc()
}

// RecordLLMRequest records an LLM request.
func (m *Metrics) RecordLLMRequest(operation string, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(operation).Inc()
	m.LLMTokensUsed.WithLabelValues(operation, "input").Add(float64(inputTokens))
	m.LLMTokensUsed.WithLabelValues(operation, "output").Add(float64(outputTokens))
}

// RecordLLMRequestFailed records a failed LLM request.
func (m *Metrics) RecordLLMRequestFailed(operation, errorType string) {
	if m == nil {
		return
	}
	m.LLMRequestsFailed.WithLabelValues(operation, errorType).Inc()
}
