package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds every Prometheus metric the service exports.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	ConceptsCreated      prometheus.Counter
	RelationshipsCreated prometheus.Counter
	MergesExecuted       prometheus.Counter

	StoreOperations *prometheus.CounterVec
	StoreDuration   *prometheus.HistogramVec

	RetrievalQueries *prometheus.CounterVec
	RetrievalLatency *prometheus.HistogramVec

	EmbeddingCacheHits   prometheus.Counter
	EmbeddingCacheMisses prometheus.Counter
}

// NewCollector creates (or returns the existing singleton) metrics
// collector for namespace.
func NewCollector(namespace string) *Collector {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests"},
		[]string{"method", "route", "status"},
	)
	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request duration", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)
	conceptsCreated := prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "concepts_created_total", Help: "Total concepts created"},
	)
	relationshipsCreated := prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "relationships_created_total", Help: "Total relationships created"},
	)
	mergesExecuted := prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "merges_executed_total", Help: "Total concept merges executed"},
	)
	storeOperations := prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "store_operations_total", Help: "Total graph store operations"},
		[]string{"operation", "status"},
	)
	storeDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "store_operation_duration_seconds", Help: "Graph store operation duration", Buckets: prometheus.DefBuckets},
		[]string{"operation"},
	)
	retrievalQueries := prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "retrieval_queries_total", Help: "Total retrieval queries"},
		[]string{"intent", "status"},
	)
	retrievalLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "retrieval_query_duration_seconds", Help: "Retrieval query duration", Buckets: prometheus.DefBuckets},
		[]string{"intent"},
	)
	embeddingCacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "embedding_cache_hits_total", Help: "Total embedding index cache hits"},
	)
	embeddingCacheMisses := prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "embedding_cache_misses_total", Help: "Total embedding index cache misses"},
	)

	registry.MustRegister(
		httpRequests, httpDuration,
		conceptsCreated, relationshipsCreated, mergesExecuted,
		storeOperations, storeDuration,
		retrievalQueries, retrievalLatency,
		embeddingCacheHits, embeddingCacheMisses,
	)

	globalCollector = &Collector{
		registry:             registry,
		HTTPRequests:         httpRequests,
		HTTPDuration:         httpDuration,
		ConceptsCreated:      conceptsCreated,
		RelationshipsCreated: relationshipsCreated,
		MergesExecuted:       mergesExecuted,
		StoreOperations:      storeOperations,
		StoreDuration:        storeDuration,
		RetrievalQueries:     retrievalQueries,
		RetrievalLatency:     retrievalLatency,
		EmbeddingCacheHits:   embeddingCacheHits,
		EmbeddingCacheMisses: embeddingCacheMisses,
	}
	return globalCollector
}

// ResetForTesting resets the global collector so package tests can create a
// fresh registry without duplicate-registration panics.
func ResetForTesting() {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()
	globalCollector = nil
}

// GetRegistry returns the Prometheus registry backing this collector, for
// mounting on a /metrics handler.
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}
