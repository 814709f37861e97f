package observability

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PerformanceMetrics tracks in-process performance metrics for the graph
// engine: concept/relationship load times, retrieval plan latency, and
// ingestion throughput. These sit alongside the Prometheus Collector rather
// than replacing it — Collector exports counters scrapeable by an external
// system, this keeps a rolling in-memory window for slow-operation logging
// and ad-hoc stats queries (e.g. graphctl's status command).
type PerformanceMetrics struct {
	logger           *zap.Logger
	graphMetrics     *GraphMetrics
	retrievalMetrics *RetrievalMetrics
	ingestionMetrics *IngestionMetrics
	mu               sync.RWMutex
}

// GraphMetrics tracks per-GraphSpace size and concept load performance.
type GraphMetrics struct {
	ConceptLoadTimes     map[string][]time.Duration // concept label -> load times
	ConceptCounts        map[string][]int           // graph_id -> concept counts
	RelationshipCounts    map[string][]int           // graph_id -> relationship counts
	LastMeasured         time.Time
}

// RetrievalMetrics tracks retrieval plan execution.
type RetrievalMetrics struct {
	ExecutionTimes map[string][]time.Duration // intent -> execution times
	ResultSizes    map[string][]int           // intent -> result sizes
	CacheHits      int64
	CacheMisses    int64
	LastMeasured   time.Time
}

// IngestionMetrics tracks ingestion pipeline runs.
type IngestionMetrics struct {
	ExecutionTimes map[string][]time.Duration // artifact type -> execution times
	SuccessCount   map[string]int64           // artifact type -> success count
	FailureCount   map[string]int64           // artifact type -> failure count
	LastMeasured   time.Time
}

// NewPerformanceMetrics creates a new performance metrics tracker.
func NewPerformanceMetrics(logger *zap.Logger) *PerformanceMetrics {
	return &PerformanceMetrics{
		logger: logger,
		graphMetrics: &GraphMetrics{
			ConceptLoadTimes:   make(map[string][]time.Duration),
			ConceptCounts:      make(map[string][]int),
			RelationshipCounts: make(map[string][]int),
			LastMeasured:       time.Now(),
		},
		retrievalMetrics: &RetrievalMetrics{
			ExecutionTimes: make(map[string][]time.Duration),
			ResultSizes:    make(map[string][]int),
			LastMeasured:   time.Now(),
		},
		ingestionMetrics: &IngestionMetrics{
			ExecutionTimes: make(map[string][]time.Duration),
			SuccessCount:   make(map[string]int64),
			FailureCount:   make(map[string]int64),
			LastMeasured:   time.Now(),
		},
	}
}

const maxSamples = 100

// RecordConceptLoad records the time taken to load a concept (and its
// adjacent edges) by label.
func (m *PerformanceMetrics) RecordConceptLoad(conceptLabel string, loadTime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.graphMetrics.ConceptLoadTimes[conceptLabel]) >= maxSamples {
		m.graphMetrics.ConceptLoadTimes[conceptLabel] = m.graphMetrics.ConceptLoadTimes[conceptLabel][1:]
	}
	m.graphMetrics.ConceptLoadTimes[conceptLabel] = append(m.graphMetrics.ConceptLoadTimes[conceptLabel], loadTime)
	m.graphMetrics.LastMeasured = time.Now()

	if loadTime > 100*time.Millisecond {
		m.logger.Warn("slow concept load",
			zap.String("concept_label", conceptLabel),
			zap.Duration("load_time", loadTime),
		)
	}
}

// RecordGraphSize records the concept/relationship count of a GraphSpace.
func (m *PerformanceMetrics) RecordGraphSize(graphID string, conceptCount, relationshipCount int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.graphMetrics.ConceptCounts[graphID]) >= maxSamples {
		m.graphMetrics.ConceptCounts[graphID] = m.graphMetrics.ConceptCounts[graphID][1:]
	}
	m.graphMetrics.ConceptCounts[graphID] = append(m.graphMetrics.ConceptCounts[graphID], conceptCount)

	if len(m.graphMetrics.RelationshipCounts[graphID]) >= maxSamples {
		m.graphMetrics.RelationshipCounts[graphID] = m.graphMetrics.RelationshipCounts[graphID][1:]
	}
	m.graphMetrics.RelationshipCounts[graphID] = append(m.graphMetrics.RelationshipCounts[graphID], relationshipCount)

	if conceptCount > 10000 || relationshipCount > 50000 {
		m.logger.Warn("large graph",
			zap.String("graph_id", graphID),
			zap.Int("concept_count", conceptCount),
			zap.Int("relationship_count", relationshipCount),
		)
	}
}

// RecordRetrieval records one retrieval plan execution.
func (m *PerformanceMetrics) RecordRetrieval(intent string, executionTime time.Duration, resultSize int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.retrievalMetrics.ExecutionTimes[intent]) >= maxSamples {
		m.retrievalMetrics.ExecutionTimes[intent] = m.retrievalMetrics.ExecutionTimes[intent][1:]
	}
	m.retrievalMetrics.ExecutionTimes[intent] = append(m.retrievalMetrics.ExecutionTimes[intent], executionTime)

	if len(m.retrievalMetrics.ResultSizes[intent]) >= maxSamples {
		m.retrievalMetrics.ResultSizes[intent] = m.retrievalMetrics.ResultSizes[intent][1:]
	}
	m.retrievalMetrics.ResultSizes[intent] = append(m.retrievalMetrics.ResultSizes[intent], resultSize)
	m.retrievalMetrics.LastMeasured = time.Now()

	if executionTime > 200*time.Millisecond {
		m.logger.Warn("slow retrieval",
			zap.String("intent", intent),
			zap.Duration("execution_time", executionTime),
			zap.Int("result_size", resultSize),
		)
	}
}

// RecordEmbeddingCacheHit records an embedding-index cache hit.
func (m *PerformanceMetrics) RecordEmbeddingCacheHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retrievalMetrics.CacheHits++
}

// RecordEmbeddingCacheMiss records an embedding-index cache miss.
func (m *PerformanceMetrics) RecordEmbeddingCacheMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retrievalMetrics.CacheMisses++
}

// RecordIngestion records one ingestion pipeline run.
func (m *PerformanceMetrics) RecordIngestion(ctx context.Context, artifactType string, executionTime time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.ingestionMetrics.ExecutionTimes[artifactType]) >= maxSamples {
		m.ingestionMetrics.ExecutionTimes[artifactType] = m.ingestionMetrics.ExecutionTimes[artifactType][1:]
	}
	m.ingestionMetrics.ExecutionTimes[artifactType] = append(m.ingestionMetrics.ExecutionTimes[artifactType], executionTime)

	if err != nil {
		m.ingestionMetrics.FailureCount[artifactType]++
		m.logger.Error("ingestion run failed",
			zap.String("artifact_type", artifactType),
			zap.Duration("execution_time", executionTime),
			zap.Error(err),
		)
	} else {
		m.ingestionMetrics.SuccessCount[artifactType]++
	}
	m.ingestionMetrics.LastMeasured = time.Now()

	if executionTime > 500*time.Millisecond {
		m.logger.Warn("slow ingestion run",
			zap.String("artifact_type", artifactType),
			zap.Duration("execution_time", executionTime),
			zap.Bool("success", err == nil),
		)
	}
}

// GraphStats summarizes load performance for one concept label.
type GraphStats struct {
	AverageLoadTime time.Duration
	MaxLoadTime     time.Duration
	MinLoadTime     time.Duration
	SampleCount     int
}

// RetrievalStats summarizes execution stats for one retrieval intent.
type RetrievalStats struct {
	AverageExecutionTime time.Duration
	MaxExecutionTime     time.Duration
	MinExecutionTime     time.Duration
	AverageResultSize    int
	CacheHitRate         float64
	SampleCount          int
}

// IngestionStats summarizes execution stats for one artifact type.
type IngestionStats struct {
	AverageExecutionTime time.Duration
	MaxExecutionTime     time.Duration
	MinExecutionTime     time.Duration
	SuccessRate          float64
	SuccessCount         int64
	FailureCount         int64
	SampleCount          int
}

// SizeStats summarizes concept/relationship counts for one GraphSpace.
type SizeStats struct {
	AverageConceptCount      int
	MaxConceptCount          int
	CurrentConceptCount      int
	AverageRelationshipCount int
	MaxRelationshipCount     int
	CurrentRelationshipCount int
	SampleCount              int
}

// GetGraphStats returns load-time statistics for one concept label.
func (m *PerformanceMetrics) GetGraphStats(conceptLabel string) GraphStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	loadTimes := m.graphMetrics.ConceptLoadTimes[conceptLabel]
	if len(loadTimes) == 0 {
		return GraphStats{}
	}
	return GraphStats{
		AverageLoadTime: calculateAverageDuration(loadTimes),
		MaxLoadTime:     calculateMaxDuration(loadTimes),
		MinLoadTime:     calculateMinDuration(loadTimes),
		SampleCount:     len(loadTimes),
	}
}

// GetRetrievalStats returns statistics for one retrieval intent.
func (m *PerformanceMetrics) GetRetrievalStats(intent string) RetrievalStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	executionTimes := m.retrievalMetrics.ExecutionTimes[intent]
	resultSizes := m.retrievalMetrics.ResultSizes[intent]
	if len(executionTimes) == 0 {
		return RetrievalStats{}
	}

	cacheHitRate := float64(0)
	if m.retrievalMetrics.CacheHits+m.retrievalMetrics.CacheMisses > 0 {
		cacheHitRate = float64(m.retrievalMetrics.CacheHits) / float64(m.retrievalMetrics.CacheHits+m.retrievalMetrics.CacheMisses)
	}

	return RetrievalStats{
		AverageExecutionTime: calculateAverageDuration(executionTimes),
		MaxExecutionTime:     calculateMaxDuration(executionTimes),
		MinExecutionTime:     calculateMinDuration(executionTimes),
		AverageResultSize:    calculateAverageInt(resultSizes),
		CacheHitRate:         cacheHitRate,
		SampleCount:          len(executionTimes),
	}
}

// GetIngestionStats returns statistics for one artifact type.
func (m *PerformanceMetrics) GetIngestionStats(artifactType string) IngestionStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	executionTimes := m.ingestionMetrics.ExecutionTimes[artifactType]
	successCount := m.ingestionMetrics.SuccessCount[artifactType]
	failureCount := m.ingestionMetrics.FailureCount[artifactType]
	if len(executionTimes) == 0 {
		return IngestionStats{}
	}

	successRate := float64(0)
	if successCount+failureCount > 0 {
		successRate = float64(successCount) / float64(successCount+failureCount)
	}

	return IngestionStats{
		AverageExecutionTime: calculateAverageDuration(executionTimes),
		MaxExecutionTime:     calculateMaxDuration(executionTimes),
		MinExecutionTime:     calculateMinDuration(executionTimes),
		SuccessRate:          successRate,
		SuccessCount:         successCount,
		FailureCount:         failureCount,
		SampleCount:          len(executionTimes),
	}
}

// GetSizeStats returns concept/relationship size statistics for one
// GraphSpace.
func (m *PerformanceMetrics) GetSizeStats(graphID string) SizeStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conceptCounts := m.graphMetrics.ConceptCounts[graphID]
	relCounts := m.graphMetrics.RelationshipCounts[graphID]
	if len(conceptCounts) == 0 {
		return SizeStats{}
	}

	return SizeStats{
		AverageConceptCount:      calculateAverageInt(conceptCounts),
		MaxConceptCount:          calculateMaxInt(conceptCounts),
		CurrentConceptCount:      conceptCounts[len(conceptCounts)-1],
		AverageRelationshipCount: calculateAverageInt(relCounts),
		MaxRelationshipCount:     calculateMaxInt(relCounts),
		CurrentRelationshipCount: relCounts[len(relCounts)-1],
		SampleCount:              len(conceptCounts),
	}
}

// ReportMetrics logs a summary of every tracked dimension. graphctl's status
// command reads GetSizeStats instead and does not call it.
func (m *PerformanceMetrics) ReportMetrics() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	m.logger.Info("performance metrics report",
		zap.Time("graph_last_measured", m.graphMetrics.LastMeasured),
		zap.Time("retrieval_last_measured", m.retrievalMetrics.LastMeasured),
		zap.Time("ingestion_last_measured", m.ingestionMetrics.LastMeasured),
		zap.Int64("embedding_cache_hits", m.retrievalMetrics.CacheHits),
		zap.Int64("embedding_cache_misses", m.retrievalMetrics.CacheMisses),
	)

	for conceptLabel := range m.graphMetrics.ConceptLoadTimes {
		stats := m.GetGraphStats(conceptLabel)
		m.logger.Info("concept load performance",
			zap.String("concept_label", conceptLabel),
			zap.Duration("avg_load_time", stats.AverageLoadTime),
		)
	}

	for intent := range m.retrievalMetrics.ExecutionTimes {
		stats := m.GetRetrievalStats(intent)
		m.logger.Info("retrieval performance",
			zap.String("intent", intent),
			zap.Duration("avg_execution_time", stats.AverageExecutionTime),
			zap.Float64("cache_hit_rate", stats.CacheHitRate),
		)
	}

	for artifactType := range m.ingestionMetrics.ExecutionTimes {
		stats := m.GetIngestionStats(artifactType)
		m.logger.Info("ingestion performance",
			zap.String("artifact_type", artifactType),
			zap.Duration("avg_execution_time", stats.AverageExecutionTime),
			zap.Float64("success_rate", stats.SuccessRate),
		)
	}
}

func calculateAverageDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range durations {
		sum += d
	}
	return sum / time.Duration(len(durations))
}

func calculateMaxDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	max := durations[0]
	for _, d := range durations[1:] {
		if d > max {
			max = d
		}
	}
	return max
}

func calculateMinDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	min := durations[0]
	for _, d := range durations[1:] {
		if d < min {
			min = d
		}
	}
	return min
}

func calculateAverageInt(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return sum / len(values)
}

func calculateMaxInt(values []int) int {
	if len(values) == 0 {
		return 0
	}
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}
