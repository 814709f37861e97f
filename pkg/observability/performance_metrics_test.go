package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRecordConceptLoad_AccumulatesStats(t *testing.T) {
	m := NewPerformanceMetrics(zap.NewNop())
	m.RecordConceptLoad("Concept", 10*time.Millisecond)
	m.RecordConceptLoad("Concept", 30*time.Millisecond)

	stats := m.GetGraphStats("Concept")
	require.Equal(t, 2, stats.SampleCount)
	require.Equal(t, 20*time.Millisecond, stats.AverageLoadTime)
	require.Equal(t, 30*time.Millisecond, stats.MaxLoadTime)
	require.Equal(t, 10*time.Millisecond, stats.MinLoadTime)
}

func TestGetGraphStats_UnknownLabelIsZeroValue(t *testing.T) {
	m := NewPerformanceMetrics(zap.NewNop())
	require.Equal(t, GraphStats{}, m.GetGraphStats("nothing-recorded"))
}

func TestRecordConceptLoad_CapsRollingWindowAtMaxSamples(t *testing.T) {
	m := NewPerformanceMetrics(zap.NewNop())
	for i := 0; i < maxSamples+10; i++ {
		m.RecordConceptLoad("Concept", time.Duration(i)*time.Millisecond)
	}
	stats := m.GetGraphStats("Concept")
	require.Equal(t, maxSamples, stats.SampleCount)
}

func TestRecordGraphSize_TracksCurrentAndMax(t *testing.T) {
	m := NewPerformanceMetrics(zap.NewNop())
	m.RecordGraphSize("g1", 10, 5)
	m.RecordGraphSize("g1", 20, 8)

	stats := m.GetSizeStats("g1")
	require.Equal(t, 20, stats.CurrentConceptCount)
	require.Equal(t, 20, stats.MaxConceptCount)
	require.Equal(t, 8, stats.CurrentRelationshipCount)
}

func TestRecordRetrieval_TracksCacheHitRate(t *testing.T) {
	m := NewPerformanceMetrics(zap.NewNop())
	m.RecordRetrieval("concept_lookup", 5*time.Millisecond, 3)
	m.RecordEmbeddingCacheHit()
	m.RecordEmbeddingCacheHit()
	m.RecordEmbeddingCacheMiss()

	stats := m.GetRetrievalStats("concept_lookup")
	require.Equal(t, 1, stats.SampleCount)
	require.InDelta(t, 2.0/3.0, stats.CacheHitRate, 1e-9)
}

func TestRecordIngestion_TracksSuccessAndFailureRate(t *testing.T) {
	m := NewPerformanceMetrics(zap.NewNop())
	m.RecordIngestion(nil, "WEB", 10*time.Millisecond, nil)
	m.RecordIngestion(nil, "WEB", 10*time.Millisecond, errors.New("boom"))

	stats := m.GetIngestionStats("WEB")
	require.Equal(t, int64(1), stats.SuccessCount)
	require.Equal(t, int64(1), stats.FailureCount)
	require.InDelta(t, 0.5, stats.SuccessRate, 1e-9)
}

func TestGetSizeStats_UnknownGraphIsZeroValue(t *testing.T) {
	m := NewPerformanceMetrics(zap.NewNop())
	require.Equal(t, SizeStats{}, m.GetSizeStats("nothing-recorded"))
}

func TestCalculateAverageDuration_Empty(t *testing.T) {
	require.Equal(t, time.Duration(0), calculateAverageDuration(nil))
}

func TestCalculateAverageInt_Empty(t *testing.T) {
	require.Equal(t, 0, calculateAverageInt(nil))
}
