package entities

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"substrate/domain/graph"
)

type fakeEmbedder struct {
	score float64
	ok    bool
}

func (f fakeEmbedder) CosineSimilarity(ctx context.Context, a, b string) (float64, bool) {
	return f.score, f.ok
}

func normalizedConcept(name string) blockedConcept {
	return blockedConcept{NodeID: name, Name: name, Normalized: graph.NormalizeName(name)}
}

func TestStringSimilarity_IdenticalNamesScoreOne(t *testing.T) {
	a := normalizedConcept("Acme Corp")
	b := normalizedConcept("Acme Corp")
	require.Equal(t, 1.0, stringSimilarity(a, b))
}

func TestStringSimilarity_DissimilarNamesScoreLow(t *testing.T) {
	a := normalizedConcept("Acme Corp")
	b := normalizedConcept("Zebra Industries")
	require.Less(t, stringSimilarity(a, b), 0.6)
}

func TestHybridScore_NilEmbedderFallsBackToString(t *testing.T) {
	a := normalizedConcept("Acme Corp")
	b := normalizedConcept("Acme Corp")

	score, method := hybridScore(context.Background(), a, b, nil)
	require.Equal(t, graph.MergeMethodString, method)
	require.Equal(t, stringSimilarity(a, b), score)
}

func TestHybridScore_EmbedderUnavailableFallsBackToString(t *testing.T) {
	a := normalizedConcept("Acme Corp")
	b := normalizedConcept("Acme Co")

	score, method := hybridScore(context.Background(), a, b, fakeEmbedder{ok: false})
	require.Equal(t, graph.MergeMethodString, method)
	require.Equal(t, stringSimilarity(a, b), score)
}

func TestHybridScore_CombinesStringAndEmbeddingScores(t *testing.T) {
	a := normalizedConcept("Acme Corp")
	b := normalizedConcept("Acme Co")

	score, method := hybridScore(context.Background(), a, b, fakeEmbedder{score: 0.9, ok: true})
	require.Equal(t, graph.MergeMethodHybrid, method)
	want := 0.4*stringSimilarity(a, b) + 0.6*0.9
	require.InDelta(t, want, score, 1e-9)
}

func TestRationaleFor(t *testing.T) {
	require.Equal(t, "hybrid string+embedding similarity", rationaleFor(graph.MergeMethodHybrid, 0.9))
	require.Equal(t, "string similarity only (embeddings unavailable)", rationaleFor(graph.MergeMethodString, 0.9))
}
