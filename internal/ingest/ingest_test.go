package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"substrate/domain/graph"
	"substrate/internal/snapshots"
)

func TestSourceTypeFor(t *testing.T) {
	require.Equal(t, snapshots.SourceEDGAR, sourceTypeFor(graph.ArtifactFinance))
	require.Equal(t, snapshots.SourceWeb, sourceTypeFor(graph.ArtifactWeb))
	require.Equal(t, snapshots.SourceWeb, sourceTypeFor(graph.ArtifactPDF))
}

func TestHostOf(t *testing.T) {
	require.Equal(t, "example.com", hostOf("https://Example.com/path?q=1"))
	require.Equal(t, "sub.example.com", hostOf("http://sub.example.com"))
	require.Equal(t, "", hostOf("not-a-url"))
}

func TestContains(t *testing.T) {
	require.True(t, contains([]string{"a", "b"}, "b"))
	require.False(t, contains([]string{"a", "b"}, "c"))
	require.False(t, contains(nil, "a"))
}

func TestBoolMeta(t *testing.T) {
	m := map[string]any{"flag": true, "wrong": "true"}
	require.True(t, boolMeta(m, "flag"))
	require.False(t, boolMeta(m, "wrong"))
	require.False(t, boolMeta(m, "missing"))
}

func TestStringMeta(t *testing.T) {
	m := map[string]any{"name": "x", "wrong": 1}
	require.Equal(t, "x", stringMeta(m, "name"))
	require.Equal(t, "", stringMeta(m, "wrong"))
	require.Equal(t, "", stringMeta(m, "missing"))
}

func TestDeriveQuoteSuffix_IsDeterministicAndBounded(t *testing.T) {
	a := deriveQuoteSuffix("artifact-1", 0, "anchor", "text")
	b := deriveQuoteSuffix("artifact-1", 0, "anchor", "text")
	c := deriveQuoteSuffix("artifact-1", 1, "anchor", "text")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.LessOrEqual(t, len(a), 16)
}

func TestNewID_IncludesPrefix(t *testing.T) {
	id := newID("chunk", 3)
	require.Contains(t, id, "chunk")
}
