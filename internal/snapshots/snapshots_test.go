package snapshots

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"substrate/domain/graph"
)

func TestClassifyEdit_SmallDeltaIsMinor(t *testing.T) {
	require.Equal(t, graph.ChangeMinorEdit, classifyEdit("hello world", "hello worlds"))
}

func TestClassifyEdit_LargeDeltaIsMajor(t *testing.T) {
	require.Equal(t, graph.ChangeMajorEdit, classifyEdit("hello", strings.Repeat("hello world ", 10)))
}

func TestClassifyEdit_BothEmptyIsMinor(t *testing.T) {
	require.Equal(t, graph.ChangeMinorEdit, classifyEdit("", ""))
}

func TestSeverityFor_AmendmentIsAlwaysHigh(t *testing.T) {
	require.Equal(t, "HIGH", severityFor(graph.ChangeAmendment, "a", strings.Repeat("a", 100)))
	require.Equal(t, "HIGH", severityFor(graph.ChangeAmendment, "same", "same"))
}

func TestSeverityFor_MinorEditIsLow(t *testing.T) {
	require.Equal(t, "LOW", severityFor(graph.ChangeMinorEdit, "hello world", "hello worlds"))
}

func TestSeverityFor_MajorEditIsHigh(t *testing.T) {
	require.Equal(t, "HIGH", severityFor(graph.ChangeMinorEdit, "hi", strings.Repeat("hi there ", 10)))
}

func TestDiffSummaryFor_NoPriorSnapshotIsNewDocument(t *testing.T) {
	require.Equal(t, "New document", diffSummaryFor(graph.ChangeMinorEdit, ""))
}

func TestDiffSummaryFor_AmendmentSupersedes(t *testing.T) {
	require.Equal(t, "Amendment supersedes prior content", diffSummaryFor(graph.ChangeAmendment, "prior-1"))
}

func TestDiffSummaryFor_EditIsContentUpdated(t *testing.T) {
	require.Equal(t, "Content updated", diffSummaryFor(graph.ChangeMinorEdit, "prior-1"))
}

func TestNewID_HasPrefix(t *testing.T) {
	id := newID("SNAP_")
	require.True(t, strings.HasPrefix(id, "SNAP_"))
}
