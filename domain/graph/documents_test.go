package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewEvidenceSnapshot_Valid(t *testing.T) {
	s, err := NewEvidenceSnapshot("g1", "SNAP_1", "S1", "hash1", "normalized text")
	require.NoError(t, err)
	require.Equal(t, "hash1", s.ContentHash)
}

func TestNewEvidenceSnapshot_RejectsMissingFields(t *testing.T) {
	_, err := NewEvidenceSnapshot("", "SNAP_1", "S1", "hash1", "text")
	require.Error(t, err)

	_, err = NewEvidenceSnapshot("g1", "SNAP_1", "S1", "", "text")
	require.Error(t, err)
}

func TestNewChangeEvent_Valid(t *testing.T) {
	ev, err := NewChangeEvent("g1", "EVT_1", "S1", "SNAP_0", "SNAP_1", ChangeMinorEdit)
	require.NoError(t, err)
	require.Equal(t, ChangeMinorEdit, ev.Kind)
}

func TestNewChangeEvent_RejectsMissingNewSnapshot(t *testing.T) {
	_, err := NewChangeEvent("g1", "EVT_1", "S1", "SNAP_0", "", ChangeMinorEdit)
	require.Error(t, err)
}

func TestNewCommunity_Valid(t *testing.T) {
	c, err := NewCommunity("g1", "COMM_1", "Finance", []string{"N1", "N2"})
	require.NoError(t, err)
	require.Equal(t, "Finance", c.Label)
}

func TestNewCommunity_RejectsEmptyConceptList(t *testing.T) {
	_, err := NewCommunity("g1", "COMM_1", "Finance", nil)
	require.Error(t, err)
}

func TestNewQuote_Valid(t *testing.T) {
	q, err := NewQuote("g1", "Q1", "CHUNK_1", "quoted text", 0, 11)
	require.NoError(t, err)
	require.Equal(t, 0, q.StartOffset)
	require.Equal(t, 11, q.EndOffset)
}

func TestNewQuote_RejectsInvalidOffsets(t *testing.T) {
	_, err := NewQuote("g1", "Q1", "CHUNK_1", "text", -1, 5)
	require.Error(t, err)

	_, err = NewQuote("g1", "Q1", "CHUNK_1", "text", 5, 5)
	require.Error(t, err)
}

func TestNewQuote_RejectsEmptyText(t *testing.T) {
	_, err := NewQuote("g1", "Q1", "CHUNK_1", "", 0, 5)
	require.Error(t, err)
}

func TestNewSourceDocument_Valid(t *testing.T) {
	d, err := NewSourceDocument("g1", "S1", "A1", "Annual Report")
	require.NoError(t, err)
	require.Equal(t, "Annual Report", d.Title)
}

func TestNewSourceDocument_RejectsMissingFields(t *testing.T) {
	_, err := NewSourceDocument("", "S1", "A1", "title")
	require.Error(t, err)
}

func TestNewSourceChunk_Valid(t *testing.T) {
	c, err := NewSourceChunk("g1", "CHUNK_1", "S1", 0, "text", "hash1")
	require.NoError(t, err)
	require.Equal(t, 0, c.Index)
}

func TestNewSourceChunk_RejectsNegativeIndex(t *testing.T) {
	_, err := NewSourceChunk("g1", "CHUNK_1", "S1", -1, "text", "hash1")
	require.Error(t, err)
}

func TestNewSourceChunk_RejectsMissingContentHash(t *testing.T) {
	_, err := NewSourceChunk("g1", "CHUNK_1", "S1", 0, "text", "")
	require.Error(t, err)
}
