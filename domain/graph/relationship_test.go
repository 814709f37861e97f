package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRelationship_Valid(t *testing.T) {
	r, err := NewRelationship("g1", "C1", "C2", "WORKS_AT", "g1", "g1")
	require.NoError(t, err)
	require.Equal(t, RelationshipAccepted, r.Status)
	require.Equal(t, MethodManual, r.Method)
}

func TestNewRelationship_RejectsMissingEndpoints(t *testing.T) {
	_, err := NewRelationship("g1", "", "C2", "WORKS_AT", "g1", "g1")
	require.Error(t, err)

	_, err = NewRelationship("g1", "C1", "C2", "", "g1", "g1")
	require.Error(t, err)
}

func TestNewRelationship_RejectsCrossGraphWithoutSpecialType(t *testing.T) {
	_, err := NewRelationship("g1", "C1", "C2", "WORKS_AT", "g1", "g2")
	require.Error(t, err)
}

func TestNewRelationship_AllowsCrossGraphLinkType(t *testing.T) {
	r, err := NewRelationship("g1", "C1", "C2", CrossGraphLinkType, "g1", "g2")
	require.NoError(t, err)
	require.Equal(t, CrossGraphLinkType, r.Type)
}

func TestNewRelationship_RejectsMismatchedGraphID(t *testing.T) {
	_, err := NewRelationship("g3", "C1", "C2", "WORKS_AT", "g1", "g1")
	require.Error(t, err)
}

func TestIsVisibleUnderConfidenceGate_AcceptedAlwaysVisible(t *testing.T) {
	r := &Relationship{Status: RelationshipAccepted}
	require.True(t, r.IsVisibleUnderConfidenceGate(false))
	require.True(t, r.IsVisibleUnderConfidenceGate(true))
}

func TestIsVisibleUnderConfidenceGate_ProposedNeedsIncludeAndConfidence(t *testing.T) {
	r := &Relationship{Status: RelationshipProposed, Confidence: 0.7}
	require.False(t, r.IsVisibleUnderConfidenceGate(false))
	require.True(t, r.IsVisibleUnderConfidenceGate(true))

	r.Confidence = 0.5
	require.False(t, r.IsVisibleUnderConfidenceGate(true))
}

func TestIsVisibleUnderConfidenceGate_RejectedNeverVisible(t *testing.T) {
	r := &Relationship{Status: RelationshipRejected, Confidence: 1.0}
	require.False(t, r.IsVisibleUnderConfidenceGate(true))
}
