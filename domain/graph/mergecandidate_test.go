package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMergeCandidateID_OrdersEndpointsLexicographically(t *testing.T) {
	id1, src1, dst1 := NewMergeCandidateID("g1", "N2", "N1")
	id2, src2, dst2 := NewMergeCandidateID("g1", "N1", "N2")

	require.Equal(t, id1, id2, "candidate id must not depend on discovery order")
	require.Equal(t, "N1", src1)
	require.Equal(t, "N2", dst1)
	require.Equal(t, src1, src2)
	require.Equal(t, dst1, dst2)
}

func TestNewMergeCandidateID_DiffersByGraph(t *testing.T) {
	id1, _, _ := NewMergeCandidateID("g1", "N1", "N2")
	id2, _, _ := NewMergeCandidateID("g2", "N1", "N2")
	require.NotEqual(t, id1, id2)
}

func TestNewMergeCandidate_Valid(t *testing.T) {
	mc, err := NewMergeCandidate("g1", "N1", "N2", 0.9, MergeMethodHybrid, "hybrid similarity")
	require.NoError(t, err)
	require.Equal(t, MergeCandidateProposed, mc.Status)
}

func TestNewMergeCandidate_RejectsMissingGraphOrDuplicateNodes(t *testing.T) {
	_, err := NewMergeCandidate("", "N1", "N2", 0.9, MergeMethodString, "r")
	require.Error(t, err)

	_, err = NewMergeCandidate("g1", "N1", "N1", 0.9, MergeMethodString, "r")
	require.Error(t, err)
}

func TestMergeCandidate_SetStatus(t *testing.T) {
	mc, err := NewMergeCandidate("g1", "N1", "N2", 0.9, MergeMethodString, "r")
	require.NoError(t, err)

	require.NoError(t, mc.SetStatus(MergeCandidateAccepted, "reviewer-1"))
	require.Equal(t, MergeCandidateAccepted, mc.Status)
	require.Equal(t, "reviewer-1", mc.ReviewedBy)
	require.NotNil(t, mc.ReviewedAt)
}

func TestMergeCandidate_SetStatus_RejectsRevertToProposed(t *testing.T) {
	mc, err := NewMergeCandidate("g1", "N1", "N2", 0.9, MergeMethodString, "r")
	require.NoError(t, err)

	require.NoError(t, mc.SetStatus(MergeCandidateRejected, "reviewer-1"))
	require.Error(t, mc.SetStatus(MergeCandidateProposed, "reviewer-1"))
}
