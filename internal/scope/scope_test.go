package scope

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVisibilityPredicate_NodeOnlyOmitsRelationshipClause(t *testing.T) {
	where, params := VisibilityPredicate("c", "", "g1", "b1", IncludeProposedFalse)

	require.Contains(t, where, "c.graph_id = $graph_id")
	require.Contains(t, where, "$branch_id IN coalesce(c.on_branches, [])")
	require.Contains(t, where, "coalesce(c.is_merged, false) = false")
	require.NotContains(t, where, "status")
	require.Equal(t, "g1", params["graph_id"])
	require.Equal(t, "b1", params["branch_id"])
}

func TestVisibilityPredicate_DefaultExcludesProposed(t *testing.T) {
	where, _ := VisibilityPredicate("c", "r", "g1", "b1", IncludeProposedFalse)

	require.Contains(t, where, "coalesce(r.status, 'ACCEPTED') = 'ACCEPTED'")
	require.NotContains(t, where, "confidence")
}

func TestVisibilityPredicate_TrueIncludesEverythingUnfiltered(t *testing.T) {
	where, _ := VisibilityPredicate("c", "r", "g1", "b1", IncludeProposedTrue)

	require.NotContains(t, where, "r.status")
}

func TestVisibilityPredicate_AutoGatesOnConfidenceThreshold(t *testing.T) {
	where, params := VisibilityPredicate("c", "r", "g1", "b1", IncludeProposedAuto)

	require.Contains(t, where, "r.confidence >= $proposed_threshold")
	require.Equal(t, ProposedConfidenceThreshold, params["proposed_threshold"])
}
