package retrieval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"substrate/domain/graph"
)

func concepts(n int) []*graph.Concept {
	out := make([]*graph.Concept, n)
	for i := range out {
		out[i] = &graph.Concept{NodeID: "N", GraphID: "g"}
	}
	return out
}

func claims(n int, textLen int) []ClaimView {
	text := ""
	for i := 0; i < textLen; i++ {
		text += "x"
	}
	out := make([]ClaimView, n)
	for i := range out {
		out[i] = ClaimView{ClaimID: "C", Text: text}
	}
	return out
}

func TestApplyCaps_DefaultsTruncateSummaryDetail(t *testing.T) {
	svc := &Service{}
	res := &Result{Concepts: concepts(10), Claims: claims(10, 10)}

	svc.applyCaps(res, Filters{DetailLevel: DetailSummary})

	require.Len(t, res.Concepts, CapsFor(DetailSummary).FocusEntities)
	require.Len(t, res.Claims, CapsFor(DetailSummary).Claims)
	require.True(t, res.Truncated)
}

func TestApplyCaps_FullDetailDoesNotTruncate(t *testing.T) {
	svc := &Service{}
	res := &Result{Concepts: concepts(10), Claims: claims(10, 10)}

	svc.applyCaps(res, Filters{DetailLevel: DetailFull})

	require.Len(t, res.Concepts, 10)
	require.Len(t, res.Claims, 10)
	require.False(t, res.Truncated)
}

func TestApplyCaps_OverridesWinOverDetailLevelDefault(t *testing.T) {
	svc := &Service{}
	res := &Result{Concepts: concepts(10)}

	svc.applyCaps(res, Filters{DetailLevel: DetailSummary, FocusEntitiesOverride: 8})

	require.Len(t, res.Concepts, 8, "a positive override must widen the default summary cap")
}

func TestApplyCaps_ZeroOverrideFallsBackToDetailLevelDefault(t *testing.T) {
	svc := &Service{}
	res := &Result{Concepts: concepts(10)}

	svc.applyCaps(res, Filters{DetailLevel: DetailSummary, FocusEntitiesOverride: 0})

	require.Len(t, res.Concepts, CapsFor(DetailSummary).FocusEntities)
}

func TestApplyCaps_ClaimTextIsTruncatedToCharLimit(t *testing.T) {
	svc := &Service{}
	res := &Result{Claims: claims(1, CapsFor(DetailSummary).ClaimCharLimit+50)}

	svc.applyCaps(res, Filters{DetailLevel: DetailSummary})

	require.Len(t, res.Claims[0].Text, CapsFor(DetailSummary).ClaimCharLimit)
	require.True(t, res.Truncated)
}

func TestConfidenceFloor(t *testing.T) {
	require.Equal(t, 0.0, ConfidenceFloor(StrictnessLow))
	require.Equal(t, 0.55, ConfidenceFloor(StrictnessMedium))
	require.Equal(t, 0.75, ConfidenceFloor(StrictnessHigh))
}
