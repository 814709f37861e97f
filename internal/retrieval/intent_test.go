package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify_TickerPrefixMatchesFastPath(t *testing.T) {
	r := NewIntentRouter(nil, nil)
	c, err := r.Classify(context.Background(), "AAPL: what's the latest guidance")
	require.NoError(t, err)
	require.Equal(t, IntentTickerQuery, c.Intent)
}

func TestClassify_URLMatchesSemanticSearch(t *testing.T) {
	r := NewIntentRouter(nil, nil)
	c, err := r.Classify(context.Background(), "summarize https://example.com/article")
	require.NoError(t, err)
	require.Equal(t, IntentSemanticSearch, c.Intent)
}

func TestClassify_KnownConceptMatchesConceptLookup(t *testing.T) {
	known := func(name string) bool { return name == "Acme" }
	r := NewIntentRouter(nil, known)
	c, err := r.Classify(context.Background(), "tell me about Acme")
	require.NoError(t, err)
	require.Equal(t, IntentConceptLookup, c.Intent)
}

func TestClassify_NoRuleAndNoCollaboratorFallsBackToGeneral(t *testing.T) {
	r := NewIntentRouter(nil, nil)
	c, err := r.Classify(context.Background(), "hello there")
	require.NoError(t, err)
	require.Equal(t, IntentGeneral, c.Intent)
}
