// Package retrieval turns a user query into a retrieval plan, executes it,
// and returns a typed result carrying enough context for a downstream
// generator. Intent classification, plan execution, evidence-strictness
// filtering, and trace emission all live here.
package retrieval

import (
	"context"
	"regexp"
	"strings"

	"substrate/internal/llm"
)

// Intent is the closed set of recognized retrieval intents.
type Intent string

const (
	IntentConceptLookup    Intent = "concept_lookup"
	IntentSemanticSearch   Intent = "semantic_search"
	IntentTickerQuery      Intent = "ticker_query"
	IntentCommunitySummary Intent = "community_summary"
	IntentEvidenceForClaim Intent = "evidence_for_claim"
	IntentCrossGraph       Intent = "cross_graph"
	IntentGeneral          Intent = "general"
)

var tickerPrefixRE = regexp.MustCompile(`^[A-Z]{1,5}:\s`)
var urlRE = regexp.MustCompile(`https?://`)

// Classification is classifyIntent's return shape.
type Classification struct {
	Intent     Intent
	Confidence float64
	Reasoning  string
}

// IntentRouter is a hybrid classifier: cheap rules first, optional LLM
// fallback when rules are inconclusive. Callers may also supply an explicit
// intent, bypassing the router entirely (see Service.Retrieve).
type IntentRouter struct {
	collab       llm.Collaborator
	knownConcepts func(name string) bool
}

func NewIntentRouter(collab llm.Collaborator, knownConcepts func(name string) bool) *IntentRouter {
	return &IntentRouter{collab: collab, knownConcepts: knownConcepts}
}

// Classify applies the rule-based fast path first; if no rule fires and a
// collaborator is configured, it falls back to the LLM classifier.
func (r *IntentRouter) Classify(ctx context.Context, message string) (Classification, error) {
	trimmed := strings.TrimSpace(message)

	if tickerPrefixRE.MatchString(trimmed) {
		return Classification{Intent: IntentTickerQuery, Confidence: 0.9, Reasoning: "ticker-prefix regex match"}, nil
	}
	if urlRE.MatchString(trimmed) {
		return Classification{Intent: IntentSemanticSearch, Confidence: 0.6, Reasoning: "message contains a url"}, nil
	}
	if r.knownConcepts != nil {
		for _, word := range strings.Fields(trimmed) {
			if r.knownConcepts(word) {
				return Classification{Intent: IntentConceptLookup, Confidence: 0.8, Reasoning: "matched a known concept name"}, nil
			}
		}
	}

	if r.collab != nil {
		intent, confidence, reasoning, err := r.collab.ClassifyIntent(ctx, message)
		if err == nil && intent != "" {
			return Classification{Intent: Intent(intent), Confidence: confidence, Reasoning: reasoning}, nil
		}
	}
	return Classification{Intent: IntentGeneral, Confidence: 0.3, Reasoning: "no rule matched, no collaborator fallback available"}, nil
}
