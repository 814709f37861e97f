package retrieval

import (
	"regexp"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"substrate/domain/graph"
)

// conceptFromEntities mirrors entities' unexported node decoder for the raw
// Cypher reads plan execution issues directly against the store (ticker,
// community, and evidence plans read multiple node types in one query and
// don't fit the entities package's single-concept-shaped methods).
func conceptFromEntities(n neo4j.Node) *graph.Concept {
	props := n.Props
	get := func(k string) string {
		if v, ok := props[k].(string); ok {
			return v
		}
		return ""
	}
	strSlice := func(k string) []string {
		if raw, ok := props[k].([]any); ok {
			out := make([]string, 0, len(raw))
			for _, v := range raw {
				if s, ok := v.(string); ok {
					out = append(out, s)
				}
			}
			return out
		}
		return nil
	}
	isMerged, _ := props["is_merged"].(bool)
	return &graph.Concept{
		NodeID:        get("node_id"),
		GraphID:       get("graph_id"),
		Name:          get("name"),
		NormalizedKey: get("normalized_key"),
		Description:   get("description"),
		Tags:          strSlice("tags"),
		AliasNames:    strSlice("alias_names"),
		OnBranches:    strSlice("on_branches"),
		IsMerged:      isMerged,
		MergedInto:    get("merged_into"),
		MergedNodeIDs: strSlice("merged_node_ids"),
	}
}

func claimViewFromNode(n neo4j.Node) ClaimView {
	props := n.Props
	text, _ := props["text"].(string)
	claimID, _ := props["claim_id"].(string)
	status, _ := props["status"].(string)
	confidence, _ := props["confidence"].(float64)
	return ClaimView{
		ClaimID:    claimID,
		Text:       text,
		Confidence: confidence,
		Status:     graph.ClaimStatus(status),
	}
}

var tickerToken = regexp.MustCompile(`\b[A-Z]{1,5}\b`)

// extractTicker pulls a bare uppercase ticker token out of a free-form
// message, stripping the "TICKER: " prefix intent classification already
// matched on if present.
func extractTicker(message string) string {
	trimmed := strings.TrimSpace(message)
	if idx := strings.Index(trimmed, ":"); idx > 0 && idx <= 5 {
		candidate := strings.TrimSpace(trimmed[:idx])
		if tickerToken.MatchString(candidate) {
			return candidate
		}
	}
	match := tickerToken.FindString(trimmed)
	return match
}
