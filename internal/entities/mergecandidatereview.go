package entities

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"substrate/domain/graph"
	"substrate/internal/scope"
)

// ListMergeCandidates filters proposed-merge rows by status for the review
// queue (spec §4.9).
func (s *Service) ListMergeCandidates(ctx context.Context, sc scope.Context, status string, limit, offset int) ([]*graph.MergeCandidate, error) {
	if status == "" {
		status = string(graph.MergeCandidateProposed)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	res, err := s.store.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (m:MergeCandidate {graph_id: $graph_id})
			WHERE m.status = $status
			RETURN m
			ORDER BY m.created_at DESC
			SKIP $offset LIMIT $limit`,
			map[string]any{
				"graph_id": sc.GraphID, "status": status, "limit": int64(limit), "offset": int64(offset),
			})
		if err != nil {
			return nil, err
		}
		var out []*graph.MergeCandidate
		for result.Next(ctx) {
			node, _ := result.Record().Get("m")
			out = append(out, mergeCandidateFromNode(node.(neo4j.Node)))
		}
		return out, result.Err()
	})
	if err != nil {
		return nil, err
	}
	return res.([]*graph.MergeCandidate), nil
}

// SetMergeCandidateStatus transitions a batch of candidates to status,
// stamping the reviewer. Accepting a candidate here only marks it reviewed —
// the caller still invokes MergeConcepts separately via /merges/execute
// (spec §4.9's explicit accept/execute split).
func (s *Service) SetMergeCandidateStatus(ctx context.Context, sc scope.Context, candidateIDs []string, status graph.MergeCandidateStatus, reviewedBy string) (int, error) {
	res, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (m:MergeCandidate {graph_id: $graph_id})
			WHERE m.candidate_id IN $candidate_ids AND m.status = 'PROPOSED'
			SET m.status = $status, m.reviewed_by = $reviewed_by, m.reviewed_at = timestamp()
			RETURN count(m) AS updated`,
			map[string]any{
				"graph_id": sc.GraphID, "candidate_ids": candidateIDs,
				"status": string(status), "reviewed_by": reviewedBy,
			})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return 0, nil
		}
		count, _ := record.Get("updated")
		return int(count.(int64)), nil
	})
	if err != nil {
		return 0, err
	}
	return res.(int), nil
}

func mergeCandidateFromNode(n neo4j.Node) *graph.MergeCandidate {
	props := n.Props
	get := func(k string) string {
		v, _ := props[k].(string)
		return v
	}
	score, _ := props["score"].(float64)
	return &graph.MergeCandidate{
		CandidateID: get("candidate_id"),
		GraphID:     get("graph_id"),
		SrcNodeID:   get("src_node_id"),
		DstNodeID:   get("dst_node_id"),
		Score:       score,
		Method:      graph.MergeCandidateMethod(get("method")),
		Rationale:   get("rationale"),
		Status:      graph.MergeCandidateStatus(get("status")),
		ReviewedBy:  get("reviewed_by"),
	}
}
