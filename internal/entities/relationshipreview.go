package entities

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"substrate/domain/apperr"
	"substrate/internal/scope"
)

// RelationshipReviewItem is one edge surfaced to an operator review queue.
type RelationshipReviewItem struct {
	SourceID       string
	TargetID       string
	Type           string
	Status         string
	Confidence     float64
	Rationale      string
	IngestionRunID string
}

// RelationshipEdgeRef names one relationship triple an accept/reject call
// targets.
type RelationshipEdgeRef struct {
	SourceID string
	TargetID string
	RelType  string
}

// ListProposedRelationships filters the graph's relationships by status
// (PROPOSED by default), with optional ingestion-run and archived filters,
// per spec §4.9/§6.
func (s *Service) ListProposedRelationships(ctx context.Context, sc scope.Context, status, ingestionRunID string, includeArchived bool, limit, offset int) ([]RelationshipReviewItem, error) {
	if status == "" {
		status = "PROPOSED"
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	params := map[string]any{
		"graph_id": sc.GraphID, "status": status, "limit": int64(limit), "offset": int64(offset),
	}
	filterClauses := "r.status = $status"
	if ingestionRunID != "" {
		filterClauses += " AND r.ingestion_run_id = $run_id"
		params["run_id"] = ingestionRunID
	}
	if !includeArchived {
		filterClauses += " AND coalesce(r.archived, false) = false"
	}

	res, err := s.store.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (a:Concept {graph_id: $graph_id})-[r]->(b:Concept {graph_id: $graph_id})
			WHERE `+filterClauses+`
			RETURN a.node_id AS src, b.node_id AS dst, type(r) AS rel_type, r.status AS status,
				coalesce(r.confidence, 0.0) AS confidence, coalesce(r.rationale, '') AS rationale,
				coalesce(r.ingestion_run_id, '') AS run_id
			ORDER BY r.created_at DESC
			SKIP $offset LIMIT $limit`, params)
		if err != nil {
			return nil, err
		}
		var out []RelationshipReviewItem
		for result.Next(ctx) {
			rec := result.Record()
			src, _ := rec.Get("src")
			dst, _ := rec.Get("dst")
			relType, _ := rec.Get("rel_type")
			st, _ := rec.Get("status")
			conf, _ := rec.Get("confidence")
			rationale, _ := rec.Get("rationale")
			runID, _ := rec.Get("run_id")
			out = append(out, RelationshipReviewItem{
				SourceID: src.(string), TargetID: dst.(string), Type: relType.(string),
				Status: st.(string), Confidence: conf.(float64), Rationale: rationale.(string),
				IngestionRunID: runID.(string),
			})
		}
		return out, result.Err()
	})
	if err != nil {
		return nil, err
	}
	return res.([]RelationshipReviewItem), nil
}

// AcceptRelationships transitions a batch of edges to ACCEPTED, stamping the
// reviewer and time, and returns how many were actually updated.
func (s *Service) AcceptRelationships(ctx context.Context, sc scope.Context, edges []RelationshipEdgeRef, reviewedBy string) (int, error) {
	return s.setRelationshipStatus(ctx, sc, edges, "ACCEPTED", reviewedBy)
}

// RejectRelationships transitions a batch of edges to REJECTED.
func (s *Service) RejectRelationships(ctx context.Context, sc scope.Context, edges []RelationshipEdgeRef, reviewedBy string) (int, error) {
	return s.setRelationshipStatus(ctx, sc, edges, "REJECTED", reviewedBy)
}

func (s *Service) setRelationshipStatus(ctx context.Context, sc scope.Context, edges []RelationshipEdgeRef, status, reviewedBy string) (int, error) {
	res, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		count := 0
		for _, e := range edges {
			result, err := tx.Run(ctx, `
				MATCH (a:Concept {graph_id: $graph_id, node_id: $src})-[r:`+safeType(e.RelType)+` {graph_id: $graph_id}]->(b:Concept {graph_id: $graph_id, node_id: $dst})
				SET r.status = $status, r.reviewed_by = $reviewed_by, r.reviewed_at = timestamp(), r.updated_at = timestamp()
				RETURN r`,
				map[string]any{
					"graph_id": sc.GraphID, "src": e.SourceID, "dst": e.TargetID,
					"status": status, "reviewed_by": reviewedBy,
				})
			if err != nil {
				return nil, err
			}
			if result.Next(ctx) {
				count++
			}
		}
		return count, nil
	})
	if err != nil {
		return 0, err
	}
	return res.(int), nil
}

// EditRelationship rejects the old (source, target, oldType) triple and
// creates a new relationship with newType, preserving the provenance chain
// by never deleting the old edge (spec §4.9).
func (s *Service) EditRelationship(ctx context.Context, sc scope.Context, sourceID, targetID, oldType, newType, reviewedBy string) (bool, error) {
	if oldType == newType {
		return false, apperr.Invalid("edit requires a different new relationship type")
	}
	res, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (a:Concept {graph_id: $graph_id, node_id: $src})-[old:`+safeType(oldType)+` {graph_id: $graph_id}]->(b:Concept {graph_id: $graph_id, node_id: $dst})
			SET old.status = 'REJECTED', old.reviewed_by = $reviewed_by, old.reviewed_at = timestamp(), old.updated_at = timestamp()
			WITH a, b
			MERGE (a)-[new:`+safeType(newType)+` {graph_id: $graph_id}]->(b)
			ON CREATE SET new.status = 'ACCEPTED', new.method = 'manual', new.on_branches = [],
				new.created_at = timestamp(), new.updated_at = timestamp()
			ON MATCH SET new.status = 'ACCEPTED', new.reviewed_by = $reviewed_by, new.reviewed_at = timestamp(), new.updated_at = timestamp()
			RETURN new`,
			map[string]any{
				"graph_id": sc.GraphID, "src": sourceID, "dst": targetID, "reviewed_by": reviewedBy,
			})
		if err != nil {
			return nil, err
		}
		return result.Next(ctx), result.Err()
	})
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}
