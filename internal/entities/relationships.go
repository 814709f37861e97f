package entities

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"substrate/domain/apperr"
	"substrate/domain/graph"
	"substrate/internal/scope"
)

// RelationshipInput describes a requested edge; Source/Target may name a
// node_id or a concept name — Entities resolves names within the active
// graph before create.
type RelationshipInput struct {
	SourceID    string
	SourceName  string
	TargetID    string
	TargetName  string
	Predicate   string
	Status      graph.RelationshipStatus
	Confidence  float64
	Method      graph.RelationshipMethod
	Rationale   string
}

// CreateRelationship resolves src/dst, rejects cross-graph pairs unless the
// predicate is CROSS_GRAPH_LINK, and MERGEs the edge so repeated creates
// re-apply attributes additively (on_branches union) rather than duplicating.
func (s *Service) CreateRelationship(ctx context.Context, sc scope.Context, in RelationshipInput) (*graph.Relationship, error) {
	if in.Predicate == "" {
		return nil, apperr.Invalid("relationship predicate is required")
	}
	if safeType(in.Predicate) != in.Predicate {
		return nil, apperr.Invalid("relationship predicate must use only uppercase letters, digits and underscores")
	}
	srcID, srcGraph, err := s.resolveConceptRef(ctx, sc.GraphID, in.SourceID, in.SourceName)
	if err != nil {
		return nil, err
	}
	dstID, dstGraph, err := s.resolveConceptRef(ctx, sc.GraphID, in.TargetID, in.TargetName)
	if err != nil {
		return nil, err
	}
	if in.Predicate != graph.CrossGraphLinkType && srcGraph != dstGraph {
		return nil, apperr.Forbidden("relationship endpoints must share a graph_id unless predicate is " + graph.CrossGraphLinkType)
	}

	status := in.Status
	if status == "" {
		status = graph.RelationshipAccepted
	}
	method := in.Method
	if method == "" {
		method = graph.MethodManual
	}

	_, err = s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MATCH (a:Concept {node_id: $src_id})
			MATCH (b:Concept {node_id: $dst_id})
			MERGE (a)-[r:`+safeType(in.Predicate)+` {graph_id: $graph_id}]->(b)
			ON CREATE SET r.status = $status, r.confidence = $confidence, r.method = $method,
				r.rationale = $rationale, r.on_branches = [$branch_id], r.created_at = timestamp(), r.updated_at = timestamp()
			ON MATCH SET r.on_branches = CASE
					WHEN $branch_id IN coalesce(r.on_branches, []) THEN r.on_branches
					ELSE coalesce(r.on_branches, []) + $branch_id
				END,
				r.updated_at = timestamp()`,
			map[string]any{
				"src_id": srcID, "dst_id": dstID, "graph_id": sc.GraphID, "branch_id": sc.BranchID,
				"status": string(status), "confidence": in.Confidence, "method": string(method),
				"rationale": in.Rationale,
			})
	})
	if err != nil {
		return nil, err
	}
	return &graph.Relationship{
		GraphID: sc.GraphID, SourceID: srcID, TargetID: dstID, Type: in.Predicate,
		Status: status, Confidence: in.Confidence, Method: method, OnBranches: []string{sc.BranchID},
	}, nil
}

func (s *Service) resolveConceptRef(ctx context.Context, graphID, nodeID, name string) (resolvedID, resolvedGraphID string, err error) {
	if nodeID != "" {
		res, err := s.store.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			result, err := tx.Run(ctx, `MATCH (c:Concept {node_id: $node_id}) RETURN c.graph_id AS graph_id`,
				map[string]any{"node_id": nodeID})
			if err != nil {
				return nil, err
			}
			record, err := result.Single(ctx)
			if err != nil {
				return "", nil
			}
			gid, _ := record.Get("graph_id")
			return gid, nil
		})
		if err != nil {
			return "", "", err
		}
		gid, _ := res.(string)
		if gid == "" {
			return "", "", apperr.NotFound("concept not found: " + nodeID)
		}
		return nodeID, gid, nil
	}
	if name == "" {
		return "", "", apperr.Invalid("relationship endpoint requires an id or a name")
	}
	res, err := s.store.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (c:Concept {graph_id: $graph_id, name: $name})
			WHERE coalesce(c.is_merged, false) = false
			RETURN c.node_id AS node_id`,
			map[string]any{"graph_id": graphID, "name": name})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return "", nil
		}
		nid, _ := record.Get("node_id")
		return nid, nil
	})
	if err != nil {
		return "", "", err
	}
	nid, _ := res.(string)
	if nid == "" {
		return "", "", apperr.NotFound("concept not found: " + name)
	}
	return nid, graphID, nil
}

// safeType whitelists a Cypher relationship type identifier: uppercase
// letters, digits, and underscores only, no hyphens (spec §6). Anything else
// is rejected by CreateRelationship's caller-facing validation layer before
// reaching here; this is a defense-in-depth guard against query injection
// through a dynamically interpolated type name, since Cypher cannot
// parameterize relationship types.
func safeType(t string) string {
	for _, r := range t {
		if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_') {
			return "INVALID_PREDICATE"
		}
	}
	if t == "" {
		return "INVALID_PREDICATE"
	}
	return t
}

// GetNeighbors returns the undirected 1-hop neighborhood of a concept within
// the active branch, filtered by the visibility predicate.
type Neighbor struct {
	Concept   *graph.Concept
	Predicate string
	Direction string // "out" or "in"
}

func (s *Service) GetNeighbors(ctx context.Context, sc scope.Context, nodeID string, includeProposed scope.IncludeProposed, limit int) ([]Neighbor, error) {
	if limit <= 0 {
		limit = 80
	}
	predicate, params := scope.VisibilityPredicate("other", "r", sc.GraphID, sc.BranchID, includeProposed)
	params["node_id"] = nodeID
	params["limit"] = int64(limit)

	res, err := s.store.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (center:Concept {graph_id: $graph_id, node_id: $node_id})-[r]-(other:Concept)
			WHERE `+predicate+`
			RETURN other, type(r) AS predicate,
				CASE WHEN startNode(r) = center THEN 'out' ELSE 'in' END AS direction
			LIMIT $limit`, params)
		if err != nil {
			return nil, err
		}
		var out []Neighbor
		for result.Next(ctx) {
			record := result.Record()
			otherNode, _ := record.Get("other")
			predicateVal, _ := record.Get("predicate")
			directionVal, _ := record.Get("direction")
			out = append(out, Neighbor{
				Concept:   conceptFromNode(otherNode.(neo4j.Node)),
				Predicate: predicateVal.(string),
				Direction: directionVal.(string),
			})
		}
		return out, result.Err()
	})
	if err != nil {
		return nil, err
	}
	return res.([]Neighbor), nil
}
