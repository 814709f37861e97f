package entities

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"substrate/domain/apperr"
	"substrate/domain/graph"
	"substrate/internal/scope"
)

// RecentConcepts returns the most recently updated live concepts on sc's
// graph/branch, capped at limit. Used by the offline-bootstrap surface.
func (s *Service) RecentConcepts(ctx context.Context, sc scope.Context, limit int) ([]*graph.Concept, error) {
	if limit <= 0 {
		limit = 50
	}
	predicate, params := scope.VisibilityPredicate("c", "", sc.GraphID, sc.BranchID, scope.IncludeProposedFalse)
	params["limit"] = int64(limit)
	res, err := s.store.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (c:Concept) WHERE `+predicate+`
			RETURN c ORDER BY c.updated_at DESC LIMIT $limit`, params)
		if err != nil {
			return nil, err
		}
		var concepts []*graph.Concept
		for result.Next(ctx) {
			record := result.Record()
			node, _ := record.Get("c")
			concepts = append(concepts, conceptFromNode(node.(neo4j.Node)))
		}
		return concepts, result.Err()
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	return res.([]*graph.Concept), nil
}

// GetConceptByName resolves a live concept by its exact name within the
// active graph.
func (s *Service) GetConceptByName(ctx context.Context, sc scope.Context, name string) (*graph.Concept, error) {
	res, err := s.store.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (c:Concept {graph_id: $graph_id, name: $name})
			WHERE coalesce(c.is_merged, false) = false
			RETURN c`,
			map[string]any{"graph_id": sc.GraphID, "name": name})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, nil
		}
		node, _ := record.Get("c")
		return conceptFromNode(node.(neo4j.Node)), nil
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, apperr.NotFound("concept not found: " + name)
	}
	return res.(*graph.Concept), nil
}

// DeleteRelationship removes every edge of predicate between source and
// target visible on the active branch.
func (s *Service) DeleteRelationship(ctx context.Context, sc scope.Context, sourceID, targetID, predicate string) error {
	if predicate == "" {
		return apperr.Invalid("relationship predicate is required")
	}
	_, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MATCH (a:Concept {node_id: $source_id})-[r:`+safeType(predicate)+` {graph_id: $graph_id}]->(b:Concept {node_id: $target_id})
			WHERE $branch_id IN coalesce(r.on_branches, [])
			DELETE r`,
			map[string]any{"source_id": sourceID, "target_id": targetID, "graph_id": sc.GraphID, "branch_id": sc.BranchID})
	})
	return err
}

// LinkCrossGraph creates a CROSS_GRAPH_LINK edge from a concept in the
// active graph to a concept in another graph the tenant owns. Callers
// resolve graph ownership before calling this (scope.Resolver).
func (s *Service) LinkCrossGraph(ctx context.Context, sc scope.Context, sourceNodeID, targetNodeID, linkType string) (*graph.Relationship, error) {
	if linkType == "" {
		linkType = graph.CrossGraphLinkType
	}
	if linkType != graph.CrossGraphLinkType {
		return nil, apperr.Invalid("cross-graph link type must be " + graph.CrossGraphLinkType)
	}
	_, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MATCH (a:Concept {graph_id: $graph_id, node_id: $source_id})
			MATCH (b:Concept {node_id: $target_id})
			MERGE (a)-[r:`+graph.CrossGraphLinkType+` {graph_id: $graph_id}]->(b)
			ON CREATE SET r.status = 'ACCEPTED', r.method = 'MANUAL', r.on_branches = [$branch_id],
				r.created_at = timestamp(), r.updated_at = timestamp()`,
			map[string]any{
				"graph_id": sc.GraphID, "source_id": sourceNodeID, "target_id": targetNodeID,
				"branch_id": sc.BranchID,
			})
	})
	if err != nil {
		return nil, err
	}
	return &graph.Relationship{
		GraphID: sc.GraphID, SourceID: sourceNodeID, TargetID: targetNodeID, Type: graph.CrossGraphLinkType,
		Status: graph.RelationshipAccepted, Method: graph.MethodManual, OnBranches: []string{sc.BranchID},
	}, nil
}

// Overview is the payload GET /graphs/{graph_id}/overview returns: a capped
// view of the graph's live concepts and their accepted (or, if requested,
// proposed) relationships.
type Overview struct {
	Nodes []*graph.Concept
	Edges []OverviewEdge
	Meta  OverviewMeta
}

// OverviewEdge is a relationship rendered for a graph-wide view, independent
// of any single center concept (unlike Neighbor, which is direction-relative
// to one).
type OverviewEdge struct {
	SourceID string
	TargetID string
	Type     string
	Status   graph.RelationshipStatus
}

// OverviewMeta carries the counts a caller needs to know whether a result
// was truncated by limitNodes/limitEdges.
type OverviewMeta struct {
	TotalNodes int
	TotalEdges int
	Truncated  bool
}

// GraphOverview returns a bird's-eye view of the active graph/branch,
// capped at limitNodes concepts and limitEdges relationships.
func (s *Service) GraphOverview(ctx context.Context, sc scope.Context, limitNodes, limitEdges int, includeProposed scope.IncludeProposed) (*Overview, error) {
	if limitNodes <= 0 {
		limitNodes = 200
	}
	if limitEdges <= 0 {
		limitEdges = 500
	}
	nodePredicate, nodeParams := scope.VisibilityPredicate("c", "", sc.GraphID, sc.BranchID, includeProposed)

	res, err := s.store.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		ov := &Overview{}

		countResult, err := tx.Run(ctx, `
			MATCH (c:Concept) WHERE `+nodePredicate+`
			RETURN count(c) AS total`, nodeParams)
		if err != nil {
			return nil, err
		}
		if record, err := countResult.Single(ctx); err == nil {
			if total, ok := record.Get("total"); ok {
				ov.Meta.TotalNodes = int(total.(int64))
			}
		}

		nodeParams["limit"] = int64(limitNodes)
		nodeResult, err := tx.Run(ctx, `
			MATCH (c:Concept) WHERE `+nodePredicate+`
			RETURN c ORDER BY c.created_at DESC LIMIT $limit`, nodeParams)
		if err != nil {
			return nil, err
		}
		for nodeResult.Next(ctx) {
			record := nodeResult.Record()
			node, _ := record.Get("c")
			ov.Nodes = append(ov.Nodes, conceptFromNode(node.(neo4j.Node)))
		}
		if err := nodeResult.Err(); err != nil {
			return nil, err
		}
		if len(ov.Nodes) < ov.Meta.TotalNodes {
			ov.Meta.Truncated = true
		}

		edgePredicate, edgeParams := scope.VisibilityPredicate("a", "r", sc.GraphID, sc.BranchID, includeProposed)

		edgeCountResult, err := tx.Run(ctx, `
			MATCH (a:Concept)-[r]->(b:Concept) WHERE `+edgePredicate+` AND b.graph_id = $graph_id
			RETURN count(r) AS total`, edgeParams)
		if err != nil {
			return nil, err
		}
		if record, err := edgeCountResult.Single(ctx); err == nil {
			if total, ok := record.Get("total"); ok {
				ov.Meta.TotalEdges = int(total.(int64))
			}
		}

		edgeParams["limit"] = int64(limitEdges)
		edgeResult, err := tx.Run(ctx, `
			MATCH (a:Concept)-[r]->(b:Concept) WHERE `+edgePredicate+` AND b.graph_id = $graph_id
			RETURN a.node_id AS source_id, b.node_id AS target_id, type(r) AS type, coalesce(r.status, 'ACCEPTED') AS status
			LIMIT $limit`, edgeParams)
		if err != nil {
			return nil, err
		}
		for edgeResult.Next(ctx) {
			record := edgeResult.Record()
			srcID, _ := record.Get("source_id")
			dstID, _ := record.Get("target_id")
			typeVal, _ := record.Get("type")
			statusVal, _ := record.Get("status")
			ov.Edges = append(ov.Edges, OverviewEdge{
				SourceID: srcID.(string), TargetID: dstID.(string),
				Type: typeVal.(string), Status: graph.RelationshipStatus(statusVal.(string)),
			})
		}
		if err := edgeResult.Err(); err != nil {
			return nil, err
		}
		if len(ov.Edges) < ov.Meta.TotalEdges {
			ov.Meta.Truncated = true
		}
		return ov, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*Overview), nil
}
