// Package entities owns the CRUD and merge surface for every node and edge
// type the graph-scoping layer partitions: Concept, Relationship, Artifact,
// Quote, Claim, SourceDocument, SourceChunk, EvidenceSnapshot, Community,
// MergeCandidate.
package entities

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"substrate/domain/apperr"
	"substrate/domain/graph"
	"substrate/internal/scope"
	"substrate/internal/store"
)

// Service is the entities component: every operation takes an explicit
// scope.Context rather than reading graph/branch from ambient state.
type Service struct {
	store *store.Store
}

func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// ConceptInput is the caller-supplied payload for CreateConcept.
type ConceptInput struct {
	Name        string
	Domain      string
	Type        string
	Description string
	Tags        []string
}

func newHexID(prefix string, n int) string {
	buf := make([]byte, n/2)
	_, _ = rand.Read(buf)
	return prefix + hex.EncodeToString(buf)
}

// CreateConcept assigns a deterministic-shaped node_id (N + 8 hex), attaches
// BELONGS_TO to the active graph, and scopes the node to the active branch.
// Fails with ErrConflict if a live concept in the graph already has the name.
func (s *Service) CreateConcept(ctx context.Context, sc scope.Context, in ConceptInput) (*graph.Concept, error) {
	if in.Name == "" {
		return nil, apperr.Invalid("concept name is required")
	}
	nodeID := newHexID("N", 8)
	normalized := graph.NormalizeName(in.Name)

	res, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		existing, err := tx.Run(ctx, `
			MATCH (c:Concept {graph_id: $graph_id, name: $name})
			WHERE coalesce(c.is_merged, false) = false
			RETURN c.node_id AS node_id`,
			map[string]any{"graph_id": sc.GraphID, "name": in.Name})
		if err != nil {
			return nil, err
		}
		if existing.Next(ctx) {
			return nil, apperr.ConflictField("a concept with this name already exists in the graph", "name")
		}

		result, err := tx.Run(ctx, `
			MATCH (g:GraphSpace {graph_id: $graph_id})
			CREATE (c:Concept {
				node_id: $node_id, graph_id: $graph_id, name: $name, normalized_key: $normalized_key,
				domain: $domain, type: $type, description: $description, tags: $tags,
				alias_names: [], merged_node_ids: [], is_merged: false,
				on_branches: [$branch_id], created_at: timestamp(), updated_at: timestamp()
			})
			MERGE (c)-[:BELONGS_TO]->(g)
			RETURN c`,
			map[string]any{
				"graph_id": sc.GraphID, "branch_id": sc.BranchID, "node_id": nodeID,
				"name": in.Name, "normalized_key": normalized, "domain": in.Domain,
				"type": in.Type, "description": in.Description, "tags": in.Tags,
			})
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			return nil, apperr.Internal("concept creation returned no row", nil)
		}
		return nodeID, nil
	})
	if err != nil {
		return nil, err
	}
	_ = res
	return &graph.Concept{
		NodeID: nodeID, GraphID: sc.GraphID, Name: in.Name, NormalizedKey: normalized,
		Description: in.Description, Tags: in.Tags, OnBranches: []string{sc.BranchID},
	}, nil
}

// ConceptUpdate carries only the fields the caller wants to change;
// graph_id and node_id are immutable and rejected if present.
type ConceptUpdate struct {
	Description *string
	Tags        *[]string
}

// UpdateConcept applies a partial update: unspecified fields are preserved.
func (s *Service) UpdateConcept(ctx context.Context, sc scope.Context, nodeID string, upd ConceptUpdate) error {
	params := map[string]any{"graph_id": sc.GraphID, "node_id": nodeID}
	setClauses := "c.updated_at = timestamp()"
	if upd.Description != nil {
		setClauses += ", c.description = $description"
		params["description"] = *upd.Description
	}
	if upd.Tags != nil {
		setClauses += ", c.tags = $tags"
		params["tags"] = *upd.Tags
	}
	query := fmt.Sprintf(`
		MATCH (c:Concept {graph_id: $graph_id, node_id: $node_id})
		WHERE coalesce(c.is_merged, false) = false
		SET %s
		RETURN c.node_id AS node_id`, setClauses)

	res, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	if res == false {
		return apperr.NotFound("concept not found")
	}
	return nil
}

// GetConcept fetches a single live concept by id within scope.
func (s *Service) GetConcept(ctx context.Context, sc scope.Context, nodeID string) (*graph.Concept, error) {
	res, err := s.store.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (c:Concept {graph_id: $graph_id, node_id: $node_id})
			WHERE coalesce(c.is_merged, false) = false
			RETURN c`,
			map[string]any{"graph_id": sc.GraphID, "node_id": nodeID})
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
		return nil, apperr.NotFound("concept not found")
	}
	return res.(*graph.Concept), nil
}

// DeleteConcept DETACH-deletes a concept, removing all incident edges.
func (s *Service) DeleteConcept(ctx context.Context, sc scope.Context, nodeID string) error {
	_, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MATCH (c:Concept {graph_id: $graph_id, node_id: $node_id})
			DETACH DELETE c`,
			map[string]any{"graph_id": sc.GraphID, "node_id": nodeID})
	})
	return err
}

func conceptFromNode(n neo4j.Node) *graph.Concept {
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
