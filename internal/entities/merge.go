package entities

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"substrate/domain/apperr"
	"substrate/internal/scope"
)

// MergeResult reports what mergeConcepts actually did, for the caller's
// audit trail.
type MergeResult struct {
	KeepNodeID             string
	MergeNodeID            string
	RelationshipsRedirected int
	RelationshipsSkipped    int
	RelationshipsDeleted    int
}

// MergeConcepts folds mergeNodeID into keepNodeID: every relationship
// incident to the merge node is either redirected onto the keep node (if no
// equivalent edge already exists) or skipped and its on_branches set unioned
// into the surviving edge; name/description/tags/alias_names/merged_node_ids
// are combined onto the keep node; the merge node is flagged is_merged and
// its remaining non-BELONGS_TO edges are deleted. Ported from the original
// entity-resolution service's merge_concepts, step for step.
func (s *Service) MergeConcepts(ctx context.Context, sc scope.Context, keepNodeID, mergeNodeID, reviewedBy string) (*MergeResult, error) {
	if keepNodeID == "" || mergeNodeID == "" || keepNodeID == mergeNodeID {
		return nil, apperr.Invalid("merge requires two distinct node ids")
	}

	res, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if err := validateMergePair(ctx, tx, sc, keepNodeID, mergeNodeID); err != nil {
			return nil, err
		}

		incident, err := fetchIncidentRelationships(ctx, tx, mergeNodeID)
		if err != nil {
			return nil, err
		}

		redirected, skipped, deleted := 0, 0, 0
		for _, rel := range incident {
			if rel.OtherLabel != "Concept" || rel.OtherNodeID == keepNodeID {
				skipped++
				continue
			}
			var source, target string
			if rel.IsOutgoing {
				source, target = keepNodeID, rel.OtherNodeID
			} else {
				source, target = rel.OtherNodeID, keepNodeID
			}
			exists, err := equivalentRelationshipExists(ctx, tx, source, target, rel.Type)
			if err != nil {
				return nil, err
			}
			if exists {
				if _, err := tx.Run(ctx, `
					MATCH (s:Concept {node_id: $source})-[r:`+safeType(rel.Type)+`]->(t:Concept {node_id: $target})
					SET r.on_branches = apoc.coll.toSet(coalesce(r.on_branches, []) + coalesce($branches, []))`,
					map[string]any{"source": source, "target": target, "branches": rel.Props["on_branches"]}); err != nil {
					return nil, err
				}
				skipped++
				continue
			}
			if err := redirectRelationship(ctx, tx, source, target, rel.Type, sc.BranchID, rel.Props); err != nil {
				return nil, err
			}
			redirected++
		}

		if err := combinePropertiesOntoKeep(ctx, tx, keepNodeID, mergeNodeID); err != nil {
			return nil, err
		}
		if err := markMerged(ctx, tx, mergeNodeID, keepNodeID); err != nil {
			return nil, err
		}
		del, err := deleteRemainingIncident(ctx, tx, mergeNodeID)
		if err != nil {
			return nil, err
		}
		deleted = del

		return &MergeResult{
			KeepNodeID: keepNodeID, MergeNodeID: mergeNodeID,
			RelationshipsRedirected: redirected, RelationshipsSkipped: skipped, RelationshipsDeleted: deleted,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*MergeResult), nil
}

func validateMergePair(ctx context.Context, tx neo4j.ManagedTransaction, sc scope.Context, keepID, mergeID string) error {
	result, err := tx.Run(ctx, `
		MATCH (k:Concept {graph_id: $graph_id, node_id: $keep_id})
		MATCH (m:Concept {graph_id: $graph_id, node_id: $merge_id})
		RETURN coalesce(k.is_merged, false) AS keep_merged, coalesce(m.is_merged, false) AS merge_merged`,
		map[string]any{"graph_id": sc.GraphID, "keep_id": keepID, "merge_id": mergeID})
	if err != nil {
		return err
	}
	record, err := result.Single(ctx)
	if err != nil {
		return apperr.NotFound("one or both concepts not found in this graph")
	}
	keepMerged, _ := record.Get("keep_merged")
	mergeMerged, _ := record.Get("merge_merged")
	if keepMerged.(bool) || mergeMerged.(bool) {
		return apperr.Conflict("cannot merge an already-merged concept")
	}
	return nil
}

type incidentRel struct {
	Type        string
	OtherNodeID string
	OtherLabel  string
	IsOutgoing  bool
	Props       map[string]any
}

func fetchIncidentRelationships(ctx context.Context, tx neo4j.ManagedTransaction, mergeNodeID string) ([]incidentRel, error) {
	result, err := tx.Run(ctx, `
		MATCH (m:Concept {node_id: $merge_id})-[r]-(other)
		WHERE type(r) <> 'BELONGS_TO'
		RETURN type(r) AS type, properties(r) AS props,
			coalesce(other.node_id, '') AS other_node_id,
			labels(other)[0] AS other_label,
			startNode(r).node_id = $merge_id AS is_outgoing`,
		map[string]any{"merge_id": mergeNodeID})
	if err != nil {
		return nil, err
	}
	var out []incidentRel
	for result.Next(ctx) {
		record := result.Record()
		typ, _ := record.Get("type")
		props, _ := record.Get("props")
		otherID, _ := record.Get("other_node_id")
		otherLabel, _ := record.Get("other_label")
		isOut, _ := record.Get("is_outgoing")
		out = append(out, incidentRel{
			Type: typ.(string), Props: props.(map[string]any),
			OtherNodeID: otherID.(string), OtherLabel: otherLabel.(string), IsOutgoing: isOut.(bool),
		})
	}
	return out, result.Err()
}

func equivalentRelationshipExists(ctx context.Context, tx neo4j.ManagedTransaction, source, target, relType string) (bool, error) {
	result, err := tx.Run(ctx, `
		MATCH (s:Concept {node_id: $source})-[r:`+safeType(relType)+`]->(t:Concept {node_id: $target})
		RETURN count(r) AS cnt`,
		map[string]any{"source": source, "target": target})
	if err != nil {
		return false, err
	}
	record, err := result.Single(ctx)
	if err != nil {
		return false, err
	}
	cnt, _ := record.Get("cnt")
	return cnt.(int64) > 0, nil
}

func redirectRelationship(ctx context.Context, tx neo4j.ManagedTransaction, source, target, relType, branchID string, props map[string]any) error {
	params := map[string]any{
		"source": source, "target": target, "branch_id": branchID,
	}
	for k, v := range props {
		params["p_"+k] = v
	}
	setFragments := "r.graph_id = coalesce($p_graph_id, r.graph_id)"
	setFragments += `, r.on_branches = CASE
			WHEN $p_on_branches IS NULL THEN [$branch_id]
			WHEN $branch_id IN $p_on_branches THEN $p_on_branches
			ELSE $p_on_branches + $branch_id
		END`
	if _, ok := props["on_branches"]; !ok {
		params["p_on_branches"] = nil
	}
	if _, ok := props["graph_id"]; !ok {
		params["p_graph_id"] = nil
	}
	for _, extra := range []string{"status", "confidence", "method", "rationale"} {
		if v, ok := props[extra]; ok {
			setFragments += ", r." + extra + " = $p_" + extra
			_ = v
		}
	}
	_, err := tx.Run(ctx, `
		MATCH (s:Concept {node_id: $source})
		MATCH (t:Concept {node_id: $target})
		MERGE (s)-[r:`+safeType(relType)+`]->(t)
		SET `+setFragments, params)
	return err
}

// combinePropertiesOntoKeep unions tags and merged_node_ids via apoc.coll.toSet;
// this requires an APOC-enabled Neo4j instance, the same assumption the reference Cypher in services_graph.py's
// Python equivalents make of their driver-side set operations.
func combinePropertiesOntoKeep(ctx context.Context, tx neo4j.ManagedTransaction, keepID, mergeID string) error {
	_, err := tx.Run(ctx, `
		MATCH (k:Concept {node_id: $keep_id})
		MATCH (m:Concept {node_id: $merge_id})
		SET k.description = CASE
				WHEN m.description IS NULL OR m.description = '' THEN k.description
				WHEN k.description IS NULL OR k.description = '' THEN m.description
				WHEN k.description CONTAINS m.description THEN k.description
				ELSE k.description + '\n\n' + m.description
			END,
			k.tags = apoc.coll.toSet(coalesce(k.tags, []) + coalesce(m.tags, [])),
			k.alias_names = CASE
				WHEN m.name IN coalesce(k.alias_names, []) OR m.name = k.name THEN coalesce(k.alias_names, [])
				ELSE coalesce(k.alias_names, []) + m.name
			END,
			k.merged_node_ids = apoc.coll.toSet(coalesce(k.merged_node_ids, []) + [m.node_id] + coalesce(m.merged_node_ids, [])),
			k.updated_at = timestamp()`,
		map[string]any{"keep_id": keepID, "merge_id": mergeID})
	return err
}

func markMerged(ctx context.Context, tx neo4j.ManagedTransaction, mergeID, keepID string) error {
	_, err := tx.Run(ctx, `
		MATCH (m:Concept {node_id: $merge_id})
		SET m.is_merged = true, m.merged_into = $keep_id, m.merged_at = $now`,
		map[string]any{"merge_id": mergeID, "keep_id": keepID, "now": time.Now().UTC().UnixMilli()})
	return err
}

func deleteRemainingIncident(ctx context.Context, tx neo4j.ManagedTransaction, mergeID string) (int, error) {
	result, err := tx.Run(ctx, `
		MATCH (m:Concept {node_id: $merge_id})-[r]-()
		WHERE type(r) <> 'BELONGS_TO'
		WITH r, count(r) AS unused
		DELETE r
		RETURN count(*) AS deleted`,
		map[string]any{"merge_id": mergeID})
	if err != nil {
		return 0, err
	}
	if !result.Next(ctx) {
		return 0, nil
	}
	deleted, _ := result.Record().Get("deleted")
	if v, ok := deleted.(int64); ok {
		return int(v), nil
	}
	return 0, nil
}
