package sync

import (
	"context"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"substrate/domain/apperr"
	"substrate/domain/graph"
	"substrate/internal/ingest"
	"substrate/internal/scope"
)

// handleArtifactIngest routes through the same ingestion kernel every other
// connector uses, with extraction steps disabled — a sync replay only needs
// the artifact node to exist locally, not a full re-extraction (spec §4.8).
func (s *Service) handleArtifactIngest(ctx context.Context, sc scope.Context, ev ClientEvent) (map[string]any, error) {
	p := ev.Payload
	url := stringField(p, "url")
	text := stringField(p, "text")
	if url == "" || text == "" {
		return nil, apperr.Invalid("artifact.ingest requires url and text")
	}
	meta := mapField(p, "metadata")
	if meta == nil {
		meta = map[string]any{}
	}
	meta["captured_at"] = p["captured_at"]
	meta["content_hash"] = p["content_hash"]

	result, err := s.ingest.Ingest(ctx, sc, ingest.ArtifactInput{
		ArtifactType: graph.ArtifactWeb,
		SourceURL:    url,
		SourceID:     stringField(p, "artifact_id"),
		Title:        stringField(p, "title"),
		Domain:       stringField(p, "domain"),
		Text:         text,
		Metadata:     meta,
		Actions: ingest.Actions{
			RunLectureExtraction: false,
			RunChunkAndClaims:    false,
			CreateArtifactNode:   true,
		},
		Policy: ingest.Policy{LocalOnly: true},
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"artifact_id": result.ArtifactID, "content_hash": p["content_hash"]}, nil
}

// handleResourceCreate MERGEs a Resource node, splitting ON CREATE/ON MATCH
// so a replayed create never clobbers fields the client didn't resend.
func (s *Service) handleResourceCreate(ctx context.Context, sc scope.Context, ev ClientEvent) (map[string]any, error) {
	p := ev.Payload
	kind := stringField(p, "kind")
	url := stringField(p, "url")
	if kind == "" || url == "" {
		return nil, apperr.Invalid("resource.create requires kind, url")
	}
	resourceID := stringField(p, "resource_id")
	if resourceID == "" {
		resourceID = "R" + shortID(ev.EventID, 8)
	}

	params := map[string]any{
		"graph_id": sc.GraphID, "resource_id": resourceID, "kind": kind, "url": url,
		"title": stringField(p, "title"), "mime_type": stringField(p, "mime_type"),
		"caption": stringField(p, "caption"), "source": stringField(p, "source"),
		"metadata_json": toJSONOrEmpty(mapField(p, "metadata")),
	}
	// Fields the client didn't send go in as null so ON MATCH's coalesce
	// keeps the stored values.
	for k, v := range params {
		if v == "" {
			params[k] = nil
		}
	}
	_, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MATCH (g:GraphSpace {graph_id: $graph_id})
			MERGE (r:Resource {graph_id: $graph_id, resource_id: $resource_id})
			ON CREATE SET r.kind = $kind, r.url = $url, r.title = $title, r.mime_type = $mime_type,
				r.caption = $caption, r.source = $source, r.metadata_json = $metadata_json,
				r.created_at = timestamp(), r.updated_at = timestamp()
			ON MATCH SET r.kind = coalesce($kind, r.kind), r.url = coalesce($url, r.url),
				r.title = coalesce($title, r.title), r.mime_type = coalesce($mime_type, r.mime_type),
				r.caption = coalesce($caption, r.caption), r.source = coalesce($source, r.source),
				r.metadata_json = coalesce($metadata_json, r.metadata_json), r.updated_at = timestamp()
			MERGE (r)-[:BELONGS_TO]->(g)`,
			params)
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"resource_id": resourceID}, nil
}

// handleResourceLink MERGEs HAS_RESOURCE with branch union, same pattern as
// every other scoped edge in the substrate.
func (s *Service) handleResourceLink(ctx context.Context, sc scope.Context, ev ClientEvent) (map[string]any, error) {
	p := ev.Payload
	conceptID := stringField(p, "concept_id")
	resourceID := stringField(p, "resource_id")
	if conceptID == "" || resourceID == "" {
		return nil, apperr.Invalid("resource.link requires concept_id, resource_id")
	}
	_, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MATCH (g:GraphSpace {graph_id: $graph_id})
			MATCH (c:Concept {graph_id: $graph_id, node_id: $concept_id})-[:BELONGS_TO]->(g)
			MATCH (r:Resource {graph_id: $graph_id, resource_id: $resource_id})-[:BELONGS_TO]->(g)
			WHERE $branch_id IN coalesce(c.on_branches, [])
			MERGE (c)-[rel:HAS_RESOURCE {graph_id: $graph_id}]->(r)
			SET rel.on_branches = CASE
					WHEN rel.on_branches IS NULL THEN [$branch_id]
					WHEN $branch_id IN rel.on_branches THEN rel.on_branches
					ELSE rel.on_branches + $branch_id
				END,
				rel.updated_at = timestamp()`,
			map[string]any{
				"graph_id": sc.GraphID, "branch_id": sc.BranchID,
				"concept_id": conceptID, "resource_id": resourceID,
			})
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"linked": true}, nil
}

// handleTrailStepAppend MERGEs a Trail and one TrailStep onto it, per spec
// §4.8.
func (s *Service) handleTrailStepAppend(ctx context.Context, sc scope.Context, ev ClientEvent) (map[string]any, error) {
	p := ev.Payload
	trailID := stringField(p, "trail_id")
	kind := stringField(p, "kind")
	if trailID == "" || kind == "" {
		return nil, apperr.Invalid("trail.step.append requires trail_id, kind")
	}
	stepID := stringField(p, "step_id")
	if stepID == "" {
		stepID = "S" + shortID(ev.EventID, 10)
	}

	_, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MATCH (g:GraphSpace {graph_id: $graph_id})
			MERGE (t:Trail {graph_id: $graph_id, trail_id: $trail_id})
			ON CREATE SET t.created_at = timestamp(), t.updated_at = timestamp(),
				t.name = coalesce($trail_name, $trail_id)
			ON MATCH SET t.updated_at = timestamp()
			MERGE (t)-[:BELONGS_TO]->(g)
			MERGE (s:TrailStep {graph_id: $graph_id, step_id: $step_id})
			ON CREATE SET s.created_at = timestamp(), s.updated_at = timestamp()
			SET s.kind = $kind, s.label = $label, s.note = $note,
				s.focus_concept_id = $focus_concept_id, s.focus_quote_id = $focus_quote_id,
				s.page_url = $page_url, s.client_created_at_ms = $client_created_at_ms,
				s.updated_at = timestamp()
			MERGE (s)-[:BELONGS_TO]->(g)
			MERGE (t)-[r:HAS_STEP {graph_id: $graph_id}]->(s)
			SET r.on_branches = CASE
					WHEN r.on_branches IS NULL THEN [$branch_id]
					WHEN $branch_id IN r.on_branches THEN r.on_branches
					ELSE r.on_branches + $branch_id
				END,
				r.updated_at = timestamp()`,
			map[string]any{
				"graph_id": sc.GraphID, "branch_id": sc.BranchID,
				"trail_id": trailID, "trail_name": stringField(p, "trail_name"),
				"step_id": stepID, "kind": kind, "label": stringField(p, "label"),
				"note": stringField(p, "note"), "focus_concept_id": stringField(p, "focus_concept_id"),
				"focus_quote_id": stringField(p, "focus_quote_id"), "page_url": stringField(p, "page_url"),
				"client_created_at_ms": p["created_at_ms"],
			})
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"trail_id": trailID, "step_id": stepID}, nil
}

func shortID(s string, n int) string {
	if len(s) > n {
		s = s[:n]
	}
	return strings.ToUpper(s)
}
