package review

import (
	"context"
	"encoding/json"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"substrate/internal/scope"
	"substrate/internal/store"
)

// AuditEntry is one append-only record of a review action. The original
// Python routed these through a services_logging module that isn't part of
// the filtered source tree this was rebuilt from; the shape here instead
// follows the same graph-resident event-log pattern internal/sync already
// uses for the offline outbox, a log of nodes scoped to a graph. Unlike the
// outbox, whose ClientEvent nodes are later updated with their apply status,
// audit nodes are only ever created.
type AuditEntry struct {
	Action      string
	SourceID    string
	TargetID    string
	RelType     string
	PriorStatus string
	Reviewer    string
	Metadata    map[string]any
}

// AuditLog writes ReviewAudit nodes — one per call, never merged or
// updated, so the history survives even if a later action touches the same
// edge or candidate again.
type AuditLog struct {
	store *store.Store
}

func NewAuditLog(s *store.Store) *AuditLog {
	return &AuditLog{store: s}
}

// Append writes one audit node and returns any write error. review.Service
// discards that error, so a failed audit write is neither logged nor
// surfaced as a review failure — the review action itself already committed.
func (a *AuditLog) Append(ctx context.Context, sc scope.Context, entry AuditEntry) error {
	metaJSON := "{}"
	if entry.Metadata != nil {
		if b, err := json.Marshal(entry.Metadata); err == nil {
			metaJSON = string(b)
		}
	}
	_, err := a.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MATCH (g:GraphSpace {graph_id: $graph_id})
			CREATE (e:ReviewAudit {
				graph_id: $graph_id, action: $action, source_id: $source_id, target_id: $target_id,
				rel_type: $rel_type, prior_status: $prior_status, reviewed_by: $reviewed_by,
				metadata_json: $metadata_json, created_at: timestamp()
			})
			MERGE (e)-[:BELONGS_TO]->(g)`,
			map[string]any{
				"graph_id": sc.GraphID, "action": entry.Action, "source_id": entry.SourceID,
				"target_id": entry.TargetID, "rel_type": entry.RelType, "prior_status": entry.PriorStatus,
				"reviewed_by": entry.Reviewer, "metadata_json": metaJSON,
			})
	})
	return err
}

// List returns the most recent audit entries for a graph, newest first —
// used by the review dashboard's history view.
func (a *AuditLog) List(ctx context.Context, sc scope.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	res, err := a.store.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (e:ReviewAudit {graph_id: $graph_id})
			RETURN e.action AS action, e.source_id AS source_id, e.target_id AS target_id,
				e.rel_type AS rel_type, e.prior_status AS prior_status, e.reviewed_by AS reviewed_by,
				e.metadata_json AS metadata_json
			ORDER BY e.created_at DESC
			LIMIT $limit`,
			map[string]any{"graph_id": sc.GraphID, "limit": int64(limit)})
		if err != nil {
			return nil, err
		}
		var out []AuditEntry
		for result.Next(ctx) {
			rec := result.Record()
			action, _ := rec.Get("action")
			srcID, _ := rec.Get("source_id")
			dstID, _ := rec.Get("target_id")
			relType, _ := rec.Get("rel_type")
			prior, _ := rec.Get("prior_status")
			reviewer, _ := rec.Get("reviewed_by")
			metaJSON, _ := rec.Get("metadata_json")
			entry := AuditEntry{
				Action: action.(string), SourceID: srcID.(string), TargetID: dstID.(string),
				RelType: relType.(string), PriorStatus: prior.(string), Reviewer: reviewer.(string),
			}
			if s, ok := metaJSON.(string); ok && s != "" {
				var m map[string]any
				if json.Unmarshal([]byte(s), &m) == nil {
					entry.Metadata = m
				}
			}
			out = append(out, entry)
		}
		return out, result.Err()
	})
	if err != nil {
		return nil, err
	}
	return res.([]AuditEntry), nil
}
