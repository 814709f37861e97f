package snapshots

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"math"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"substrate/domain/apperr"
	"substrate/domain/graph"
	"substrate/internal/scope"
	"substrate/internal/store"
)

// Service is the snapshots component.
type Service struct {
	store *store.Store
}

func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

func newID(prefix string) string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return prefix + hex.EncodeToString(buf)
}

// Result is what createOrGetSnapshot returns: the snapshot, plus a change
// event if this call detected drift against the prior snapshot.
type Result struct {
	Snapshot    *graph.EvidenceSnapshot
	ChangeEvent *graph.ChangeEvent
}

// Metadata carries connector-supplied flags affecting change classification.
type Metadata struct {
	IsAmendment      bool
	AmendsAccession  string
}

// CreateOrGetSnapshot dedupes by (graph_id, source_url, content_hash); when
// content has drifted from the prior snapshot for the same URL it creates a
// new snapshot, classifies the change (new document / amendment / minor or
// major content update), and propagates staleness to claims backed by the
// superseded document.
func (s *Service) CreateOrGetSnapshot(ctx context.Context, sc scope.Context, sourceDocumentID, sourceURL string, sourceType SourceType, rawText, rawHTML string, meta Metadata) (*Result, error) {
	normalized := Normalize(sourceType, rawText, rawHTML)
	contentHash := ContentHash(normalized)

	res, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		existing, err := findSnapshotByHash(ctx, tx, sc.GraphID, sourceURL, contentHash)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &Result{Snapshot: existing}, nil
		}

		prior, err := findLatestSnapshot(ctx, tx, sc.GraphID, sourceURL)
		if err != nil {
			return nil, err
		}

		snapshotID := newID("SNAP_")
		snapshot, err := graph.NewEvidenceSnapshot(sc.GraphID, snapshotID, sourceDocumentID, contentHash, normalized)
		if err != nil {
			return nil, err
		}
		if err := insertSnapshot(ctx, tx, snapshot, sourceURL); err != nil {
			return nil, err
		}

		var changeEvent *graph.ChangeEvent
		switch {
		case prior == nil:
			changeEvent, err = newAndInsertChangeEvent(ctx, tx, sc.GraphID, sourceDocumentID, "", snapshotID, graph.ChangeAmendment, meta, normalized, "")
			if err != nil {
				return nil, err
			}
		case meta.IsAmendment:
			changeEvent, err = newAndInsertChangeEvent(ctx, tx, sc.GraphID, sourceDocumentID, prior.SnapshotID, snapshotID, graph.ChangeAmendment, meta, normalized, prior.NormalizedText)
			if err != nil {
				return nil, err
			}
			staleIDs, err := staleClaimsForDocument(ctx, tx, sc.GraphID, sourceDocumentID)
			if err != nil {
				return nil, err
			}
			if err := markClaimsStale(ctx, tx, staleIDs, changeEvent.EventID); err != nil {
				return nil, err
			}
		default:
			kind := classifyEdit(prior.NormalizedText, normalized)
			changeEvent, err = newAndInsertChangeEvent(ctx, tx, sc.GraphID, sourceDocumentID, prior.SnapshotID, snapshotID, kind, meta, normalized, prior.NormalizedText)
			if err != nil {
				return nil, err
			}
		}

		return &Result{Snapshot: snapshot, ChangeEvent: changeEvent}, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*Result), nil
}

// classifyEdit buckets a content change as minor (< 10% length delta) or
// major, per spec §4.5.
func classifyEdit(prev, next string) graph.ChangeEventKind {
	prevLen, nextLen := float64(len(prev)), float64(len(next))
	maxLen := math.Max(prevLen, nextLen)
	if maxLen == 0 {
		return graph.ChangeMinorEdit
	}
	delta := math.Abs(nextLen - prevLen)
	if delta < 0.1*maxLen {
		return graph.ChangeMinorEdit
	}
	return graph.ChangeMajorEdit
}

func findSnapshotByHash(ctx context.Context, tx neo4j.ManagedTransaction, graphID, sourceURL, contentHash string) (*graph.EvidenceSnapshot, error) {
	result, err := tx.Run(ctx, `
		MATCH (s:EvidenceSnapshot {graph_id: $graph_id, source_url: $source_url, content_hash: $content_hash})
		RETURN s.snapshot_id AS snapshot_id, s.source_document_id AS source_document_id`,
		map[string]any{"graph_id": graphID, "source_url": sourceURL, "content_hash": contentHash})
	if err != nil {
		return nil, err
	}
	record, err := result.Single(ctx)
	if err != nil {
		return nil, nil
	}
	id, _ := record.Get("snapshot_id")
	sourceID, _ := record.Get("source_document_id")
	return &graph.EvidenceSnapshot{SnapshotID: id.(string), GraphID: graphID, SourceID: sourceID.(string), ContentHash: contentHash}, nil
}

func findLatestSnapshot(ctx context.Context, tx neo4j.ManagedTransaction, graphID, sourceURL string) (*graph.EvidenceSnapshot, error) {
	result, err := tx.Run(ctx, `
		MATCH (s:EvidenceSnapshot {graph_id: $graph_id, source_url: $source_url})
		RETURN s.snapshot_id AS snapshot_id, s.source_document_id AS source_document_id,
			s.normalized_text AS normalized_text
		ORDER BY s.observed_at DESC LIMIT 1`,
		map[string]any{"graph_id": graphID, "source_url": sourceURL})
	if err != nil {
		return nil, err
	}
	record, err := result.Single(ctx)
	if err != nil {
		return nil, nil
	}
	id, _ := record.Get("snapshot_id")
	sourceID, _ := record.Get("source_document_id")
	normalizedText, _ := record.Get("normalized_text")
	nt, _ := normalizedText.(string)
	return &graph.EvidenceSnapshot{SnapshotID: id.(string), GraphID: graphID, SourceID: sourceID.(string), NormalizedText: nt}, nil
}

func insertSnapshot(ctx context.Context, tx neo4j.ManagedTransaction, snap *graph.EvidenceSnapshot, sourceURL string) error {
	_, err := tx.Run(ctx, `
		MATCH (g:GraphSpace {graph_id: $graph_id})
		CREATE (s:EvidenceSnapshot {
			snapshot_id: $snapshot_id, graph_id: $graph_id, source_document_id: $source_document_id,
			source_url: $source_url, content_hash: $content_hash, normalized_text: $normalized_text,
			observed_at: timestamp()
		})
		MERGE (s)-[:BELONGS_TO]->(g)`,
		map[string]any{
			"graph_id": snap.GraphID, "snapshot_id": snap.SnapshotID, "source_document_id": snap.SourceID,
			"source_url": sourceURL, "content_hash": snap.ContentHash, "normalized_text": snap.NormalizedText,
		})
	return err
}

func newAndInsertChangeEvent(ctx context.Context, tx neo4j.ManagedTransaction, graphID, sourceDocumentID, priorSnapshotID, newSnapshotID string, kind graph.ChangeEventKind, meta Metadata, newText, prevText string) (*graph.ChangeEvent, error) {
	eventID := newID("CHG_")
	severity := severityFor(kind, prevText, newText)
	diffSummary := diffSummaryFor(kind, priorSnapshotID)
	event, err := graph.NewChangeEvent(graphID, eventID, sourceDocumentID, priorSnapshotID, newSnapshotID, kind)
	if err != nil {
		return nil, err
	}
	_, err = tx.Run(ctx, `
		CREATE (e:ChangeEvent {
			change_event_id: $event_id, graph_id: $graph_id, change_type: $change_type, severity: $severity,
			diff_summary: $diff_summary, prev_snapshot_id: $prev_snapshot_id, next_snapshot_id: $next_snapshot_id,
			created_at: timestamp()
		})`,
		map[string]any{
			"event_id": eventID, "graph_id": graphID, "change_type": string(kind), "severity": severity,
			"diff_summary": diffSummary, "prev_snapshot_id": priorSnapshotID, "next_snapshot_id": newSnapshotID,
		})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func severityFor(kind graph.ChangeEventKind, prev, next string) string {
	switch kind {
	case graph.ChangeAmendment:
		return "HIGH"
	default:
		if classifyEdit(prev, next) == graph.ChangeMajorEdit {
			return "HIGH"
		}
		return "LOW"
	}
}

func diffSummaryFor(kind graph.ChangeEventKind, priorSnapshotID string) string {
	if priorSnapshotID == "" {
		return "New document"
	}
	switch kind {
	case graph.ChangeAmendment:
		return "Amendment supersedes prior content"
	default:
		return "Content updated"
	}
}

func staleClaimsForDocument(ctx context.Context, tx neo4j.ManagedTransaction, graphID, sourceDocumentID string) ([]string, error) {
	result, err := tx.Run(ctx, `
		MATCH (c:Claim {graph_id: $graph_id, source_id: $source_id})
		WHERE c.status <> 'REJECTED'
		RETURN c.claim_id AS claim_id`,
		map[string]any{"graph_id": graphID, "source_id": sourceDocumentID})
	if err != nil {
		return nil, err
	}
	var ids []string
	for result.Next(ctx) {
		id, _ := result.Record().Get("claim_id")
		ids = append(ids, id.(string))
	}
	return ids, result.Err()
}

func markClaimsStale(ctx context.Context, tx neo4j.ManagedTransaction, claimIDs []string, changeEventID string) error {
	if len(claimIDs) == 0 {
		return nil
	}
	_, err := tx.Run(ctx, `
		UNWIND $claim_ids AS claim_id
		MATCH (c:Claim {claim_id: claim_id})
		SET c.status = 'STALE', c.staleness_change_event_id = $change_event_id, c.updated_at = timestamp()`,
		map[string]any{"claim_ids": claimIDs, "change_event_id": changeEventID})
	return err
}

// StaleClaimsForChange is the public operation name from spec §4.5. It
// returns the IDs of the claims backed by sourceDocumentID and marks nothing;
// MarkClaimsStale does the marking. CreateOrGetSnapshot runs the same query
// internally for the amendment path above.
func (s *Service) StaleClaimsForChange(ctx context.Context, sc scope.Context, sourceDocumentID string) ([]string, error) {
	res, err := s.store.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return staleClaimsForDocument(ctx, tx, sc.GraphID, sourceDocumentID)
	})
	if err != nil {
		return nil, err
	}
	ids, _ := res.([]string)
	return ids, nil
}

// Exists reports whether a snapshot has ever been captured for sourceURL on
// sc's graph — used by the offline-warm surface to tell a "never ingested"
// URL apart from one whose snapshot is simply not yet cache-hot.
func (s *Service) Exists(ctx context.Context, sc scope.Context, sourceURL string) (bool, error) {
	res, err := s.store.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		snap, err := findLatestSnapshot(ctx, tx, sc.GraphID, sourceURL)
		if err != nil {
			return nil, err
		}
		return snap != nil, nil
	})
	if err != nil {
		return false, err
	}
	found, _ := res.(bool)
	return found, nil
}

// MarkClaimsStale is the public entry point matching spec §4.5's
// markClaimsStale(claimIDs, changeEventID).
func (s *Service) MarkClaimsStale(ctx context.Context, claimIDs []string, changeEventID string) error {
	if len(claimIDs) == 0 {
		return apperr.Invalid("no claim ids supplied")
	}
	_, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, markClaimsStale(ctx, tx, claimIDs, changeEventID)
	})
	return err
}
