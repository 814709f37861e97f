package graph

import (
	"time"

	"substrate/domain/apperr"
)

// EvidenceSnapshot records one normalized, hashed capture of a SourceDocument's
// content at a point in time. A new snapshot is only created when the
// normalized content hash differs from the current one (dedup by hash).
type EvidenceSnapshot struct {
	SnapshotID  string
	GraphID     string
	SourceID    string
	ContentHash string
	NormalizedText string
	IsAmendment bool
	Supersedes  string // prior SnapshotID, set when IsAmendment
	CapturedAt  time.Time
}

func NewEvidenceSnapshot(graphID, snapshotID, sourceID, contentHash, normalizedText string) (*EvidenceSnapshot, error) {
	if graphID == "" || snapshotID == "" || sourceID == "" {
		return nil, apperr.Invalid("evidence snapshot requires graph_id, snapshot_id, source_id")
	}
	if contentHash == "" {
		return nil, apperr.Invalid("evidence snapshot requires a content_hash")
	}
	return &EvidenceSnapshot{
		SnapshotID:     snapshotID,
		GraphID:        graphID,
		SourceID:       sourceID,
		ContentHash:    contentHash,
		NormalizedText: normalizedText,
		CapturedAt:     time.Now().UTC(),
	}, nil
}

// ChangeEventKind classifies what happened between two snapshots of the same
// document.
type ChangeEventKind string

const (
	ChangeMinorEdit ChangeEventKind = "MINOR_EDIT"
	ChangeMajorEdit ChangeEventKind = "MAJOR_EDIT"
	ChangeAmendment ChangeEventKind = "AMENDMENT"
)

// ChangeEvent is emitted whenever createOrGetSnapshot detects content drift
// against the prior snapshot for a SourceDocument; it is the signal that
// downstream claims anchored to the prior snapshot may need staleness review.
type ChangeEvent struct {
	EventID        string
	GraphID        string
	SourceID       string
	PriorSnapshotID string
	NewSnapshotID  string
	Kind           ChangeEventKind
	DetectedAt     time.Time
}

func NewChangeEvent(graphID, eventID, sourceID, priorSnapshotID, newSnapshotID string, kind ChangeEventKind) (*ChangeEvent, error) {
	if graphID == "" || eventID == "" || sourceID == "" || newSnapshotID == "" {
		return nil, apperr.Invalid("change event requires graph_id, event_id, source_id, new_snapshot_id")
	}
	return &ChangeEvent{
		EventID:         eventID,
		GraphID:         graphID,
		SourceID:        sourceID,
		PriorSnapshotID: priorSnapshotID,
		NewSnapshotID:   newSnapshotID,
		Kind:            kind,
		DetectedAt:      time.Now().UTC(),
	}, nil
}
