package graph

import (
	"time"

	"substrate/domain/apperr"
)

// RelationshipStatus is the review state of a Relationship edge.
type RelationshipStatus string

const (
	RelationshipAccepted RelationshipStatus = "ACCEPTED"
	RelationshipProposed RelationshipStatus = "PROPOSED"
	RelationshipRejected RelationshipStatus = "REJECTED"
)

// RelationshipMethod records how a relationship was produced, for audit and
// for the 0.6 confidence gate the visibility predicate applies to proposed edges.
type RelationshipMethod string

const (
	MethodManual  RelationshipMethod = "MANUAL"
	MethodLLM     RelationshipMethod = "LLM"
	MethodHeuristic RelationshipMethod = "HEURISTIC"
)

// CrossGraphLinkType is the single relationship type allowed to span two
// GraphSpaces (see Open Question (b) in DESIGN.md on liveness enforcement).
const CrossGraphLinkType = "CROSS_GRAPH_LINK"

// Relationship is a typed, directed edge between two Concepts (or, for
// CROSS_GRAPH_LINK, between Concepts in different GraphSpaces).
type Relationship struct {
	GraphID    string
	SourceID   string
	TargetID   string
	Type       string
	Status     RelationshipStatus
	Confidence float64
	Method     RelationshipMethod
	OnBranches []string
	Properties map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewRelationship validates the cross-graph rule: every relationship type
// except CROSS_GRAPH_LINK must have both endpoints in the same GraphSpace.
func NewRelationship(graphID, sourceID, targetID, relType string, sourceGraphID, targetGraphID string) (*Relationship, error) {
	if sourceID == "" || targetID == "" {
		return nil, apperr.Invalid("relationship requires source_id and target_id")
	}
	if relType == "" {
		return nil, apperr.Invalid("relationship requires a type")
	}
	if relType != CrossGraphLinkType {
		if sourceGraphID != targetGraphID {
			return nil, apperr.Forbidden("relationship endpoints must share a graph_id unless type is " + CrossGraphLinkType)
		}
		if graphID != sourceGraphID {
			return nil, apperr.Invalid("relationship graph_id must match its endpoints")
		}
	}
	now := time.Now().UTC()
	return &Relationship{
		GraphID:   graphID,
		SourceID:  sourceID,
		TargetID:  targetID,
		Type:      relType,
		Status:    RelationshipAccepted,
		Method:    MethodManual,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsVisibleUnderConfidenceGate applies the 0.6 proposed-edge confidence
// threshold the visibility predicate enforces: ACCEPTED edges are always
// visible, PROPOSED edges need confidence >= 0.6, REJECTED edges never are.
func (r *Relationship) IsVisibleUnderConfidenceGate(includeProposed bool) bool {
	switch r.Status {
	case RelationshipAccepted:
		return true
	case RelationshipProposed:
		return includeProposed && r.Confidence >= 0.6
	default:
		return false
	}
}
