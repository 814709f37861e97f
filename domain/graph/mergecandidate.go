package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"substrate/domain/apperr"
)

// MergeCandidateStatus is the review state of a proposed merge.
type MergeCandidateStatus string

const (
	MergeCandidateProposed MergeCandidateStatus = "PROPOSED"
	MergeCandidateAccepted MergeCandidateStatus = "ACCEPTED"
	MergeCandidateRejected MergeCandidateStatus = "REJECTED"
)

// MergeCandidateMethod names which scoring path produced the candidate.
type MergeCandidateMethod string

const (
	MergeMethodHybrid MergeCandidateMethod = "hybrid" // 0.4*string + 0.6*embedding
	MergeMethodString MergeCandidateMethod = "string"  // embedding unavailable, string score only
)

// MergeCandidate proposes that two Concepts in the same graph refer to the
// same real-world entity and should be merged.
type MergeCandidate struct {
	CandidateID string // MERGE_<sha256(graph_id+min(id)+max(id))[:16] upper>
	GraphID     string
	SrcNodeID   string // lexicographically smaller of the pair, by convention
	DstNodeID   string
	Score       float64
	Method      MergeCandidateMethod
	Rationale   string
	Status      MergeCandidateStatus
	ReviewedBy  string
	ReviewedAt  *time.Time
	CreatedAt   time.Time
}

// NewMergeCandidateID derives the deterministic candidate id from the graph
// and the pair's node ids, ordering them lexicographically first so the same
// pair always yields the same id regardless of discovery order.
func NewMergeCandidateID(graphID, nodeID1, nodeID2 string) (id, srcID, dstID string) {
	srcID, dstID = nodeID1, nodeID2
	if dstID < srcID {
		srcID, dstID = dstID, srcID
	}
	sum := sha256.Sum256([]byte(graphID + srcID + dstID))
	hash := strings.ToUpper(hex.EncodeToString(sum[:])[:16])
	return "MERGE_" + hash, srcID, dstID
}

func NewMergeCandidate(graphID, nodeID1, nodeID2 string, score float64, method MergeCandidateMethod, rationale string) (*MergeCandidate, error) {
	if graphID == "" {
		return nil, apperr.Invalid("merge candidate requires graph_id")
	}
	if nodeID1 == "" || nodeID2 == "" || nodeID1 == nodeID2 {
		return nil, apperr.Invalid("merge candidate requires two distinct node ids")
	}
	candidateID, srcID, dstID := NewMergeCandidateID(graphID, nodeID1, nodeID2)
	return &MergeCandidate{
		CandidateID: candidateID,
		GraphID:     graphID,
		SrcNodeID:   srcID,
		DstNodeID:   dstID,
		Score:       score,
		Method:      method,
		Rationale:   rationale,
		Status:      MergeCandidateProposed,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// SetStatus transitions a candidate's review state, stamping who reviewed it
// and when; it refuses to move a terminal (ACCEPTED/REJECTED) candidate back
// to PROPOSED.
func (m *MergeCandidate) SetStatus(status MergeCandidateStatus, reviewedBy string) error {
	if m.Status != MergeCandidateProposed && status == MergeCandidateProposed {
		return apperr.Conflict("cannot revert a reviewed merge candidate to PROPOSED")
	}
	m.Status = status
	m.ReviewedBy = reviewedBy
	now := time.Now().UTC()
	m.ReviewedAt = &now
	return nil
}
