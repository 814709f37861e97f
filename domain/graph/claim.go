package graph

import (
	"time"

	"substrate/domain/apperr"
)

// ClaimStatus tracks a claim's standing as its backing evidence changes.
type ClaimStatus string

const (
	ClaimAccepted ClaimStatus = "ACCEPTED"
	ClaimStale    ClaimStatus = "STALE"     // backing snapshot changed; needs re-review
	ClaimRejected ClaimStatus = "REJECTED"
)

// Claim is an assertion extracted from a chunk and linked to the concepts it
// mentions. ACCEPTED claims must carry both SourceID and ChunkID.
type Claim struct {
	ClaimID   string // CLAIM_<hex8>
	GraphID   string
	SourceID  string
	ChunkID   string
	Text      string
	Status    ClaimStatus
	ConceptIDs []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewClaim(graphID, claimID, sourceID, chunkID, text string) (*Claim, error) {
	if graphID == "" || claimID == "" {
		return nil, apperr.Invalid("claim requires graph_id and claim_id")
	}
	if text == "" {
		return nil, apperr.Invalid("claim requires non-empty text")
	}
	if sourceID == "" || chunkID == "" {
		return nil, apperr.Invalid("accepted claim requires source_id and chunk_id")
	}
	now := time.Now().UTC()
	return &Claim{
		ClaimID:   claimID,
		GraphID:   graphID,
		SourceID:  sourceID,
		ChunkID:   chunkID,
		Text:      text,
		Status:    ClaimAccepted,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkStale transitions an ACCEPTED claim to STALE when its backing snapshot
// changes under it; REJECTED claims never become STALE.
func (c *Claim) MarkStale() error {
	if c.Status == ClaimRejected {
		return apperr.Conflict("rejected claim cannot be marked stale")
	}
	c.Status = ClaimStale
	c.UpdatedAt = time.Now().UTC()
	return nil
}
