package graph

import (
	"time"

	"substrate/domain/apperr"
)

// Community is a cluster of related Concepts with a generated summary, used
// by the retrieval core's community_summary intent.
type Community struct {
	CommunityID string
	GraphID      string
	Label        string
	Summary      string
	ConceptIDs   []string
	UpdatedAt    time.Time
}

func NewCommunity(graphID, communityID, label string, conceptIDs []string) (*Community, error) {
	if graphID == "" || communityID == "" {
		return nil, apperr.Invalid("community requires graph_id and community_id")
	}
	if len(conceptIDs) == 0 {
		return nil, apperr.Invalid("community requires at least one concept")
	}
	return &Community{
		CommunityID: communityID,
		GraphID:     graphID,
		Label:       label,
		ConceptIDs:  conceptIDs,
		UpdatedAt:   time.Now().UTC(),
	}, nil
}
