package graph

import (
	"time"

	"substrate/domain/apperr"
)

// SourceDocument groups the chunks produced from one ingested Artifact —
// the unit amendment-supersession operates on (see EvidenceSnapshot).
type SourceDocument struct {
	SourceID    string
	GraphID     string
	ArtifactID  string
	Title       string
	PublishedAt *time.Time
	Supersedes  string // SourceID this document amends, if any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewSourceDocument(graphID, sourceID, artifactID, title string) (*SourceDocument, error) {
	if graphID == "" || sourceID == "" || artifactID == "" {
		return nil, apperr.Invalid("source document requires graph_id, source_id, artifact_id")
	}
	now := time.Now().UTC()
	return &SourceDocument{
		SourceID:   sourceID,
		GraphID:    graphID,
		ArtifactID: artifactID,
		Title:      title,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// SourceChunk is a normalized, hashable slice of a SourceDocument's content —
// the unit ingestion chunks text into before claim extraction.
type SourceChunk struct {
	ChunkID      string
	GraphID      string
	SourceID     string
	Index        int
	Text         string
	ContentHash  string
	CreatedAt    time.Time
}

func NewSourceChunk(graphID, chunkID, sourceID string, index int, text, contentHash string) (*SourceChunk, error) {
	if graphID == "" || chunkID == "" || sourceID == "" {
		return nil, apperr.Invalid("source chunk requires graph_id, chunk_id, source_id")
	}
	if index < 0 {
		return nil, apperr.Invalid("source chunk index must be >= 0")
	}
	if contentHash == "" {
		return nil, apperr.Invalid("source chunk requires a content_hash")
	}
	return &SourceChunk{
		ChunkID:     chunkID,
		GraphID:     graphID,
		SourceID:    sourceID,
		Index:       index,
		Text:        text,
		ContentHash: contentHash,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
