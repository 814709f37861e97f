// Package llm defines the narrow external-collaborator ports the core
// delegates natural-language work to. No prompting logic lives here — per
// spec, the core treats the language model as an external collaborator
// behind a fixed interface; only a thin adapter struct is provided.
package llm

import "context"

// ExtractedClaim is what a collaborator returns per source chunk during
// ingestion's claim-extraction step.
type ExtractedClaim struct {
	Text                string
	Confidence          float64
	SourceSpan          string
	MentionedConceptNames []string
}

// ExtractedEntity is what a collaborator returns during lecture-extraction
// (concept/relationship discovery from raw text).
type ExtractedEntity struct {
	Name        string
	Description string
	Relationships []ExtractedRelationship
}

// ExtractedRelationship names a predicate between two entity names as seen
// by the collaborator, before Entities resolves names to node ids.
type ExtractedRelationship struct {
	SourceName string
	TargetName string
	Predicate  string
	Confidence float64
}

// Collaborator is the fixed boundary the core calls out to for anything
// requiring natural-language understanding: claim extraction, entity/
// relationship extraction, and intent classification fallback.
type Collaborator interface {
	ExtractClaims(ctx context.Context, chunkText string) ([]ExtractedClaim, error)
	ExtractEntities(ctx context.Context, text string) ([]ExtractedEntity, error)
	ClassifyIntent(ctx context.Context, message string) (intent string, confidence float64, reasoning string, err error)
}

// Embedder is the fixed boundary for embedding generation, consumed by
// merge-candidate scoring and semantic_search. Embedding generation itself
// is out of scope (spec §1); this is only the interface shape.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
