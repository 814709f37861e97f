package entities

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"substrate/domain/graph"
	"substrate/internal/scope"
)

// CreateArtifact persists an Artifact node the ingestion kernel has already
// validated, keyed by (graph_id, url, content_hash) per the schema's node
// key — re-ingesting identical content MERGEs onto the same node.
func (s *Service) CreateArtifact(ctx context.Context, sc scope.Context, a *graph.Artifact) error {
	_, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MATCH (g:GraphSpace {graph_id: $graph_id})
			MERGE (a:Artifact {graph_id: $graph_id, url: $url, content_hash: $content_hash})
			ON CREATE SET a.artifact_id = $artifact_id, a.kind = $kind, a.title = $title,
				a.created_at = timestamp(), a.updated_at = timestamp()
			ON MATCH SET a.updated_at = timestamp()
			MERGE (a)-[:BELONGS_TO]->(g)`,
			map[string]any{
				"graph_id": sc.GraphID, "artifact_id": a.ArtifactID, "url": a.URL,
				"content_hash": a.ContentHash, "kind": string(a.Kind), "title": a.Title,
			})
	})
	return err
}

// CreateSourceDocument persists a SourceDocument node grouping the chunks
// produced from one Artifact.
func (s *Service) CreateSourceDocument(ctx context.Context, sc scope.Context, d *graph.SourceDocument) error {
	_, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MERGE (s:SourceDocument {doc_id: $doc_id})
			ON CREATE SET s.graph_id = $graph_id, s.artifact_id = $artifact_id, s.title = $title,
				s.supersedes = $supersedes, s.created_at = timestamp(), s.updated_at = timestamp()`,
			map[string]any{
				"doc_id": d.SourceID, "graph_id": sc.GraphID, "artifact_id": d.ArtifactID,
				"title": d.Title, "supersedes": d.Supersedes,
			})
	})
	return err
}

// CreateSourceChunk persists a SourceChunk node and links it to its parent
// SourceDocument. CreateClaim's SUPPORTED_BY edge requires this row to
// already exist.
func (s *Service) CreateSourceChunk(ctx context.Context, sc scope.Context, c *graph.SourceChunk) error {
	_, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MATCH (d:SourceDocument {doc_id: $source_id})
			MERGE (c:SourceChunk {graph_id: $graph_id, chunk_id: $chunk_id})
			ON CREATE SET c.source_id = $source_id, c.chunk_index = $index, c.text = $text,
				c.content_hash = $content_hash, c.created_at = timestamp()
			MERGE (c)-[:CHUNK_OF]->(d)`,
			map[string]any{
				"graph_id": sc.GraphID, "chunk_id": c.ChunkID, "source_id": c.SourceID,
				"index": c.Index, "text": c.Text, "content_hash": c.ContentHash,
			})
	})
	return err
}

// CreateQuote persists a Quote node anchored to the chunk it was lifted
// from, used by the browser-selection capture surface.
func (s *Service) CreateQuote(ctx context.Context, sc scope.Context, q *graph.Quote) error {
	_, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MERGE (q:Quote {graph_id: $graph_id, quote_id: $quote_id})
			ON CREATE SET q.chunk_id = $chunk_id, q.text = $text, q.start_offset = $start,
				q.end_offset = $end, q.created_at = timestamp()`,
			map[string]any{
				"graph_id": sc.GraphID, "quote_id": q.QuoteID, "chunk_id": q.ChunkID,
				"text": q.Text, "start": q.StartOffset, "end": q.EndOffset,
			})
	})
	return err
}
