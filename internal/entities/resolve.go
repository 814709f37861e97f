package entities

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"substrate/internal/scope"
)

// ResolveConceptIDByName looks up a live concept's node_id by exact name
// within the active graph. Used by ingest's claim-mention linking: unmatched
// names are not auto-created (spec §4.4 step 8).
func (s *Service) ResolveConceptIDByName(ctx context.Context, sc scope.Context, name string) (string, bool) {
	id, _, err := s.resolveConceptRef(ctx, sc.GraphID, "", name)
	if err != nil {
		return "", false
	}
	return id, true
}

// CreateClaim upserts a Claim node and links it to its supporting chunk and
// the concepts it mentions, per spec §4.4 step 9.
func (s *Service) CreateClaim(ctx context.Context, sc scope.Context, claimID, chunkID, text string, confidence float64, conceptIDs []string) error {
	_, err := s.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
			MATCH (g:GraphSpace {graph_id: $graph_id})
			MATCH (chunk:SourceChunk {graph_id: $graph_id, chunk_id: $chunk_id})
			MERGE (c:Claim {claim_id: $claim_id})
			ON CREATE SET c.graph_id = $graph_id, c.text = $text, c.confidence = $confidence,
				c.status = 'ACCEPTED', c.chunk_id = $chunk_id, c.source_id = chunk.source_id,
				c.created_at = timestamp()
			MERGE (c)-[:BELONGS_TO]->(g)
			MERGE (c)-[:SUPPORTED_BY]->(chunk)`,
			map[string]any{
				"graph_id": sc.GraphID, "chunk_id": chunkID, "claim_id": claimID,
				"text": text, "confidence": confidence,
			}); err != nil {
			return nil, err
		}
		for _, conceptID := range conceptIDs {
			if _, err := tx.Run(ctx, `
				MATCH (c:Claim {claim_id: $claim_id})
				MATCH (n:Concept {graph_id: $graph_id, node_id: $concept_id})
				MERGE (c)-[:MENTIONS]->(n)`,
				map[string]any{"claim_id": claimID, "graph_id": sc.GraphID, "concept_id": conceptID}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}
