package retrieval

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// EmbeddingIndex is a Postgres+pgvector side table mirroring the Claim/
// Concept embedding property for ANN queries backing semantic_search. The
// embedding vectors themselves are produced by the external embedder (spec
// §1 non-goal); this index is pure substrate plumbing, not model logic.
type EmbeddingIndex struct {
	pool *pgxpool.Pool
}

func NewEmbeddingIndex(pool *pgxpool.Pool) *EmbeddingIndex {
	return &EmbeddingIndex{pool: pool}
}

// Upsert stores or replaces a concept's embedding vector.
func (e *EmbeddingIndex) Upsert(ctx context.Context, graphID, conceptID string, vector []float32) error {
	_, err := e.pool.Exec(ctx, `
		INSERT INTO concept_embeddings (graph_id, concept_id, embedding)
		VALUES ($1, $2, $3)
		ON CONFLICT (graph_id, concept_id) DO UPDATE SET embedding = EXCLUDED.embedding`,
		graphID, conceptID, pgvector.NewVector(vector))
	return err
}

// TopK returns the k nearest concept_ids to the query vector within a graph,
// ordered by cosine distance ascending (most similar first).
func (e *EmbeddingIndex) TopK(ctx context.Context, graphID string, query []float32, k int) ([]string, error) {
	rows, err := e.pool.Query(ctx, fmt.Sprintf(`
		SELECT concept_id FROM concept_embeddings
		WHERE graph_id = $1
		ORDER BY embedding <=> $2
		LIMIT %d`, k), graphID, pgvector.NewVector(query))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// SchemaDDL is the table definition EmbeddingIndex assumes exists. Neither
// graphctl's schema init nor internal/store's Neo4j schema bootstrap executes
// it.
const SchemaDDL = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS concept_embeddings (
	graph_id TEXT NOT NULL,
	concept_id TEXT NOT NULL,
	embedding vector(1536) NOT NULL,
	PRIMARY KEY (graph_id, concept_id)
);
`
