// Package branches is the tabular store for contextual sub-conversations:
// branches anchored to a span of a parent chat message, their append-only
// message logs, and the bridging hints that point back into the graph.
// Unlike internal/store's property graph, this is plain relational state —
// a single pgxpool.Pool, no managed transactions across the two stores.
package branches

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the PostgreSQL-backed contextual-branch store. Obtain one via
// New, which also runs Migrate.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to dsn and ensures the branch schema exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("branches store: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("branches store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("branches store: ping: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("branches store: migrate: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool. Call once on process shutdown.
func (s *Store) Close() {
	s.pool.Close()
}
