// Package graph holds the property-graph domain model: the entities and
// relationships every other component reads and writes through internal/store.
// Structs here carry exported fields — they are persistence-shaped records,
// not behavior-rich aggregates; the behavior (validation, invariants, merge
// semantics) lives in the internal/entities, internal/snapshots and
// internal/ingest services that operate on them.
package graph

import "time"

// GraphSpace is a tenant-owned partition of the knowledge graph.
type GraphSpace struct {
	GraphID   string
	Name      string
	TenantID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultGraphID is the graph every tenant has from first use.
const DefaultGraphID = "default"

// MainBranchID is the branch every graph has from creation.
const MainBranchID = "main"

// DemoGraphID is the fixed graph pinned for demo-mode tenants (writes forbidden).
const DemoGraphID = "demo"

// Branch is a named line of history inside a graph (not to be confused with
// the contextual Branch in domain/contextual, which is a sub-conversation).
type Branch struct {
	BranchID string
	GraphID  string
	Name     string
}
