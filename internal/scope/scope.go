// Package scope resolves and enforces the (tenant_id, graph_id, branch_id)
// context every request operates under, and builds the visibility predicate
// every read applies uniformly.
package scope

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"substrate/domain/apperr"
	"substrate/domain/graph"
	"substrate/internal/store"
)

// ProposedConfidenceThreshold is the minimum confidence a PROPOSED
// relationship needs to be visible when includeProposed is "auto".
const ProposedConfidenceThreshold = 0.6

// IncludeProposed controls whether a read surfaces PROPOSED relationships.
type IncludeProposed string

const (
	IncludeProposedFalse IncludeProposed = "false"
	IncludeProposedTrue  IncludeProposed = "true"
	IncludeProposedAuto  IncludeProposed = "auto"
)

// Context is the resolved (tenant, graph, branch) triple a request operates
// under. It is carried explicitly through call parameters — never as
// package-level mutable state (spec §9 "Global singletons").
type Context struct {
	TenantID string
	GraphID  string
	BranchID string
}

// Resolver resolves active graph/branch context and enforces tenant
// isolation and demo-mode restrictions.
type Resolver struct {
	store *store.Store
}

func NewResolver(s *store.Store) *Resolver {
	return &Resolver{store: s}
}

// ResolveActive returns the tenant's active graph and branch, creating the
// default (default, main) pair on first use. Demo-mode tenants are not
// distinguished: they resolve like any other tenant and are not pinned to a
// fixed graph.
func (r *Resolver) ResolveActive(ctx context.Context, tenantID string) (Context, error) {
	if tenantID == "" {
		return Context{}, apperr.Invalid("tenant id required")
	}
	res, err := r.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (p:UserPreferences {tenant_id: $tenant_id})
			RETURN p.active_graph_id AS graph_id, p.active_branch_id AS branch_id`,
			map[string]any{"tenant_id": tenantID})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, nil // no preferences row yet
		}
		gid, _ := record.Get("graph_id")
		bid, _ := record.Get("branch_id")
		if gid == nil {
			return nil, nil
		}
		return Context{TenantID: tenantID, GraphID: gid.(string), BranchID: bid.(string)}, nil
	})
	if err != nil {
		return Context{}, err
	}
	if res != nil {
		return res.(Context), nil
	}
	if err := r.EnsureGraph(ctx, tenantID, graph.DefaultGraphID); err != nil {
		return Context{}, err
	}
	if err := r.EnsureBranch(ctx, graph.DefaultGraphID, graph.MainBranchID); err != nil {
		return Context{}, err
	}
	return Context{TenantID: tenantID, GraphID: graph.DefaultGraphID, BranchID: graph.MainBranchID}, nil
}

// SetActiveGraph validates the graph belongs to the tenant and switches the
// active context to it, defaulting the branch to main.
func (r *Resolver) SetActiveGraph(ctx context.Context, tenantID, graphID string) (Context, error) {
	if graphID == graph.DemoGraphID {
		return Context{}, apperr.Forbidden("demo graph cannot be selected as active")
	}
	owned, err := r.graphBelongsToTenant(ctx, tenantID, graphID)
	if err != nil {
		return Context{}, err
	}
	if !owned {
		return Context{}, apperr.Forbidden("graph does not belong to tenant")
	}
	if _, err := r.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MERGE (p:UserPreferences {tenant_id: $tenant_id})
			SET p.active_graph_id = $graph_id, p.active_branch_id = $branch_id`,
			map[string]any{"tenant_id": tenantID, "graph_id": graphID, "branch_id": graph.MainBranchID})
	}); err != nil {
		return Context{}, err
	}
	return Context{TenantID: tenantID, GraphID: graphID, BranchID: graph.MainBranchID}, nil
}

// ListGraphs returns every GraphSpace owned by tenantID, most recently
// created first.
func (r *Resolver) ListGraphs(ctx context.Context, tenantID string) ([]*graph.GraphSpace, error) {
	res, err := r.store.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (g:GraphSpace {tenant_id: $tenant_id})
			RETURN g.graph_id AS graph_id, g.name AS name, g.tenant_id AS tenant_id,
				g.created_at AS created_at, g.updated_at AS updated_at
			ORDER BY g.created_at DESC`,
			map[string]any{"tenant_id": tenantID})
		if err != nil {
			return nil, err
		}
		var out []*graph.GraphSpace
		for result.Next(ctx) {
			record := result.Record()
			out = append(out, graphSpaceFromRecord(record))
		}
		return out, result.Err()
	})
	if err != nil {
		return nil, err
	}
	return res.([]*graph.GraphSpace), nil
}

// CreateGraph allocates a new GraphSpace for tenantID and seeds its main
// branch. templateID/intent are accepted for forward compatibility with
// graph templating (spec §6 POST /graphs body) but not yet applied to the
// created graph's contents.
func (r *Resolver) CreateGraph(ctx context.Context, tenantID, name, templateID, intent string) (*graph.GraphSpace, error) {
	if tenantID == "" {
		return nil, apperr.Invalid("tenant id required")
	}
	if name == "" {
		return nil, apperr.Invalid("graph name required")
	}
	graphID := newGraphID()
	_, err := r.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			CREATE (g:GraphSpace {graph_id: $graph_id, name: $name, tenant_id: $tenant_id,
				created_at: timestamp(), updated_at: timestamp()})
			CREATE (b:Branch {graph_id: $graph_id, branch_id: $branch_id, name: $branch_id})
			MERGE (b)-[:BELONGS_TO]->(g)`,
			map[string]any{"graph_id": graphID, "name": name, "tenant_id": tenantID, "branch_id": graph.MainBranchID})
	})
	if err != nil {
		return nil, err
	}
	if _, err := r.SetActiveGraph(ctx, tenantID, graphID); err != nil {
		return nil, err
	}
	return &graph.GraphSpace{GraphID: graphID, Name: name, TenantID: tenantID}, nil
}

// RenameGraph updates a tenant-owned graph's display name.
func (r *Resolver) RenameGraph(ctx context.Context, tenantID, graphID, name string) error {
	owned, err := r.graphBelongsToTenant(ctx, tenantID, graphID)
	if err != nil {
		return err
	}
	if !owned {
		return apperr.Forbidden("graph does not belong to tenant")
	}
	if name == "" {
		return apperr.Invalid("graph name required")
	}
	_, err = r.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MATCH (g:GraphSpace {graph_id: $graph_id})
			SET g.name = $name, g.updated_at = timestamp()`,
			map[string]any{"graph_id": graphID, "name": name})
	})
	return err
}

// DeleteGraph removes a tenant-owned graph and every node/edge scoped to it.
// The default graph can never be deleted (spec §6).
func (r *Resolver) DeleteGraph(ctx context.Context, tenantID, graphID string) error {
	if graphID == graph.DefaultGraphID {
		return apperr.Forbidden("the default graph cannot be deleted")
	}
	owned, err := r.graphBelongsToTenant(ctx, tenantID, graphID)
	if err != nil {
		return err
	}
	if !owned {
		return apperr.Forbidden("graph does not belong to tenant")
	}
	_, err = r.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `MATCH (n) WHERE n.graph_id = $graph_id DETACH DELETE n`,
			map[string]any{"graph_id": graphID}); err != nil {
			return nil, err
		}
		return tx.Run(ctx, `MATCH (g:GraphSpace {graph_id: $graph_id}) DETACH DELETE g`,
			map[string]any{"graph_id": graphID})
	})
	return err
}

func graphSpaceFromRecord(record *neo4j.Record) *graph.GraphSpace {
	get := func(key string) string {
		if v, ok := record.Get(key); ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	return &graph.GraphSpace{
		GraphID:  get("graph_id"),
		Name:     get("name"),
		TenantID: get("tenant_id"),
	}
}

func newGraphID() string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	return "g" + hex.EncodeToString(buf)
}

// ResolveGraphContext validates a tenant owns graphID and returns a Context
// scoped to it on the main branch, without mutating the tenant's active
// graph/branch preference — unlike SetActiveGraph, this is side-effect free
// and safe to call from a read path (graph-scoped GET endpoints name the
// graph in the URL rather than relying on ambient active state).
func (r *Resolver) ResolveGraphContext(ctx context.Context, tenantID, graphID string) (Context, error) {
	owned, err := r.graphBelongsToTenant(ctx, tenantID, graphID)
	if err != nil {
		return Context{}, err
	}
	if !owned {
		return Context{}, apperr.Forbidden("graph does not belong to tenant")
	}
	return Context{TenantID: tenantID, GraphID: graphID, BranchID: graph.MainBranchID}, nil
}

func (r *Resolver) graphBelongsToTenant(ctx context.Context, tenantID, graphID string) (bool, error) {
	res, err := r.store.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `MATCH (g:GraphSpace {graph_id: $graph_id}) RETURN g.tenant_id AS tenant_id`,
			map[string]any{"graph_id": graphID})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return false, nil
		}
		tid, _ := record.Get("tenant_id")
		return tid == tenantID, nil
	})
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

// EnsureGraph idempotently creates a GraphSpace if it does not already exist.
func (r *Resolver) EnsureGraph(ctx context.Context, tenantID, graphID string) error {
	_, err := r.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MERGE (g:GraphSpace {graph_id: $graph_id})
			ON CREATE SET g.name = $graph_id, g.tenant_id = $tenant_id, g.created_at = timestamp(), g.updated_at = timestamp()`,
			map[string]any{"graph_id": graphID, "tenant_id": tenantID})
	})
	return err
}

// EnsureBranch idempotently creates a Branch within a graph if missing.
func (r *Resolver) EnsureBranch(ctx context.Context, graphID, branchID string) error {
	_, err := r.store.Tx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MATCH (g:GraphSpace {graph_id: $graph_id})
			MERGE (b:Branch {graph_id: $graph_id, branch_id: $branch_id})
			ON CREATE SET b.name = $branch_id
			MERGE (b)-[:BELONGS_TO]->(g)`,
			map[string]any{"graph_id": graphID, "branch_id": branchID})
	})
	return err
}

// VisibilityPredicate assembles the uniform WHERE fragment every read
// applies: graph scoping, branch membership, merge exclusion, and (for
// relationships) the proposed-edge confidence gate. nodeAlias/relAlias name
// the Cypher variables the caller's query binds the node/relationship to;
// relAlias may be empty when the predicate is built for a node-only read.
func VisibilityPredicate(nodeAlias, relAlias string, graphID, branchID string, includeProposed IncludeProposed) (string, map[string]any) {
	var b strings.Builder
	params := map[string]any{
		"graph_id":              graphID,
		"branch_id":             branchID,
		"proposed_threshold":    ProposedConfidenceThreshold,
	}
	b.WriteString(nodeAlias + ".graph_id = $graph_id")
	b.WriteString(" AND $branch_id IN coalesce(" + nodeAlias + ".on_branches, [])")
	b.WriteString(" AND coalesce(" + nodeAlias + ".is_merged, false) = false")
	if relAlias != "" {
		switch includeProposed {
		case IncludeProposedTrue:
			// no additional status filter
		case IncludeProposedAuto:
			b.WriteString(" AND (coalesce(" + relAlias + ".status, 'ACCEPTED') = 'ACCEPTED' OR (" +
				relAlias + ".status = 'PROPOSED' AND " + relAlias + ".confidence >= $proposed_threshold))")
		default:
			b.WriteString(" AND coalesce(" + relAlias + ".status, 'ACCEPTED') = 'ACCEPTED'")
		}
	}
	return b.String(), params
}
