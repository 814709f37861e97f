// Package offline backs the client-side cache surface: a bootstrap snapshot
// for a freshly-opened graph, a manifest of counts/timestamps a client diffs
// against its local cache to decide what to refetch, and a warm call that
// reports which specific artifacts already have a captured snapshot ahead of
// expected offline use; it loads nothing into any cache. Spec §6 "Sync &
// offline".
package offline

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"substrate/domain/graph"
	"substrate/internal/entities"
	"substrate/internal/scope"
	"substrate/internal/snapshots"
	"substrate/internal/store"
)

// Service assembles cache-shaping reads (recency-capped, counts-only) that
// don't belong on the general entity CRUD surface.
type Service struct {
	store     *store.Store
	entities  *entities.Service
	snapshots *snapshots.Service
}

func NewService(s *store.Store, ent *entities.Service, snaps *snapshots.Service) *Service {
	return &Service{store: s, entities: ent, snapshots: snaps}
}

// Bootstrap is the payload GET /offline/bootstrap returns: enough of the
// recent graph state for a client to render before it has network access.
type Bootstrap struct {
	Concepts  []*graph.Concept
	Artifacts []RecentArtifact
	Trails    []TrailStep
}

// RecentArtifact is a trimmed artifact projection for the bootstrap payload.
type RecentArtifact struct {
	ArtifactID string
	URL        string
	Title      string
	Kind       graph.ArtifactKind
}

// TrailStep is one recent document-change event, letting a client
// reconstruct "what changed since I was last online" without replaying a
// full graph query.
type TrailStep struct {
	ChangeEventID string
	ChangeType    string
	DiffSummary   string
	CreatedAt     int64
}

// Bootstrap returns the most recently touched concepts, artifacts, and
// ingestion trail steps on sc's graph/branch, capped at limit each.
func (s *Service) Bootstrap(ctx context.Context, sc scope.Context, limit int) (*Bootstrap, error) {
	if limit <= 0 {
		limit = 50
	}
	concepts, err := s.entities.RecentConcepts(ctx, sc, limit)
	if err != nil {
		return nil, err
	}
	b := &Bootstrap{Concepts: concepts}

	res, err := s.store.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		artResult, err := tx.Run(ctx, `
			MATCH (a:Artifact {graph_id: $graph_id})
			RETURN a.artifact_id AS id, a.url AS url, a.title AS title, a.kind AS kind
			ORDER BY a.updated_at DESC LIMIT $limit`,
			map[string]any{"graph_id": sc.GraphID, "limit": int64(limit)})
		if err != nil {
			return nil, err
		}
		var artifacts []RecentArtifact
		for artResult.Next(ctx) {
			record := artResult.Record()
			id, _ := record.Get("id")
			url, _ := record.Get("url")
			title, _ := record.Get("title")
			kind, _ := record.Get("kind")
			ra := RecentArtifact{ArtifactID: asString(id), URL: asString(url), Title: asString(title)}
			if kind != nil {
				ra.Kind = graph.ArtifactKind(asString(kind))
			}
			artifacts = append(artifacts, ra)
		}
		if err := artResult.Err(); err != nil {
			return nil, err
		}

		changeResult, err := tx.Run(ctx, `
			MATCH (e:ChangeEvent {graph_id: $graph_id})
			RETURN e.change_event_id AS id, e.change_type AS change_type, e.diff_summary AS diff_summary, e.created_at AS created_at
			ORDER BY e.created_at DESC LIMIT $limit`,
			map[string]any{"graph_id": sc.GraphID, "limit": int64(limit)})
		if err != nil {
			return nil, err
		}
		var trails []TrailStep
		for changeResult.Next(ctx) {
			record := changeResult.Record()
			id, _ := record.Get("id")
			changeType, _ := record.Get("change_type")
			diffSummary, _ := record.Get("diff_summary")
			createdAt, _ := record.Get("created_at")
			trails = append(trails, TrailStep{
				ChangeEventID: asString(id), ChangeType: asString(changeType), DiffSummary: asString(diffSummary),
				CreatedAt: asInt64(createdAt),
			})
		}
		return struct {
			Artifacts []RecentArtifact
			Trails    []TrailStep
		}{artifacts, trails}, changeResult.Err()
	})
	if err != nil {
		return nil, err
	}
	rest := res.(struct {
		Artifacts []RecentArtifact
		Trails    []TrailStep
	})
	b.Artifacts, b.Trails = rest.Artifacts, rest.Trails
	return b, nil
}

// Manifest is the payload GET /offline/manifest returns: enough for a
// client to decide, without transferring data, whether its cache is stale.
type Manifest struct {
	ConceptCount      int
	ArtifactCount     int
	RelationshipCount int
	LastUpdatedAtMs   int64
}

// Manifest computes counts + the most recent update timestamp for sc's graph.
func (s *Service) Manifest(ctx context.Context, sc scope.Context) (*Manifest, error) {
	res, err := s.store.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		m := &Manifest{}
		if err := scalarInt(ctx, tx, `
			MATCH (c:Concept {graph_id: $graph_id}) WHERE coalesce(c.is_merged, false) = false
			RETURN count(c) AS n`, map[string]any{"graph_id": sc.GraphID}, &m.ConceptCount); err != nil {
			return nil, err
		}
		if err := scalarInt(ctx, tx, `
			MATCH (a:Artifact {graph_id: $graph_id}) RETURN count(a) AS n`,
			map[string]any{"graph_id": sc.GraphID}, &m.ArtifactCount); err != nil {
			return nil, err
		}
		if err := scalarInt(ctx, tx, `
			MATCH (:Concept {graph_id: $graph_id})-[r]->(:Concept {graph_id: $graph_id}) RETURN count(r) AS n`,
			map[string]any{"graph_id": sc.GraphID}, &m.RelationshipCount); err != nil {
			return nil, err
		}
		result, err := tx.Run(ctx, `
			MATCH (c:Concept {graph_id: $graph_id}) RETURN max(c.updated_at) AS max_updated`,
			map[string]any{"graph_id": sc.GraphID})
		if err != nil {
			return nil, err
		}
		if record, err := result.Single(ctx); err == nil {
			if v, ok := record.Get("max_updated"); ok && v != nil {
				m.LastUpdatedAtMs = asInt64(v)
			}
		}
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*Manifest), nil
}

// WarmRequest names the URLs a client wants primed in the snapshot cache
// ahead of going offline.
type WarmRequest struct {
	URLs []string
}

// WarmResult reports how many of the requested URLs already have a snapshot
// (Warmed) and which do not (Missed).
type WarmResult struct {
	Warmed int
	Missed []string
}

// Warm checks the snapshot cache for each requested URL. Misses
// (never-ingested URLs) are reported, not treated as an error — warming is
// best-effort and the client is expected to fall back to live ingest.
func (s *Service) Warm(ctx context.Context, sc scope.Context, req WarmRequest) (*WarmResult, error) {
	result := &WarmResult{}
	for _, url := range req.URLs {
		ok, err := s.snapshots.Exists(ctx, sc, url)
		if err != nil {
			return nil, err
		}
		if ok {
			result.Warmed++
		} else {
			result.Missed = append(result.Missed, url)
		}
	}
	return result, nil
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func scalarInt(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any, out *int) error {
	result, err := tx.Run(ctx, query, params)
	if err != nil {
		return err
	}
	record, err := result.Single(ctx)
	if err != nil {
		return nil
	}
	if v, ok := record.Get("n"); ok && v != nil {
		*out = int(v.(int64))
	}
	return nil
}
