package store

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// schemaStatements is the fixed set of constraints this system is built
// around (spec §4.1). Every statement is idempotent: CREATE ... IF NOT
// EXISTS tolerates re-running on every process start.
var schemaStatements = []string{
	`CREATE CONSTRAINT concept_node_id_unique IF NOT EXISTS FOR (c:Concept) REQUIRE c.node_id IS UNIQUE`,
	`CREATE CONSTRAINT concept_graph_name_key IF NOT EXISTS FOR (c:Concept) REQUIRE (c.graph_id, c.name) IS NODE KEY`,
	`CREATE CONSTRAINT graphspace_id_unique IF NOT EXISTS FOR (g:GraphSpace) REQUIRE g.graph_id IS UNIQUE`,
	`CREATE CONSTRAINT artifact_node_key IF NOT EXISTS FOR (a:Artifact) REQUIRE (a.graph_id, a.url, a.content_hash) IS NODE KEY`,
	`CREATE CONSTRAINT merge_candidate_key IF NOT EXISTS FOR (m:MergeCandidate) REQUIRE (m.graph_id, m.candidate_id) IS NODE KEY`,
	`CREATE CONSTRAINT branch_graph_id_key IF NOT EXISTS FOR (b:Branch) REQUIRE (b.graph_id, b.branch_id) IS NODE KEY`,
	`CREATE CONSTRAINT claim_id_unique IF NOT EXISTS FOR (c:Claim) REQUIRE c.claim_id IS UNIQUE`,
	`CREATE CONSTRAINT snapshot_key IF NOT EXISTS FOR (s:EvidenceSnapshot) REQUIRE (s.graph_id, s.source_url, s.content_hash) IS NODE KEY`,
	`CREATE CONSTRAINT source_document_id_unique IF NOT EXISTS FOR (s:SourceDocument) REQUIRE s.doc_id IS UNIQUE`,
	`CREATE CONSTRAINT client_event_key IF NOT EXISTS FOR (e:ClientEvent) REQUIRE (e.graph_id, e.event_id) IS NODE KEY`,
	`CREATE INDEX concept_normalized_key IF NOT EXISTS FOR (c:Concept) ON (c.graph_id, c.normalized_key)`,
}

// legacyDrops removes constraints this system supersedes — most notably a
// global uniqueness on Concept.name, which predates the graph-scoped node
// key and would otherwise reject the same concept name in two different
// graphs.
var legacyDrops = []string{
	`DROP CONSTRAINT concept_name_unique IF EXISTS`,
}

// SchemaInit bootstraps constraints and indexes. It runs once per process
// start and tolerates "already exists" so repeated calls across a fleet of
// replicas are harmless.
func (s *Store) SchemaInit(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	for _, stmt := range legacyDrops {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			s.log.Warn("schema drop failed, continuing", zap.String("statement", stmt), zap.Error(err))
		}
	}
	for _, stmt := range schemaStatements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			s.log.Warn("schema statement failed, continuing", zap.String("statement", stmt), zap.Error(err))
		}
	}
	return nil
}
