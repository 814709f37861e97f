// Package review implements the operator queues spec §4.9 names: proposed
// relationships and merge candidates, each with accept/reject state
// transitions and an append-only audit trail.
package review

import (
	"context"

	"substrate/domain/graph"
	"substrate/internal/entities"
	"substrate/internal/scope"
)

// Service is the review component, thin over entities' relationship/merge
// CRUD plus its own audit log.
type Service struct {
	entities *entities.Service
	audit    *AuditLog
}

func NewService(ent *entities.Service, audit *AuditLog) *Service {
	return &Service{entities: ent, audit: audit}
}

// ListProposedRelationships proxies entities' filtered read.
func (s *Service) ListProposedRelationships(ctx context.Context, sc scope.Context, status, ingestionRunID string, includeArchived bool, limit, offset int) ([]entities.RelationshipReviewItem, error) {
	return s.entities.ListProposedRelationships(ctx, sc, status, ingestionRunID, includeArchived, limit, offset)
}

// AcceptRelationships accepts a batch of edges and writes one audit entry
// per edge.
func (s *Service) AcceptRelationships(ctx context.Context, sc scope.Context, edges []entities.RelationshipEdgeRef, reviewedBy string) (int, error) {
	count, err := s.entities.AcceptRelationships(ctx, sc, edges, reviewedBy)
	if err != nil {
		return 0, err
	}
	for _, e := range edges {
		s.audit.Append(ctx, sc, AuditEntry{
			Action: "accept", SourceID: e.SourceID, TargetID: e.TargetID, RelType: e.RelType,
			PriorStatus: "PROPOSED", Reviewer: reviewedBy,
		})
	}
	return count, nil
}

// RejectRelationships rejects a batch of edges and writes one audit entry
// per edge.
func (s *Service) RejectRelationships(ctx context.Context, sc scope.Context, edges []entities.RelationshipEdgeRef, reviewedBy string) (int, error) {
	count, err := s.entities.RejectRelationships(ctx, sc, edges, reviewedBy)
	if err != nil {
		return 0, err
	}
	for _, e := range edges {
		s.audit.Append(ctx, sc, AuditEntry{
			Action: "reject", SourceID: e.SourceID, TargetID: e.TargetID, RelType: e.RelType,
			PriorStatus: "PROPOSED", Reviewer: reviewedBy,
		})
	}
	return count, nil
}

// EditRelationship rejects the old triple and creates newType in its place.
func (s *Service) EditRelationship(ctx context.Context, sc scope.Context, sourceID, targetID, oldType, newType, reviewedBy string) (bool, error) {
	edited, err := s.entities.EditRelationship(ctx, sc, sourceID, targetID, oldType, newType, reviewedBy)
	if err != nil {
		return false, err
	}
	if edited {
		s.audit.Append(ctx, sc, AuditEntry{
			Action: "edit", SourceID: sourceID, TargetID: targetID, RelType: newType,
			PriorStatus: "PROPOSED", Reviewer: reviewedBy,
			Metadata: map[string]any{"old_rel_type": oldType, "new_rel_type": newType},
		})
	}
	return edited, nil
}

// ListMergeCandidates proxies entities' filtered read.
func (s *Service) ListMergeCandidates(ctx context.Context, sc scope.Context, status string, limit, offset int) ([]*graph.MergeCandidate, error) {
	return s.entities.ListMergeCandidates(ctx, sc, status, limit, offset)
}

// AcceptMergeCandidates marks candidates ACCEPTED without executing the
// merge — acceptance and execution are deliberately separate steps (spec
// §4.9).
func (s *Service) AcceptMergeCandidates(ctx context.Context, sc scope.Context, candidateIDs []string, reviewedBy string) (int, error) {
	count, err := s.entities.SetMergeCandidateStatus(ctx, sc, candidateIDs, graph.MergeCandidateAccepted, reviewedBy)
	if err != nil {
		return 0, err
	}
	for _, id := range candidateIDs {
		s.audit.Append(ctx, sc, AuditEntry{Action: "MERGE_ACCEPTED", Reviewer: reviewedBy, Metadata: map[string]any{"candidate_id": id}})
	}
	return count, nil
}

// RejectMergeCandidates marks candidates REJECTED.
func (s *Service) RejectMergeCandidates(ctx context.Context, sc scope.Context, candidateIDs []string, reviewedBy string) (int, error) {
	count, err := s.entities.SetMergeCandidateStatus(ctx, sc, candidateIDs, graph.MergeCandidateRejected, reviewedBy)
	if err != nil {
		return 0, err
	}
	for _, id := range candidateIDs {
		s.audit.Append(ctx, sc, AuditEntry{Action: "MERGE_REJECTED", Reviewer: reviewedBy, Metadata: map[string]any{"candidate_id": id}})
	}
	return count, nil
}

// ExecuteMerge runs the actual merge and writes an audit entry carrying the
// full result (counts of redirected/skipped/deleted relationships).
func (s *Service) ExecuteMerge(ctx context.Context, sc scope.Context, keepNodeID, mergeNodeID, reviewedBy string) (*entities.MergeResult, error) {
	result, err := s.entities.MergeConcepts(ctx, sc, keepNodeID, mergeNodeID, reviewedBy)
	if err != nil {
		return nil, err
	}
	s.audit.Append(ctx, sc, AuditEntry{
		Action: "MERGE_EXECUTED", SourceID: keepNodeID, TargetID: mergeNodeID, Reviewer: reviewedBy,
		Metadata: map[string]any{
			"relationships_redirected": result.RelationshipsRedirected,
			"relationships_skipped":    result.RelationshipsSkipped,
			"relationships_deleted":    result.RelationshipsDeleted,
		},
	})
	return result, nil
}
