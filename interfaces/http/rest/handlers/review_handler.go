package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"substrate/domain/apperr"
	"substrate/internal/entities"
	"substrate/internal/review"
	"substrate/internal/scope"
	"substrate/pkg/auth"
)

// ReviewHandler handles the proposed-relationship and merge-candidate queues
// (spec §4.9/§6 "Review").
type ReviewHandler struct {
	review   *review.Service
	resolver *scope.Resolver
	logger   *zap.Logger
}

func NewReviewHandler(svc *review.Service, resolver *scope.Resolver, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{review: svc, resolver: resolver, logger: logger}
}

func (h *ReviewHandler) scopeForGraph(r *http.Request, tenantID, graphID string) (scope.Context, error) {
	if graphID == "" {
		return h.resolver.ResolveActive(r.Context(), tenantID)
	}
	return h.resolver.ResolveGraphContext(r.Context(), tenantID, graphID)
}

// EdgeRef is the wire shape for one relationship triple in accept/reject/edit bodies.
type EdgeRef struct {
	SourceID string `json:"source_id" validate:"required"`
	TargetID string `json:"target_id" validate:"required"`
	RelType  string `json:"rel_type" validate:"required"`
}

// ListRelationships handles GET /review/relationships.
func (h *ReviewHandler) ListRelationships(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	q := r.URL.Query()
	sc, err := h.scopeForGraph(r, userCtx.TenantID, q.Get("graph_id"))
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	items, err := h.review.ListProposedRelationships(r.Context(), sc,
		q.Get("status"), q.Get("ingestion_run_id"), queryBool(r, "include_archived", false),
		queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"relationships": items})
}

// AcceptRelationshipsRequest is the POST /review/relationships/accept|reject body.
type AcceptRelationshipsRequest struct {
	GraphID string    `json:"graph_id,omitempty"`
	Edges   []EdgeRef `json:"edges" validate:"required,min=1,dive"`
}

func (h *ReviewHandler) relationshipsStatus(w http.ResponseWriter, r *http.Request, apply func(sc scope.Context, edges []entities.RelationshipEdgeRef, reviewedBy string) (int, error)) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	var req AcceptRelationshipsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, h.logger, apperr.Invalid("invalid request body: "+err.Error()))
		return
	}
	if len(req.Edges) == 0 {
		respondErr(w, h.logger, apperr.Invalid("edges must not be empty"))
		return
	}
	sc, err := h.scopeForGraph(r, userCtx.TenantID, req.GraphID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	refs := make([]entities.RelationshipEdgeRef, len(req.Edges))
	for i, e := range req.Edges {
		refs[i] = entities.RelationshipEdgeRef{SourceID: e.SourceID, TargetID: e.TargetID, RelType: e.RelType}
	}
	count, err := apply(sc, refs, userCtx.UserID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]int{"count": count})
}

// AcceptRelationships handles POST /review/relationships/accept.
func (h *ReviewHandler) AcceptRelationships(w http.ResponseWriter, r *http.Request) {
	h.relationshipsStatus(w, r, h.review.AcceptRelationships)
}

// RejectRelationships handles POST /review/relationships/reject.
func (h *ReviewHandler) RejectRelationships(w http.ResponseWriter, r *http.Request) {
	h.relationshipsStatus(w, r, h.review.RejectRelationships)
}

// EditRelationshipRequest is the POST /review/relationships/edit body.
type EditRelationshipRequest struct {
	GraphID  string `json:"graph_id,omitempty"`
	SourceID string `json:"source_id" validate:"required"`
	TargetID string `json:"target_id" validate:"required"`
	OldType  string `json:"old_type" validate:"required"`
	NewType  string `json:"new_type" validate:"required"`
}

// EditRelationship handles POST /review/relationships/edit.
func (h *ReviewHandler) EditRelationship(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	var req EditRelationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, h.logger, apperr.Invalid("invalid request body: "+err.Error()))
		return
	}
	sc, err := h.scopeForGraph(r, userCtx.TenantID, req.GraphID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	changed, err := h.review.EditRelationship(r.Context(), sc, req.SourceID, req.TargetID, req.OldType, req.NewType, userCtx.UserID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]bool{"changed": changed})
}

// ListMerges handles GET /review/merges.
func (h *ReviewHandler) ListMerges(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	q := r.URL.Query()
	sc, err := h.scopeForGraph(r, userCtx.TenantID, q.Get("graph_id"))
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	candidates, err := h.review.ListMergeCandidates(r.Context(), sc, q.Get("status"),
		queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"candidates": candidates})
}

// MergeCandidatesRequest is the POST /review/merges/accept|reject body.
type MergeCandidatesRequest struct {
	GraphID      string   `json:"graph_id,omitempty"`
	CandidateIDs []string `json:"candidate_ids" validate:"required,min=1"`
}

func (h *ReviewHandler) mergeCandidatesStatus(w http.ResponseWriter, r *http.Request, apply func(sc scope.Context, ids []string, reviewedBy string) (int, error)) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	var req MergeCandidatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, h.logger, apperr.Invalid("invalid request body: "+err.Error()))
		return
	}
	if len(req.CandidateIDs) == 0 {
		respondErr(w, h.logger, apperr.Invalid("candidate_ids must not be empty"))
		return
	}
	sc, err := h.scopeForGraph(r, userCtx.TenantID, req.GraphID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	count, err := apply(sc, req.CandidateIDs, userCtx.UserID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]int{"count": count})
}

// AcceptMerges handles POST /review/merges/accept.
func (h *ReviewHandler) AcceptMerges(w http.ResponseWriter, r *http.Request) {
	h.mergeCandidatesStatus(w, r, h.review.AcceptMergeCandidates)
}

// RejectMerges handles POST /review/merges/reject.
func (h *ReviewHandler) RejectMerges(w http.ResponseWriter, r *http.Request) {
	h.mergeCandidatesStatus(w, r, h.review.RejectMergeCandidates)
}

// ExecuteMergeRequest is the POST /review/merges/execute body.
type ExecuteMergeRequest struct {
	GraphID    string `json:"graph_id,omitempty"`
	KeepNodeID string `json:"keep_node_id" validate:"required"`
	MergeNodeID string `json:"merge_node_id" validate:"required"`
}

// ExecuteMerge handles POST /review/merges/execute.
func (h *ReviewHandler) ExecuteMerge(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	var req ExecuteMergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, h.logger, apperr.Invalid("invalid request body: "+err.Error()))
		return
	}
	sc, err := h.scopeForGraph(r, userCtx.TenantID, req.GraphID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	result, err := h.review.ExecuteMerge(r.Context(), sc, req.KeepNodeID, req.MergeNodeID, userCtx.UserID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}
