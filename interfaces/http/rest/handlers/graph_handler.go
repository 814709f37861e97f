package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"substrate/domain/apperr"
	"substrate/internal/entities"
	"substrate/internal/scope"
	"substrate/pkg/auth"
	"substrate/pkg/utils"
)

// GraphHandler handles graph-space and scope HTTP requests: list/create/
// select/rename/delete a GraphSpace, and the graph-wide overview/neighbors
// reads (spec §6 "Graphs & scope").
type GraphHandler struct {
	resolver *scope.Resolver
	entities *entities.Service
	logger   *zap.Logger
}

func NewGraphHandler(resolver *scope.Resolver, ent *entities.Service, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{resolver: resolver, entities: ent, logger: logger}
}

// CreateGraphRequest is the POST /graphs body.
type CreateGraphRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=200"`
	TemplateID string `json:"template_id,omitempty"`
	Intent     string `json:"intent,omitempty"`
}

// RenameGraphRequest is the PATCH /graphs/{graph_id} body.
type RenameGraphRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// ListGraphs handles GET /graphs.
func (h *GraphHandler) ListGraphs(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}

	graphs, err := h.resolver.ListGraphs(r.Context(), userCtx.TenantID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	active, err := h.resolver.ResolveActive(r.Context(), userCtx.TenantID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"graphs": graphs, "active_graph_id": active.GraphID, "active_branch_id": active.BranchID,
	})
}

// CreateGraph handles POST /graphs.
func (h *GraphHandler) CreateGraph(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	var req CreateGraphRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, h.logger, apperr.Invalid("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondErr(w, h.logger, apperr.Invalid(err.Error()))
		return
	}
	gs, err := h.resolver.CreateGraph(r.Context(), userCtx.TenantID, req.Name, req.TemplateID, req.Intent)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, gs)
}

// SelectGraph handles POST /graphs/{graph_id}/select.
func (h *GraphHandler) SelectGraph(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	graphID := chi.URLParam(r, "graphID")
	sc, err := h.resolver.SetActiveGraph(r.Context(), userCtx.TenantID, graphID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"active_graph_id": sc.GraphID, "active_branch_id": sc.BranchID,
	})
}

// RenameGraph handles PATCH /graphs/{graph_id}.
func (h *GraphHandler) RenameGraph(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	graphID := chi.URLParam(r, "graphID")
	var req RenameGraphRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, h.logger, apperr.Invalid("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondErr(w, h.logger, apperr.Invalid(err.Error()))
		return
	}
	if err := h.resolver.RenameGraph(r.Context(), userCtx.TenantID, graphID, req.Name); err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]string{"graph_id": graphID, "name": req.Name})
}

// DeleteGraph handles DELETE /graphs/{graph_id}.
func (h *GraphHandler) DeleteGraph(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	graphID := chi.URLParam(r, "graphID")
	if err := h.resolver.DeleteGraph(r.Context(), userCtx.TenantID, graphID); err != nil {
		respondErr(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Overview handles GET /graphs/{graph_id}/overview.
func (h *GraphHandler) Overview(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	graphID := chi.URLParam(r, "graphID")
	sc, err := h.resolver.ResolveGraphContext(r.Context(), userCtx.TenantID, graphID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	includeProposed := scope.IncludeProposedFalse
	if queryBool(r, "include_proposed", false) {
		includeProposed = scope.IncludeProposedTrue
	}
	ov, err := h.entities.GraphOverview(r.Context(), sc,
		queryInt(r, "limit_nodes", 200), queryInt(r, "limit_edges", 500), includeProposed)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"nodes": ov.Nodes, "edges": ov.Edges, "meta": ov.Meta,
	})
}

// Neighbors handles GET /graphs/{graph_id}/neighbors.
func (h *GraphHandler) Neighbors(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	graphID := chi.URLParam(r, "graphID")
	sc, err := h.resolver.ResolveGraphContext(r.Context(), userCtx.TenantID, graphID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	conceptID := r.URL.Query().Get("concept_id")
	if conceptID == "" {
		respondErr(w, h.logger, apperr.Invalid("concept_id is required"))
		return
	}
	includeProposed := scope.IncludeProposed(r.URL.Query().Get("include_proposed"))
	if includeProposed == "" {
		includeProposed = scope.IncludeProposedFalse
	}
	neighbors, err := h.entities.GetNeighbors(r.Context(), sc, conceptID, includeProposed, queryInt(r, "limit", 80))
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	center, err := h.entities.GetConcept(r.Context(), sc, conceptID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"center": center, "nodes": neighbors,
	})
}
