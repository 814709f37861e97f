package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"substrate/domain/apperr"
	"substrate/internal/ratelimit"
	"substrate/internal/retrieval"
	"substrate/internal/scope"
	"substrate/pkg/auth"
)

// RetrievalHandler handles POST /ai/retrieve: the conversational-assistant
// entry point that classifies intent, executes the matching plan, and
// returns a filtered, capped context (spec §6 "Retrieval").
type RetrievalHandler struct {
	retrieval *retrieval.Service
	resolver  *scope.Resolver
	guard     *ratelimit.Guard
	logger    *zap.Logger
}

func NewRetrievalHandler(svc *retrieval.Service, resolver *scope.Resolver, guard *ratelimit.Guard, logger *zap.Logger) *RetrievalHandler {
	return &RetrievalHandler{retrieval: svc, resolver: resolver, guard: guard, logger: logger}
}

// RetrieveRequest is the POST /ai/retrieve body.
type RetrieveRequest struct {
	Message       string `json:"message" validate:"required"`
	Intent        string `json:"intent,omitempty"`
	GraphID       string `json:"graph_id,omitempty"`
	BranchID      string `json:"branch_id,omitempty"`
	DetailLevel   string `json:"detail_level,omitempty"`
	LimitEntities int    `json:"limit_entities,omitempty"`
	LimitClaims   int    `json:"limit_claims,omitempty"`
	LimitSources  int    `json:"limit_sources,omitempty"`
}

// Retrieve handles POST /ai/retrieve.
func (h *RetrievalHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}

	if h.guard != nil {
		allowed, err := h.guard.AllowUser(r.Context(), ratelimit.QuotaLLM, userCtx.UserID)
		if err != nil {
			respondErr(w, h.logger, err)
			return
		}
		if !allowed {
			respondErr(w, h.logger, apperr.Unavailable("rate limit exceeded"))
			return
		}
	}

	var req RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, h.logger, apperr.Invalid("invalid request body: "+err.Error()))
		return
	}
	if req.Message == "" {
		respondErr(w, h.logger, apperr.Invalid("message is required"))
		return
	}

	sc, err := h.resolveScope(r, userCtx.TenantID, req.GraphID, req.BranchID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}

	detail := retrieval.DetailLevel(req.DetailLevel)
	if detail == "" {
		detail = retrieval.DetailSummary
	}

	result, err := h.retrieval.Retrieve(r.Context(), sc, retrieval.Request{
		Message: req.Message,
		Intent:  retrieval.Intent(req.Intent),
		Filters: retrieval.Filters{
			DetailLevel:           detail,
			FocusEntitiesOverride: req.LimitEntities,
			ClaimsOverride:        req.LimitClaims,
			SourcesOverride:       req.LimitSources,
		},
	})
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

func (h *RetrievalHandler) resolveScope(r *http.Request, tenantID, graphID, branchID string) (scope.Context, error) {
	if graphID == "" {
		return h.resolver.ResolveActive(r.Context(), tenantID)
	}
	sc, err := h.resolver.ResolveGraphContext(r.Context(), tenantID, graphID)
	if err != nil {
		return scope.Context{}, err
	}
	if branchID != "" {
		sc.BranchID = branchID
	}
	return sc, nil
}
