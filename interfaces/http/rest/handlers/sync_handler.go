package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"substrate/domain/apperr"
	"substrate/domain/graph"
	"substrate/internal/ingest"
	"substrate/internal/offline"
	"substrate/internal/scope"
	"substrate/internal/sync"
	"substrate/pkg/auth"
)

// SyncHandler handles the offline-client outbox replay and the cache-priming
// surface a client uses before going offline (spec §6 "Sync & offline",
// §4.8).
type SyncHandler struct {
	sync     *sync.Service
	offline  *offline.Service
	pipeline *ingest.Pipeline
	resolver *scope.Resolver
	logger   *zap.Logger
}

func NewSyncHandler(syncSvc *sync.Service, offlineSvc *offline.Service, pipeline *ingest.Pipeline, resolver *scope.Resolver, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{sync: syncSvc, offline: offlineSvc, pipeline: pipeline, resolver: resolver, logger: logger}
}

// ApplyBatchRequest is the POST /sync/events body.
type ApplyBatchRequest struct {
	Events []EventRequest `json:"events" validate:"required,min=1"`
}

// EventRequest is the wire shape of one sync.ClientEvent.
type EventRequest struct {
	EventID     string         `json:"event_id" validate:"required"`
	GraphID     string         `json:"graph_id" validate:"required"`
	BranchID    string         `json:"branch_id,omitempty"`
	Type        string         `json:"type" validate:"required"`
	Payload     map[string]any `json:"payload,omitempty"`
	CreatedAtMs int64          `json:"created_at_ms,omitempty"`
}

// ApplyBatch handles POST /sync/events.
func (h *SyncHandler) ApplyBatch(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	var req ApplyBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, h.logger, apperr.Invalid("invalid request body: "+err.Error()))
		return
	}
	if len(req.Events) == 0 {
		respondErr(w, h.logger, apperr.Invalid("events must not be empty"))
		return
	}
	events := make([]sync.ClientEvent, len(req.Events))
	for i, e := range req.Events {
		events[i] = sync.ClientEvent{
			EventID: e.EventID, GraphID: e.GraphID, BranchID: e.BranchID,
			Type: sync.EventType(e.Type), Payload: e.Payload, CreatedAtMs: e.CreatedAtMs,
		}
	}
	results := h.sync.ApplyBatch(r.Context(), userCtx.TenantID, events)
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"results": results})
}

// CaptureSelectionRequest is the POST /sync/capture-selection body: a
// one-shot browser selection, ingested immediately rather than queued.
type CaptureSelectionRequest struct {
	GraphID       string `json:"graph_id,omitempty"`
	SourceURL     string `json:"source_url" validate:"required"`
	Title         string `json:"title,omitempty"`
	SelectionText string `json:"selection_text" validate:"required"`
}

// CaptureSelection handles POST /sync/capture-selection.
func (h *SyncHandler) CaptureSelection(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	var req CaptureSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, h.logger, apperr.Invalid("invalid request body: "+err.Error()))
		return
	}
	if req.SourceURL == "" || req.SelectionText == "" {
		respondErr(w, h.logger, apperr.Invalid("source_url and selection_text are required"))
		return
	}
	sc, err := h.scopeFor(r, userCtx.TenantID, req.GraphID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	result, err := h.pipeline.Ingest(r.Context(), sc, ingest.ArtifactInput{
		ArtifactType:  graph.ArtifactWeb,
		SourceURL:     req.SourceURL,
		Title:         req.Title,
		Text:          req.SelectionText,
		SelectionText: req.SelectionText,
		Actions:       ingest.Actions{CreateArtifactNode: true},
	})
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, result)
}

func (h *SyncHandler) scopeFor(r *http.Request, tenantID, graphID string) (scope.Context, error) {
	if graphID == "" {
		return h.resolver.ResolveActive(r.Context(), tenantID)
	}
	return h.resolver.ResolveGraphContext(r.Context(), tenantID, graphID)
}

// Bootstrap handles GET /offline/bootstrap?graph_id&branch_id.
func (h *SyncHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	q := r.URL.Query()
	sc, err := h.scopeFor(r, userCtx.TenantID, q.Get("graph_id"))
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	if branchID := q.Get("branch_id"); branchID != "" {
		sc.BranchID = branchID
	}
	b, err := h.offline.Bootstrap(r.Context(), sc, queryInt(r, "limit", 50))
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, b)
}

// Manifest handles GET /offline/manifest?graph_id.
func (h *SyncHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	sc, err := h.scopeFor(r, userCtx.TenantID, r.URL.Query().Get("graph_id"))
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	m, err := h.offline.Manifest(r.Context(), sc)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, m)
}

// WarmRequest is the POST /offline/warm body.
type WarmRequest struct {
	GraphID string   `json:"graph_id,omitempty"`
	URLs    []string `json:"urls" validate:"required,min=1"`
}

// Warm handles POST /offline/warm.
func (h *SyncHandler) Warm(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	var req WarmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, h.logger, apperr.Invalid("invalid request body: "+err.Error()))
		return
	}
	if len(req.URLs) == 0 {
		respondErr(w, h.logger, apperr.Invalid("urls must not be empty"))
		return
	}
	sc, err := h.scopeFor(r, userCtx.TenantID, req.GraphID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	result, err := h.offline.Warm(r.Context(), sc, offline.WarmRequest{URLs: req.URLs})
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}
