package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"substrate/domain/apperr"
	"substrate/domain/graph"
	"substrate/internal/ingest"
	"substrate/internal/ratelimit"
	"substrate/internal/scope"
	"substrate/pkg/auth"
)

// IngestHandler handles the connector-facing ingestion surfaces that all
// converge on the single ingest.Pipeline kernel (spec §6 "Ingestion").
type IngestHandler struct {
	pipeline *ingest.Pipeline
	resolver *scope.Resolver
	guard    *ratelimit.Guard
	logger   *zap.Logger
}

func NewIngestHandler(p *ingest.Pipeline, resolver *scope.Resolver, guard *ratelimit.Guard, logger *zap.Logger) *IngestHandler {
	return &IngestHandler{pipeline: p, resolver: resolver, guard: guard, logger: logger}
}

// ArtifactRequest is the shared wire shape for every ingest route; fields
// unused by a given kind are simply left zero, mirroring ingest.ArtifactInput.
type ArtifactRequest struct {
	GraphID       string         `json:"graph_id,omitempty"`
	SourceURL     string         `json:"source_url,omitempty"`
	SourceID      string         `json:"source_id,omitempty"`
	Title         string         `json:"title,omitempty"`
	Domain        string         `json:"domain,omitempty"`
	Text          string         `json:"text,omitempty" validate:"required"`
	RawHTML       string         `json:"raw_html,omitempty"`
	SelectionText string         `json:"selection_text,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

func (h *IngestHandler) scopeFor(r *http.Request, tenantID, graphID string) (scope.Context, error) {
	if graphID == "" {
		return h.resolver.ResolveActive(r.Context(), tenantID)
	}
	return h.resolver.ResolveGraphContext(r.Context(), tenantID, graphID)
}

func (h *IngestHandler) run(w http.ResponseWriter, r *http.Request, kind graph.ArtifactKind, actions ingest.Actions, policy ingest.Policy) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	if h.guard != nil {
		allowed, err := h.guard.AllowUser(r.Context(), ratelimit.QuotaConnector, userCtx.UserID)
		if err != nil {
			respondErr(w, h.logger, err)
			return
		}
		if !allowed {
			respondErr(w, h.logger, apperr.Unavailable("rate limit exceeded"))
			return
		}
	}
	var req ArtifactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, h.logger, apperr.Invalid("invalid request body: "+err.Error()))
		return
	}
	if req.Text == "" {
		respondErr(w, h.logger, apperr.Invalid("text is required"))
		return
	}
	sc, err := h.scopeFor(r, userCtx.TenantID, req.GraphID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	result, err := h.pipeline.Ingest(r.Context(), sc, ingest.ArtifactInput{
		ArtifactType:  kind,
		SourceURL:     req.SourceURL,
		SourceID:      req.SourceID,
		Title:         req.Title,
		Domain:        req.Domain,
		Text:          req.Text,
		RawHTML:       req.RawHTML,
		SelectionText: req.SelectionText,
		Metadata:      req.Metadata,
		Actions:       actions,
		Policy:        policy,
	})
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	status := http.StatusCreated
	if result.Status != ingest.StatusCompleted {
		status = http.StatusOK
	}
	respondJSON(w, h.logger, status, result)
}

// Web handles POST /web/ingest. The caller must reach this server on a
// loopback address — exposed only to local browser-extension connectors.
func (h *IngestHandler) Web(w http.ResponseWriter, r *http.Request) {
	if !isLoopback(r.RemoteAddr) {
		respondErr(w, h.logger, apperr.Forbidden("web ingest is restricted to localhost"))
		return
	}
	h.run(w, r, graph.ArtifactWeb,
		ingest.Actions{RunChunkAndClaims: true, EmbedClaims: true, CreateArtifactNode: true},
		ingest.Policy{LocalOnly: true})
}

// Lectures handles POST /lectures/ingest (text corpus).
func (h *IngestHandler) Lectures(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, graph.ArtifactPDF,
		ingest.Actions{RunLectureExtraction: true, RunChunkAndClaims: true, EmbedClaims: true,
			CreateArtifactNode: true, CreateLectureNode: true},
		ingest.Policy{})
}

// Notion handles POST /notion/... (Notion page export).
func (h *IngestHandler) Notion(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, graph.ArtifactNotion,
		ingest.Actions{RunChunkAndClaims: true, EmbedClaims: true, CreateArtifactNode: true},
		ingest.Policy{})
}

// Finance handles POST /finance/.../ingest (EDGAR-style finance documents).
func (h *IngestHandler) Finance(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, graph.ArtifactFinance,
		ingest.Actions{RunChunkAndClaims: true, EmbedClaims: true, CreateArtifactNode: true},
		ingest.Policy{})
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(strings.TrimSpace(host))
	return ip != nil && ip.IsLoopback()
}
