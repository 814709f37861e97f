package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"substrate/domain/apperr"
	"substrate/domain/graph"
	"substrate/internal/entities"
	"substrate/internal/scope"
	"substrate/pkg/auth"
	"substrate/pkg/utils"
)

// ConceptsHandler handles concept and relationship HTTP requests scoped to
// the caller's active graph/branch (spec §6 "Concepts").
type ConceptsHandler struct {
	entities *entities.Service
	resolver *scope.Resolver
	logger   *zap.Logger
}

func NewConceptsHandler(ent *entities.Service, resolver *scope.Resolver, logger *zap.Logger) *ConceptsHandler {
	return &ConceptsHandler{entities: ent, resolver: resolver, logger: logger}
}

// CreateConceptRequest is the POST /concepts/ body.
type CreateConceptRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=200"`
	Domain      string   `json:"domain,omitempty"`
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty" validate:"max=10000"`
	Tags        []string `json:"tags,omitempty"`
}

// UpdateConceptRequest is the PUT /concepts/{id} body; both fields optional.
type UpdateConceptRequest struct {
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// RelationshipRequest is the POST /concepts/relationship(-by-ids|/propose) body.
type RelationshipRequest struct {
	SourceID   string  `json:"source_id,omitempty"`
	SourceName string  `json:"source_name,omitempty"`
	TargetID   string  `json:"target_id,omitempty"`
	TargetName string  `json:"target_name,omitempty"`
	Predicate  string  `json:"predicate" validate:"required"`
	Confidence float64 `json:"confidence,omitempty"`
	Rationale  string  `json:"rationale,omitempty"`
}

func (h *ConceptsHandler) activeScope(r *http.Request) (scope.Context, *auth.UserContext, error) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		return scope.Context{}, nil, apperr.Forbidden("unauthorized")
	}
	sc, err := h.resolver.ResolveActive(r.Context(), userCtx.TenantID)
	return sc, userCtx, err
}

// Create handles POST /concepts/.
func (h *ConceptsHandler) Create(w http.ResponseWriter, r *http.Request) {
	sc, _, err := h.activeScope(r)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	var req CreateConceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, h.logger, apperr.Invalid("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondErr(w, h.logger, apperr.Invalid(err.Error()))
		return
	}
	concept, err := h.entities.CreateConcept(r.Context(), sc, entities.ConceptInput{
		Name: req.Name, Domain: req.Domain, Type: req.Type, Description: req.Description, Tags: req.Tags,
	})
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, concept)
}

// Get handles GET /concepts/{id}.
func (h *ConceptsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sc, _, err := h.activeScope(r)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	concept, err := h.entities.GetConcept(r.Context(), sc, chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, concept)
}

// GetByName handles GET /concepts/by-name/{name}.
func (h *ConceptsHandler) GetByName(w http.ResponseWriter, r *http.Request) {
	sc, _, err := h.activeScope(r)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	concept, err := h.entities.GetConceptByName(r.Context(), sc, chi.URLParam(r, "name"))
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, concept)
}

// Update handles PUT /concepts/{id}.
func (h *ConceptsHandler) Update(w http.ResponseWriter, r *http.Request) {
	sc, _, err := h.activeScope(r)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	var req UpdateConceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, h.logger, apperr.Invalid("invalid request body: "+err.Error()))
		return
	}
	if err := h.entities.UpdateConcept(r.Context(), sc, chi.URLParam(r, "id"), entities.ConceptUpdate{
		Description: req.Description, Tags: req.Tags,
	}); err != nil {
		respondErr(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /concepts/{id}.
func (h *ConceptsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sc, _, err := h.activeScope(r)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	if err := h.entities.DeleteConcept(r.Context(), sc, chi.URLParam(r, "id")); err != nil {
		respondErr(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConceptsHandler) createRelationship(w http.ResponseWriter, r *http.Request, status graph.RelationshipStatus) {
	sc, _, err := h.activeScope(r)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	var req RelationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, h.logger, apperr.Invalid("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondErr(w, h.logger, apperr.Invalid(err.Error()))
		return
	}
	rel, err := h.entities.CreateRelationship(r.Context(), sc, entities.RelationshipInput{
		SourceID: req.SourceID, SourceName: req.SourceName,
		TargetID: req.TargetID, TargetName: req.TargetName,
		Predicate: req.Predicate, Status: status, Confidence: req.Confidence,
		Method: graph.MethodManual, Rationale: req.Rationale,
	})
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, rel)
}

// CreateRelationship handles POST /concepts/relationship and
// /concepts/relationship-by-ids — both create an ACCEPTED edge; the
// by-ids variant is distinguished only by the caller populating
// source_id/target_id instead of source_name/target_name.
func (h *ConceptsHandler) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	h.createRelationship(w, r, graph.RelationshipAccepted)
}

// ProposeRelationship handles POST /concepts/relationship/propose.
func (h *ConceptsHandler) ProposeRelationship(w http.ResponseWriter, r *http.Request) {
	h.createRelationship(w, r, graph.RelationshipProposed)
}

// DeleteRelationship handles DELETE /concepts/relationship?source_id&target_id&predicate.
func (h *ConceptsHandler) DeleteRelationship(w http.ResponseWriter, r *http.Request) {
	sc, _, err := h.activeScope(r)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	q := r.URL.Query()
	sourceID, targetID, predicate := q.Get("source_id"), q.Get("target_id"), q.Get("predicate")
	if sourceID == "" || targetID == "" || predicate == "" {
		respondErr(w, h.logger, apperr.Invalid("source_id, target_id and predicate are required"))
		return
	}
	if err := h.entities.DeleteRelationship(r.Context(), sc, sourceID, targetID, predicate); err != nil {
		respondErr(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LinkCrossGraph handles POST /concepts/{id}/link-cross-graph?target_node_id&link_type.
func (h *ConceptsHandler) LinkCrossGraph(w http.ResponseWriter, r *http.Request) {
	sc, _, err := h.activeScope(r)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	targetNodeID := r.URL.Query().Get("target_node_id")
	if targetNodeID == "" {
		respondErr(w, h.logger, apperr.Invalid("target_node_id is required"))
		return
	}
	linkType := r.URL.Query().Get("link_type")
	rel, err := h.entities.LinkCrossGraph(r.Context(), sc, chi.URLParam(r, "id"), targetNodeID, linkType)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, rel)
}
