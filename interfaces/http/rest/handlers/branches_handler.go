package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"substrate/domain/apperr"
	"substrate/domain/contextual"
	"substrate/internal/branches"
	"substrate/pkg/auth"
	"substrate/pkg/utils"
)

// BranchesHandler handles contextual-branch HTTP requests — sub-
// conversations anchored to a span of a parent chat message (spec §6
// "Branches", §4.7).
type BranchesHandler struct {
	store  *branches.Store
	logger *zap.Logger
}

func NewBranchesHandler(store *branches.Store, logger *zap.Logger) *BranchesHandler {
	return &BranchesHandler{store: store, logger: logger}
}

// CreateBranchRequest is the POST /contextual-branches body.
type CreateBranchRequest struct {
	GraphID               string `json:"graph_id" validate:"required"`
	ChatID                string `json:"chat_id" validate:"required"`
	ParentMessageID       string `json:"parent_message_id" validate:"required"`
	ParentMessageContent  string `json:"parent_message_content"`
	SelectedText          string `json:"selected_text" validate:"required"`
	StartOffset           int    `json:"start_offset"`
	EndOffset             int    `json:"end_offset" validate:"gtfield=StartOffset"`
}

// Create handles POST /contextual-branches.
func (h *BranchesHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.GetUserFromContext(r.Context()); err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	var req CreateBranchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, h.logger, apperr.Invalid("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondErr(w, h.logger, apperr.Invalid(err.Error()))
		return
	}
	branch, err := h.store.CreateBranch(r.Context(), req.GraphID, req.ChatID, req.ParentMessageID,
		req.ParentMessageContent, req.SelectedText, req.StartOffset, req.EndOffset)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, branch)
}

// Get handles GET /contextual-branches/{id}.
func (h *BranchesHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.GetUserFromContext(r.Context()); err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	branch, err := h.store.GetBranch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, branch)
}

// AddMessageRequest is the POST /contextual-branches/{id}/messages body:
// a user turn and the assistant's reply, added together.
type AddMessageRequest struct {
	UserContent      string `json:"user_content" validate:"required"`
	AssistantContent string `json:"assistant_content" validate:"required"`
}

// AddMessages handles POST /contextual-branches/{id}/messages.
func (h *BranchesHandler) AddMessages(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.GetUserFromContext(r.Context()); err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	branchID := chi.URLParam(r, "id")
	var req AddMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, h.logger, apperr.Invalid("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondErr(w, h.logger, apperr.Invalid(err.Error()))
		return
	}
	userMsg, err := h.store.AddMessage(r.Context(), branchID, contextual.RoleUser, req.UserContent)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	assistantMsg, err := h.store.AddMessage(r.Context(), branchID, contextual.RoleAssistant, req.AssistantContent)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, map[string]interface{}{
		"user_message": userMsg, "assistant_message": assistantMsg,
	})
}

// RegenerateHints handles POST /contextual-branches/{id}/hints: it derives
// fresh bridging hints from the branch's most recent assistant message and
// locates each against the parent message's stored version, replacing any
// hints saved by a prior call.
func (h *BranchesHandler) RegenerateHints(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.GetUserFromContext(r.Context()); err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	branchID := chi.URLParam(r, "id")
	branch, err := h.store.GetBranch(r.Context(), branchID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	messages, err := h.store.Messages(r.Context(), branchID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	parentContent, err := h.store.ParentMessageContent(r.Context(), branch.ParentMessageID, branch.ParentMessageVersion)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}

	var hints []*contextual.BridgingHint
	for _, phrase := range candidatePhrases(messages) {
		offset := contextual.LocateTargetOffset(parentContent, phrase, branch.EndOffset)
		hint, err := contextual.NewBridgingHint(branchID, phrase, offset)
		if err != nil {
			continue
		}
		hints = append(hints, hint)
	}
	if err := h.store.SaveBridgingHints(r.Context(), branchID, hints); err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"hints": hints})
}

// candidatePhrases picks up to 3 short phrases from the latest assistant
// message to anchor as bridging hints — a cheap heuristic standing in for
// full NL summarization, which belongs behind the llm.Collaborator port.
func candidatePhrases(messages []*contextual.Message) []string {
	var latest string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == contextual.RoleAssistant {
			latest = messages[i].Content
			break
		}
	}
	if latest == "" {
		return nil
	}
	sentences := strings.Split(latest, ".")
	var phrases []string
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		phrases = append(phrases, s)
		if len(phrases) == 3 {
			break
		}
	}
	return phrases
}

// ListForMessage handles GET /contextual-branches/messages/{message_id}/branches.
func (h *BranchesHandler) ListForMessage(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.GetUserFromContext(r.Context()); err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	branchList, err := h.store.BranchesForMessage(r.Context(), chi.URLParam(r, "messageID"))
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"branches": branchList})
}

// Archive handles POST /contextual-branches/{id}/archive.
func (h *BranchesHandler) Archive(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.GetUserFromContext(r.Context()); err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	if err := h.store.Archive(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondErr(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /contextual-branches/{id}.
func (h *BranchesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.GetUserFromContext(r.Context()); err != nil {
		respondErr(w, h.logger, apperr.Forbidden("unauthorized"))
		return
	}
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondErr(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
