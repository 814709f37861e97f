// Package contextual holds the sub-conversation model: a Branch anchored to
// a span of a parent chat message, its messages, and the hints that bridge
// its discussion back into the knowledge graph. Unlike domain/graph's Branch
// (a named history line inside a GraphSpace), a contextual Branch is a
// throwaway exploratory thread a user opens by selecting text.
package contextual

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"substrate/domain/apperr"
)

// BranchStatus tracks a contextual branch's lifecycle.
type BranchStatus string

const (
	BranchOpen     BranchStatus = "OPEN"
	BranchArchived BranchStatus = "ARCHIVED"
)

// Branch is a sub-conversation anchored to a span of text inside a parent
// chat message.
type Branch struct {
	BranchID        string // branch-<hash>, see NewBranchID
	GraphID         string
	ChatID          string
	ParentMessageID string
	SelectedText    string
	SelectedTextHash string
	StartOffset     int
	EndOffset       int
	ParentMessageVersion int // version of the parent message this branch was anchored against
	Status          BranchStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewBranchID derives the idempotency key every createBranch call hashes on:
// the same (parent_message_id, selected_text) pair always yields the same
// branch id, so re-opening a branch on the same selection returns the
// existing branch instead of creating a duplicate.
func NewBranchID(parentMessageID, selectedText string) (branchID, textHash string) {
	sum := sha256.Sum256([]byte(selectedText))
	textHash = hex.EncodeToString(sum[:])
	idSum := sha256.Sum256([]byte(parentMessageID + "|" + textHash))
	branchID = "branch-" + hex.EncodeToString(idSum[:])[:16]
	return branchID, textHash
}

// NewBranch validates the span and constructs a Branch ready for idempotent
// insertion, mirroring the original's "start_offset < 0 or end_offset <=
// start_offset" rejection and non-empty-selection requirement.
func NewBranch(graphID, chatID, parentMessageID, selectedText string, startOffset, endOffset int) (*Branch, error) {
	if graphID == "" || chatID == "" || parentMessageID == "" {
		return nil, apperr.Invalid("branch requires graph_id, chat_id, parent_message_id")
	}
	selectedText = strings.TrimSpace(selectedText)
	if selectedText == "" {
		return nil, apperr.Invalid("branch requires non-empty selected_text")
	}
	if startOffset < 0 || endOffset <= startOffset {
		return nil, apperr.Invalid("branch requires 0 <= start_offset < end_offset")
	}
	branchID, textHash := NewBranchID(parentMessageID, selectedText)
	now := time.Now().UTC()
	return &Branch{
		BranchID:         branchID,
		GraphID:          graphID,
		ChatID:           chatID,
		ParentMessageID:  parentMessageID,
		SelectedText:     selectedText,
		SelectedTextHash: textHash,
		StartOffset:      startOffset,
		EndOffset:        endOffset,
		Status:           BranchOpen,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Archive transitions an open branch to archived; archiving an already
// archived branch is a no-op, matching the idempotent-delete style of the
// rest of this subsystem.
func (b *Branch) Archive() {
	if b.Status == BranchArchived {
		return
	}
	b.Status = BranchArchived
	b.UpdatedAt = time.Now().UTC()
}
