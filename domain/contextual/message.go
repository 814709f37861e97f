package contextual

import (
	"time"

	"substrate/domain/apperr"
)

// MessageRole distinguishes user turns from assistant turns in a branch's
// sub-conversation.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one turn inside a contextual Branch.
type Message struct {
	MessageID string
	BranchID  string
	Role      MessageRole
	Content   string
	CreatedAt time.Time
}

func NewMessage(messageID, branchID string, role MessageRole, content string) (*Message, error) {
	if messageID == "" || branchID == "" {
		return nil, apperr.Invalid("branch message requires message_id and branch_id")
	}
	if role != RoleUser && role != RoleAssistant {
		return nil, apperr.Invalid("branch message role must be user or assistant")
	}
	if content == "" {
		return nil, apperr.Invalid("branch message requires non-empty content")
	}
	return &Message{
		MessageID: messageID,
		BranchID:  branchID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ParentMessageVersion snapshots the parent chat message's content at the
// moment a branch was opened on it, so later edits to the parent don't
// retroactively change what the branch was anchored to.
type ParentMessageVersion struct {
	ParentMessageID string
	BranchID        string
	Content         string
	CapturedAt      time.Time
}

func NewParentMessageVersion(parentMessageID, branchID, content string) (*ParentMessageVersion, error) {
	if parentMessageID == "" || branchID == "" {
		return nil, apperr.Invalid("parent message version requires parent_message_id and branch_id")
	}
	return &ParentMessageVersion{
		ParentMessageID: parentMessageID,
		BranchID:        branchID,
		Content:         content,
		CapturedAt:      time.Now().UTC(),
	}, nil
}
