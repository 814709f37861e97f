package contextual

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBranchID_IsDeterministic(t *testing.T) {
	id1, hash1 := NewBranchID("msg-1", "selected text")
	id2, hash2 := NewBranchID("msg-1", "selected text")

	require.Equal(t, id1, id2, "same (parent_message_id, selected_text) must yield the same branch id")
	require.Equal(t, hash1, hash2)
}

func TestNewBranchID_DiffersByInput(t *testing.T) {
	id1, _ := NewBranchID("msg-1", "a")
	id2, _ := NewBranchID("msg-1", "b")
	id3, _ := NewBranchID("msg-2", "a")

	require.NotEqual(t, id1, id2)
	require.NotEqual(t, id1, id3)
}

func TestNewBranch_Valid(t *testing.T) {
	b, err := NewBranch("g1", "chat-1", "msg-1", "  selected  ", 0, 10)
	require.NoError(t, err)
	require.Equal(t, BranchOpen, b.Status)
	require.Equal(t, "selected", b.SelectedText)

	wantID, _ := NewBranchID("msg-1", "selected")
	require.Equal(t, wantID, b.BranchID)
}

func TestNewBranch_RejectsInvalidOffsets(t *testing.T) {
	_, err := NewBranch("g1", "chat-1", "msg-1", "x", -1, 5)
	require.Error(t, err)

	_, err = NewBranch("g1", "chat-1", "msg-1", "x", 5, 5)
	require.Error(t, err)

	_, err = NewBranch("g1", "chat-1", "msg-1", "x", 5, 2)
	require.Error(t, err)
}

func TestNewBranch_RejectsEmptySelection(t *testing.T) {
	_, err := NewBranch("g1", "chat-1", "msg-1", "   ", 0, 5)
	require.Error(t, err)
}

func TestNewBranch_RejectsMissingIdentifiers(t *testing.T) {
	_, err := NewBranch("", "chat-1", "msg-1", "x", 0, 5)
	require.Error(t, err)
}

func TestBranch_Archive_IsIdempotent(t *testing.T) {
	b, err := NewBranch("g1", "chat-1", "msg-1", "x", 0, 5)
	require.NoError(t, err)

	b.Archive()
	require.Equal(t, BranchArchived, b.Status)
	firstUpdate := b.UpdatedAt

	b.Archive()
	require.Equal(t, BranchArchived, b.Status)
	require.Equal(t, firstUpdate, b.UpdatedAt, "archiving twice should not bump UpdatedAt again")
}

func TestNewMessage_Valid(t *testing.T) {
	m, err := NewMessage("m1", "branch-1", RoleUser, "hello")
	require.NoError(t, err)
	require.Equal(t, RoleUser, m.Role)
}

func TestNewMessage_RejectsInvalidRole(t *testing.T) {
	_, err := NewMessage("m1", "branch-1", MessageRole("bogus"), "hello")
	require.Error(t, err)
}

func TestNewMessage_RejectsEmptyContent(t *testing.T) {
	_, err := NewMessage("m1", "branch-1", RoleAssistant, "")
	require.Error(t, err)
}

func TestNewParentMessageVersion_RequiresIDs(t *testing.T) {
	_, err := NewParentMessageVersion("", "branch-1", "content")
	require.Error(t, err)

	v, err := NewParentMessageVersion("msg-1", "branch-1", "content")
	require.NoError(t, err)
	require.Equal(t, "content", v.Content)
}

func TestNewBridgingHint_Valid(t *testing.T) {
	h, err := NewBridgingHint("branch-1", "see also X", 12)
	require.NoError(t, err)
	require.Equal(t, 12, h.TargetOffset)
}

func TestNewBridgingHint_RejectsInvalid(t *testing.T) {
	_, err := NewBridgingHint("", "text", 0)
	require.Error(t, err)

	_, err = NewBridgingHint("branch-1", "", 0)
	require.Error(t, err)

	_, err = NewBridgingHint("branch-1", "text", -1)
	require.Error(t, err)
}

func TestLocateTargetOffset_FindsPhrase(t *testing.T) {
	offset := LocateTargetOffset("the quick brown fox", "brown", 99)
	require.Equal(t, 10, offset)
}

func TestLocateTargetOffset_FallsBackToAnchorEndOnMiss(t *testing.T) {
	offset := LocateTargetOffset("the quick brown fox", "giraffe", 99)
	require.Equal(t, 99, offset)
}

func TestLocateTargetOffset_EmptyPhraseFallsBack(t *testing.T) {
	offset := LocateTargetOffset("anything", "", 7)
	require.Equal(t, 7, offset)
}
