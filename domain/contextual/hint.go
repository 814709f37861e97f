package contextual

import (
	"strings"
	"time"

	"substrate/domain/apperr"
)

// BridgingHint ties a contextual branch's discussion back to a point in the
// parent message: HintText is the suggestion surfaced to the user, and
// TargetOffset locates where in the parent (at the branch's stored
// parent-message version) the hint is anchored.
type BridgingHint struct {
	BranchID     string
	HintText     string
	TargetOffset int
	CreatedAt    time.Time
}

func NewBridgingHint(branchID, hintText string, targetOffset int) (*BridgingHint, error) {
	if branchID == "" {
		return nil, apperr.Invalid("bridging hint requires branch_id")
	}
	if hintText == "" {
		return nil, apperr.Invalid("bridging hint requires non-empty hint_text")
	}
	if targetOffset < 0 {
		return nil, apperr.Invalid("bridging hint target_offset must be non-negative")
	}
	return &BridgingHint{
		BranchID:     branchID,
		HintText:     hintText,
		TargetOffset: targetOffset,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// LocateTargetOffset finds target_phrase within parent content at the
// branch's stored version; on miss it falls back to the anchor's end
// offset, per spec §4.7.
func LocateTargetOffset(parentContent, targetPhrase string, anchorEndOffset int) int {
	if targetPhrase == "" {
		return anchorEndOffset
	}
	idx := strings.Index(parentContent, targetPhrase)
	if idx < 0 {
		return anchorEndOffset
	}
	return idx
}
