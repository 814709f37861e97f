package branches

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"substrate/domain/apperr"
	"substrate/domain/contextual"
)

// SaveBridgingHints atomically replaces a branch's hint set: DELETE +
// re-INSERT inside one transaction, per spec §4.7 "Bridging hints".
func (s *Store) SaveBridgingHints(ctx context.Context, branchID string, hints []*contextual.BridgingHint) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperr.Unavailable("branches store: begin tx: " + err.Error())
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT true FROM contextual_branches WHERE id = $1`, branchID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("contextual branch not found: " + branchID)
		}
		return apperr.Unavailable("branches store: check branch: " + err.Error())
	}

	if _, err := tx.Exec(ctx, `DELETE FROM bridging_hints WHERE branch_id = $1`, branchID); err != nil {
		return apperr.Unavailable("branches store: delete hints: " + err.Error())
	}
	for _, h := range hints {
		if _, err := tx.Exec(ctx, `
			INSERT INTO bridging_hints (branch_id, hint_text, target_offset) VALUES ($1, $2, $3)`,
			branchID, h.HintText, h.TargetOffset); err != nil {
			return apperr.Unavailable("branches store: insert hint: " + err.Error())
		}
	}
	return tx.Commit(ctx)
}

// Hints returns a branch's current hint set.
func (s *Store) Hints(ctx context.Context, branchID string) ([]*contextual.BridgingHint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT hint_text, target_offset, created_at FROM bridging_hints
		WHERE branch_id = $1 ORDER BY id ASC`,
		branchID)
	if err != nil {
		return nil, apperr.Unavailable("branches store: list hints: " + err.Error())
	}
	defer rows.Close()
	var out []*contextual.BridgingHint
	for rows.Next() {
		h := &contextual.BridgingHint{BranchID: branchID}
		if err := rows.Scan(&h.HintText, &h.TargetOffset, &h.CreatedAt); err != nil {
			return nil, apperr.Unavailable("branches store: scan hint: " + err.Error())
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ParentMessageContent fetches the parent message content frozen at the
// version a branch was opened on — the value a hint's target_phrase is
// located within (spec §4.7).
func (s *Store) ParentMessageContent(ctx context.Context, messageID string, version int) (string, error) {
	var content string
	err := s.pool.QueryRow(ctx, `
		SELECT content FROM parent_message_versions WHERE message_id = $1 AND version = $2`,
		messageID, version).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.NotFound("parent message version not found")
		}
		return "", apperr.Unavailable("branches store: read parent version: " + err.Error())
	}
	return content, nil
}
