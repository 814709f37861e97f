package branches

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"substrate/domain/apperr"
	"substrate/domain/contextual"
)

// CreateBranch is idempotent on (parent_message_id, selected_text_hash): a
// repeated call with the same parent message and selection returns the
// existing branch instead of creating a duplicate (spec §4.7 step 3).
func (s *Store) CreateBranch(ctx context.Context, graphID, chatID, parentMessageID, parentMessageContent, selectedText string, startOffset, endOffset int) (*contextual.Branch, error) {
	b, err := contextual.NewBranch(graphID, chatID, parentMessageID, selectedText, startOffset, endOffset)
	if err != nil {
		return nil, err
	}

	existing, err := s.findBranch(ctx, parentMessageID, b.SelectedTextHash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Unavailable("branches store: begin tx: " + err.Error())
	}
	defer tx.Rollback(ctx)

	version, err := nextParentMessageVersion(ctx, tx, parentMessageID)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO parent_message_versions (message_id, version, content)
		VALUES ($1, $2, $3)`,
		parentMessageID, version, parentMessageContent); err != nil {
		return nil, apperr.Unavailable("branches store: insert parent version: " + err.Error())
	}

	b.ParentMessageVersion = version
	if _, err := tx.Exec(ctx, `
		INSERT INTO contextual_branches
		    (id, graph_id, chat_id, parent_message_id, selected_text_hash, selected_text,
		     start_offset, end_offset, parent_message_version, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		b.BranchID, b.GraphID, b.ChatID, b.ParentMessageID, b.SelectedTextHash, b.SelectedText,
		b.StartOffset, b.EndOffset, b.ParentMessageVersion, string(b.Status), b.CreatedAt, b.UpdatedAt); err != nil {
		var pgErr interface{ SQLState() string }
		if errors.As(err, &pgErr) && pgErr.SQLState() == "23505" {
			// lost the idempotency race; another writer just inserted the same branch
			if err := tx.Rollback(ctx); err != nil {
				return nil, apperr.Unavailable("branches store: rollback after race: " + err.Error())
			}
			return s.findBranch(ctx, parentMessageID, b.SelectedTextHash)
		}
		return nil, apperr.Unavailable("branches store: insert branch: " + err.Error())
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Unavailable("branches store: commit: " + err.Error())
	}
	return b, nil
}

func nextParentMessageVersion(ctx context.Context, tx pgx.Tx, messageID string) (int, error) {
	var max int
	err := tx.QueryRow(ctx, `
		SELECT coalesce(MAX(version), 0) FROM parent_message_versions WHERE message_id = $1`,
		messageID).Scan(&max)
	if err != nil {
		return 0, apperr.Unavailable("branches store: read parent version: " + err.Error())
	}
	return max + 1, nil
}

func (s *Store) findBranch(ctx context.Context, parentMessageID, selectedTextHash string) (*contextual.Branch, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, graph_id, chat_id, parent_message_id, selected_text_hash, selected_text,
		       start_offset, end_offset, parent_message_version, status, created_at, updated_at
		FROM contextual_branches
		WHERE parent_message_id = $1 AND selected_text_hash = $2`,
		parentMessageID, selectedTextHash)
	return scanBranch(row)
}

// GetBranch fetches a branch by id.
func (s *Store) GetBranch(ctx context.Context, branchID string) (*contextual.Branch, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, graph_id, chat_id, parent_message_id, selected_text_hash, selected_text,
		       start_offset, end_offset, parent_message_version, status, created_at, updated_at
		FROM contextual_branches WHERE id = $1`,
		branchID)
	b, err := scanBranch(row)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperr.NotFound("contextual branch not found: " + branchID)
	}
	return b, nil
}

// BranchesForMessage lists every branch opened against a given parent
// message, most recent first.
func (s *Store) BranchesForMessage(ctx context.Context, parentMessageID string) ([]*contextual.Branch, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, graph_id, chat_id, parent_message_id, selected_text_hash, selected_text,
		       start_offset, end_offset, parent_message_version, status, created_at, updated_at
		FROM contextual_branches
		WHERE parent_message_id = $1
		ORDER BY created_at DESC`,
		parentMessageID)
	if err != nil {
		return nil, apperr.Unavailable("branches store: list by message: " + err.Error())
	}
	defer rows.Close()
	var out []*contextual.Branch
	for rows.Next() {
		b, err := scanBranchRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Archive soft-archives a branch (spec §4.7 "Archive and delete").
func (s *Store) Archive(ctx context.Context, branchID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE contextual_branches SET status = 'ARCHIVED', updated_at = now() WHERE id = $1`,
		branchID)
	if err != nil {
		return apperr.Unavailable("branches store: archive: " + err.Error())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("contextual branch not found: " + branchID)
	}
	return nil
}

// Delete removes a branch and, via ON DELETE CASCADE, its messages and
// hints.
func (s *Store) Delete(ctx context.Context, branchID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM contextual_branches WHERE id = $1`, branchID)
	if err != nil {
		return apperr.Unavailable("branches store: delete: " + err.Error())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("contextual branch not found: " + branchID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBranch(row pgx.Row) (*contextual.Branch, error) {
	b, err := scanBranchRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

func scanBranchRow(row rowScanner) (*contextual.Branch, error) {
	var b contextual.Branch
	var status string
	err := row.Scan(&b.BranchID, &b.GraphID, &b.ChatID, &b.ParentMessageID, &b.SelectedTextHash,
		&b.SelectedText, &b.StartOffset, &b.EndOffset, &b.ParentMessageVersion, &status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, apperr.Unavailable(fmt.Sprintf("branches store: scan branch: %v", err))
	}
	b.Status = contextual.BranchStatus(status)
	return &b, nil
}
