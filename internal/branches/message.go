package branches

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"substrate/domain/apperr"
	"substrate/domain/contextual"
)

func formatMessageID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// AddMessage appends a turn to a branch's message log and bumps the
// branch's updated_at. Branches are append-only: there is no edit or
// delete of an individual message (spec §4.7 "Messaging").
func (s *Store) AddMessage(ctx context.Context, branchID string, role contextual.MessageRole, content string) (*contextual.Message, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Unavailable("branches store: begin tx: " + err.Error())
	}
	defer tx.Rollback(ctx)

	var status string
	if err := tx.QueryRow(ctx, `SELECT status FROM contextual_branches WHERE id = $1`, branchID).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("contextual branch not found: " + branchID)
		}
		return nil, apperr.Unavailable("branches store: check branch: " + err.Error())
	}
	if status == string(contextual.BranchArchived) {
		return nil, apperr.Conflict("cannot append a message to an archived branch")
	}

	var id int64
	var createdAt time.Time
	if err := tx.QueryRow(ctx, `
		INSERT INTO branch_messages (branch_id, role, content) VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		branchID, string(role), content).Scan(&id, &createdAt); err != nil {
		return nil, apperr.Unavailable("branches store: insert message: " + err.Error())
	}
	if _, err := tx.Exec(ctx, `UPDATE contextual_branches SET updated_at = now() WHERE id = $1`, branchID); err != nil {
		return nil, apperr.Unavailable("branches store: touch branch: " + err.Error())
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Unavailable("branches store: commit: " + err.Error())
	}
	return &contextual.Message{
		MessageID: formatMessageID(id),
		BranchID:  branchID,
		Role:      role,
		Content:   content,
		CreatedAt: createdAt,
	}, nil
}

// Messages returns a branch's full message history, oldest first — the
// order a generator replays when re-grounding on a branch (spec §4.7).
func (s *Store) Messages(ctx context.Context, branchID string) ([]*contextual.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, role, content, created_at FROM branch_messages
		WHERE branch_id = $1 ORDER BY created_at ASC, id ASC`,
		branchID)
	if err != nil {
		return nil, apperr.Unavailable("branches store: list messages: " + err.Error())
	}
	defer rows.Close()
	var out []*contextual.Message
	for rows.Next() {
		var id int64
		var m contextual.Message
		var role string
		if err := rows.Scan(&id, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, apperr.Unavailable("branches store: scan message: " + err.Error())
		}
		m.MessageID = formatMessageID(id)
		m.BranchID = branchID
		m.Role = contextual.MessageRole(role)
		out = append(out, &m)
	}
	return out, rows.Err()
}
