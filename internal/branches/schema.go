package branches

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlContextualBranches = `
CREATE TABLE IF NOT EXISTS contextual_branches (
    id                      TEXT         PRIMARY KEY,
    graph_id                TEXT         NOT NULL,
    chat_id                 TEXT         NOT NULL DEFAULT '',
    parent_message_id       TEXT         NOT NULL,
    selected_text_hash      TEXT         NOT NULL,
    selected_text           TEXT         NOT NULL,
    start_offset            INTEGER      NOT NULL,
    end_offset              INTEGER      NOT NULL,
    parent_message_version  INTEGER      NOT NULL,
    status                  TEXT         NOT NULL DEFAULT 'OPEN',
    created_at              TIMESTAMPTZ  NOT NULL DEFAULT now(),
    updated_at              TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_contextual_branches_idempotency
    ON contextual_branches (parent_message_id, selected_text_hash);

CREATE TABLE IF NOT EXISTS branch_messages (
    id          BIGSERIAL    PRIMARY KEY,
    branch_id   TEXT         NOT NULL REFERENCES contextual_branches (id) ON DELETE CASCADE,
    role        TEXT         NOT NULL,
    content     TEXT         NOT NULL,
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_branch_messages_branch_id
    ON branch_messages (branch_id, created_at);

CREATE TABLE IF NOT EXISTS bridging_hints (
    id              BIGSERIAL    PRIMARY KEY,
    branch_id       TEXT         NOT NULL REFERENCES contextual_branches (id) ON DELETE CASCADE,
    hint_text       TEXT         NOT NULL,
    target_offset   INTEGER      NOT NULL,
    created_at      TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_bridging_hints_branch_id
    ON bridging_hints (branch_id);

CREATE TABLE IF NOT EXISTS parent_message_versions (
    message_id  TEXT         NOT NULL,
    version     INTEGER      NOT NULL,
    content     TEXT         NOT NULL,
    PRIMARY KEY (message_id, version)
);
`

// Migrate runs the branch schema DDL; it is idempotent and safe to call on
// every process start, mirroring the teacher pack's postgres.Migrate.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, ddlContextualBranches)
	return err
}
