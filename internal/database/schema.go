package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	createCursorsTableSQL = `
CREATE TABLE IF NOT EXISTS sync_cursors (
    space       VARCHAR       NOT NULL,
    stream      VARCHAR       NOT NULL,
    cursor      VARCHAR       NOT NULL,
    updated_at  TIMESTAMPTZ   NOT NULL DEFAULT now(),

    PRIMARY KEY (space, stream)
);`

	createProposalsTableSQL = `
CREATE TABLE IF NOT EXISTS proposals (
    id            VARCHAR            PRIMARY KEY,
    space         VARCHAR            NOT NULL,
    title         TEXT               NOT NULL,
    author        VARCHAR            NOT NULL,
    state         VARCHAR            NOT NULL,
    choices       TEXT[]             NOT NULL,
    scores        DOUBLE PRECISION[] NOT NULL,
    scores_total  DOUBLE PRECISION   NOT NULL,
    start_ts      BIGINT             NOT NULL,
    end_ts        BIGINT             NOT NULL,
    created       BIGINT             NOT NULL,
    cursor        VARCHAR            NOT NULL,
    synced_at     TIMESTAMPTZ        NOT NULL DEFAULT now()
);`

	createProposalsIndexSQL = `
CREATE INDEX IF NOT EXISTS proposals_space_created_idx
ON proposals (space, created);`

	createVotesTableSQL = `
CREATE TABLE IF NOT EXISTS votes (
    id            VARCHAR            PRIMARY KEY,
    space         VARCHAR            NOT NULL,
    proposal_id   VARCHAR            NOT NULL,
    voter         VARCHAR            NOT NULL,
    choice        JSONB              NOT NULL,
    voting_power  DOUBLE PRECISION   NOT NULL,
    reason        TEXT               NOT NULL DEFAULT '',
    created       BIGINT             NOT NULL,
    cursor        VARCHAR            NOT NULL,
    synced_at     TIMESTAMPTZ        NOT NULL DEFAULT now()
);`

	createVotesIndexSQL = `
CREATE INDEX IF NOT EXISTS votes_proposal_idx
ON votes (proposal_id);`
)

// Migrate creates the cursor, proposal and vote tables with indexes.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	steps := []struct {
		name string
		sql  string
	}{
		{"sync_cursors table", createCursorsTableSQL},
		{"proposals table", createProposalsTableSQL},
		{"proposals index", createProposalsIndexSQL},
		{"votes table", createVotesTableSQL},
		{"votes index", createVotesIndexSQL},
	}

	for _, step := range steps {
		if _, err := pool.Exec(ctx, step.sql); err != nil {
			return fmt.Errorf("create %s: %w", step.name, err)
		}
	}
	return nil
}
