package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/dao-risk/internal/model"
)

const (
	getCursorSQL = `
SELECT cursor
FROM sync_cursors
WHERE space = $1 AND stream = $2;`

	setCursorSQL = `
INSERT INTO sync_cursors (space, stream, cursor, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (space, stream)
DO UPDATE SET
    cursor = EXCLUDED.cursor,
    updated_at = EXCLUDED.updated_at;`

	deleteCursorSQL = `
DELETE FROM sync_cursors
WHERE space = $1 AND stream = $2;`

	upsertProposalSQL = `
INSERT INTO proposals (id, space, title, author, state, choices, scores, scores_total, start_ts, end_ts, created, cursor, synced_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
ON CONFLICT (id)
DO UPDATE SET
    title = EXCLUDED.title,
    state = EXCLUDED.state,
    choices = EXCLUDED.choices,
    scores = EXCLUDED.scores,
    scores_total = EXCLUDED.scores_total,
    start_ts = EXCLUDED.start_ts,
    end_ts = EXCLUDED.end_ts,
    cursor = EXCLUDED.cursor,
    synced_at = EXCLUDED.synced_at;`

	upsertVoteSQL = `
INSERT INTO votes (id, space, proposal_id, voter, choice, voting_power, reason, created, cursor, synced_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
ON CONFLICT (id)
DO UPDATE SET
    choice = EXCLUDED.choice,
    voting_power = EXCLUDED.voting_power,
    reason = EXCLUDED.reason,
    cursor = EXCLUDED.cursor,
    synced_at = EXCLUDED.synced_at;`
)

// Postgres stores cursors and items for one governance space.
type Postgres struct {
	pool   *pgxpool.Pool
	space  string
	logger *slog.Logger
}

// NewPostgres creates a Postgres store scoped to space.
func NewPostgres(pool *pgxpool.Pool, space string, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{
		pool:   pool,
		space:  space,
		logger: logger,
	}
}

// LastCursor returns the persisted cursor for stream, or model.NoCursor if
// none has been written.
func (s *Postgres) LastCursor(ctx context.Context, stream model.Stream) (model.Cursor, error) {
	var cursor string
	err := s.pool.QueryRow(ctx, getCursorSQL, s.space, string(stream)).Scan(&cursor)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.NoCursor, nil
	}
	if err != nil {
		return model.NoCursor, fmt.Errorf("get %s cursor: %w", stream, err)
	}
	return model.Cursor(cursor), nil
}

// ResetCursor removes the persisted cursor so the next sync starts over.
func (s *Postgres) ResetCursor(ctx context.Context, stream model.Stream) error {
	if _, err := s.pool.Exec(ctx, deleteCursorSQL, s.space, string(stream)); err != nil {
		return fmt.Errorf("reset %s cursor: %w", stream, err)
	}
	return nil
}

// SaveProposals upserts proposals tagged with tag and sets the proposals
// cursor to next, atomically.
func (s *Postgres) SaveProposals(ctx context.Context, proposals []model.Proposal, tag, next model.Cursor) error {
	batch := &pgx.Batch{}
	for _, p := range proposals {
		choices, scores := p.Choices, p.Scores
		if choices == nil {
			choices = []string{}
		}
		if scores == nil {
			scores = []float64{}
		}
		batch.Queue(upsertProposalSQL,
			p.ID, p.Space, p.Title, p.Author, p.State, choices, scores,
			p.ScoresTotal, p.Start, p.End, p.Created, string(tag),
		)
	}
	return s.saveBatch(ctx, model.StreamProposals, batch, next)
}

// SaveVotes upserts votes and sets the votes cursor to next, atomically.
// Vote rows are tagged with next.
func (s *Postgres) SaveVotes(ctx context.Context, votes []model.Vote, next model.Cursor) error {
	batch := &pgx.Batch{}
	for _, v := range votes {
		batch.Queue(upsertVoteSQL,
			v.ID, v.Space, v.ProposalID, v.Voter, v.Choice, v.VotingPower,
			v.Reason, v.Created, string(next),
		)
	}
	return s.saveBatch(ctx, model.StreamVotes, batch, next)
}

// saveBatch runs the queued upserts and the cursor write in one transaction.
func (s *Postgres) saveBatch(ctx context.Context, stream model.Stream, batch *pgx.Batch, next model.Cursor) error {
	start := time.Now()
	items := batch.Len()

	batch.Queue(setCursorSQL, s.space, string(stream), string(next))

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return err
			}
		}
		return results.Close()
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", stream, err)
	}

	s.logger.Debug("saved stream page",
		"stream", stream,
		"items", items,
		"cursor", next,
		"duration", time.Since(start),
	)
	return nil
}
