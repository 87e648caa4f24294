package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/dao-risk/internal/clock"
	"github.com/rickgao/dao-risk/internal/metrics"
	"github.com/rickgao/dao-risk/internal/model"
)

// ProposalSource returns proposals created strictly after a cursor, in
// ascending creation order.
type ProposalSource interface {
	FetchProposals(ctx context.Context, after model.Cursor) (model.Page[model.Proposal], error)
}

// VoteSource returns votes created strictly after a cursor, in ascending
// creation order.
type VoteSource interface {
	FetchVotes(ctx context.Context, after model.Cursor) (model.Page[model.Vote], error)
}

// CursorStore persists items and stream cursors. Each save must upsert the
// items and write the cursor atomically.
type CursorStore interface {
	LastCursor(ctx context.Context, stream model.Stream) (model.Cursor, error)
	ResetCursor(ctx context.Context, stream model.Stream) error
	SaveProposals(ctx context.Context, proposals []model.Proposal, tag, next model.Cursor) error
	SaveVotes(ctx context.Context, votes []model.Vote, next model.Cursor) error
}

// Config holds engine configuration.
type Config struct {
	PollInterval   time.Duration // Sleep between cycles (default: 5m)
	FetchTimeout   time.Duration // Per-page fetch timeout (default: 30s)
	PersistTimeout time.Duration // Per-save timeout, not cancelled by shutdown (default: 30s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval:   5 * time.Minute,
		FetchTimeout:   30 * time.Second,
		PersistTimeout: 30 * time.Second,
	}
}

// StreamStats are per-stream counters since the engine was created.
type StreamStats struct {
	Cycles      int64
	Fetched     int64
	Saved       int64
	Dropped     int64
	Errors      int64
	LastSuccess time.Time
	LastError   string
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics records sync metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock sets the time source used for stats.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// Engine keeps the proposal and vote streams of one space in sync.
type Engine struct {
	cfg       Config
	proposals ProposalSource
	votes     VoteSource
	store     CursorStore
	metrics   *metrics.Metrics
	clock     clock.Clock
	logger    *slog.Logger

	mu      sync.RWMutex
	cursors map[model.Stream]model.Cursor
	stats   map[model.Stream]*StreamStats
	err     error

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a new Engine.
func New(cfg Config, proposals ProposalSource, votes VoteSource, store CursorStore, logger *slog.Logger, opts ...Option) *Engine {
	defaults := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaults.FetchTimeout
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = defaults.PersistTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		cfg:       cfg,
		proposals: proposals,
		votes:     votes,
		store:     store,
		clock:     clock.Real{},
		logger:    logger,
		cursors:   make(map[model.Stream]model.Cursor),
		stats:     make(map[model.Stream]*StreamStats),
		done:      make(chan struct{}),
	}
	for _, s := range model.Streams {
		e.stats[s] = &StreamStats{}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reset clears the persisted and in-memory cursors of every stream.
func (e *Engine) Reset(ctx context.Context) error {
	for _, stream := range model.Streams {
		if err := e.store.ResetCursor(ctx, stream); err != nil {
			return fmt.Errorf("reset %s: %w", stream, err)
		}
		e.setCursor(stream, model.NoCursor)
	}
	e.logger.Info("cursors reset")
	return nil
}

// Load reads the persisted cursor of every stream into memory.
func (e *Engine) Load(ctx context.Context) error {
	for _, stream := range model.Streams {
		c, err := e.store.LastCursor(ctx, stream)
		if err != nil {
			return fmt.Errorf("load %s cursor: %w", stream, err)
		}
		e.setCursor(stream, c)
		e.logger.Info("cursor loaded", "stream", stream, "cursor", c)
	}
	return nil
}

// Start optionally resets both cursors, loads the persisted cursors and
// begins the sync loop. The first cycle runs immediately.
func (e *Engine) Start(ctx context.Context, forceReset bool) error {
	if forceReset {
		if err := e.Reset(ctx); err != nil {
			return err
		}
	}
	if err := e.Load(ctx); err != nil {
		return err
	}

	ctx, e.cancel = context.WithCancel(ctx)
	go e.run(ctx)

	e.logger.Info("sync engine started", "interval", e.cfg.PollInterval)
	return nil
}

// Stop cancels the loop and waits for the current cycle to finish.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()

	select {
	case <-e.done:
		e.logger.Info("sync engine stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the loop has exited.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Err returns the invariant violation that stopped the loop, if any.
func (e *Engine) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.err
}

// Cursors returns a snapshot of the in-memory cursors.
func (e *Engine) Cursors() map[model.Stream]model.Cursor {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[model.Stream]model.Cursor, len(e.cursors))
	for k, v := range e.cursors {
		out[k] = v
	}
	return out
}

// Stats returns a snapshot of the per-stream counters.
func (e *Engine) Stats() map[model.Stream]StreamStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[model.Stream]StreamStats, len(e.stats))
	for k, v := range e.stats {
		out[k] = *v
	}
	return out
}

// run is the main sync loop.
func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := e.Sync(ctx); err != nil {
			e.mu.Lock()
			e.err = err
			e.mu.Unlock()
			e.logger.Error("sync engine halted", "err", err)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sync runs one cycle: proposals, then votes. A fetch or persist failure on
// one stream is logged and does not prevent the other. Only a cursor
// regression is returned.
func (e *Engine) Sync(ctx context.Context) error {
	start := e.clock.Now()
	logger := e.logger.With("cycle_id", uuid.NewString())

	if err := e.syncProposals(ctx, logger); err != nil {
		if errors.Is(err, ErrCursorRegression) {
			return err
		}
		logger.Warn("proposal sync failed", "err", err)
	}

	if ctx.Err() != nil {
		return nil
	}

	if err := e.syncVotes(ctx, logger); err != nil {
		if errors.Is(err, ErrCursorRegression) {
			return err
		}
		logger.Warn("vote sync failed", "err", err)
	}

	logger.Debug("sync cycle complete", "duration", e.clock.Now().Sub(start))
	return nil
}

// SyncProposals fetches one page of proposals after the proposal cursor,
// persists it tagged with that cursor and advances the cursor per
// AdvanceCursor.
func (e *Engine) SyncProposals(ctx context.Context) error {
	return e.syncProposals(ctx, e.logger)
}

// SyncVotes fetches one page of votes after the vote cursor, persists it and
// advances the cursor to the provider's marker or the last vote's creation
// time.
func (e *Engine) SyncVotes(ctx context.Context) error {
	return e.syncVotes(ctx, e.logger)
}

func (e *Engine) syncProposals(ctx context.Context, logger *slog.Logger) error {
	const stream = model.StreamProposals
	start := time.Now()
	current := e.cursor(stream)

	page, err := e.fetchProposals(ctx, current)
	if err != nil {
		return e.fail(stream, metrics.ResultFetchError, start, &FetchError{Stream: stream, Err: err})
	}

	if len(page.Items) == 0 {
		e.record(stream, 0, 0, 0)
		e.metrics.ObserveSync(stream, metrics.ResultEmpty, time.Since(start))
		logger.Debug("no new proposals", "cursor", current)
		return nil
	}

	// The advancement rule sees the raw page: an open proposal holds the
	// cursor even when it fails validation and is not stored.
	next := AdvanceCursor(current, page.Items)
	if next.Compare(current) < 0 {
		return regression(stream, current, next)
	}

	valid := make([]model.Proposal, 0, len(page.Items))
	for _, p := range page.Items {
		if err := model.ValidateProposal(p); err != nil {
			logger.Warn("dropping malformed proposal", "err", err, "open", p.IsOpen())
			continue
		}
		valid = append(valid, p)
	}
	dropped := len(page.Items) - len(valid)

	if err := e.persist(ctx, func(ctx context.Context) error {
		return e.store.SaveProposals(ctx, valid, current, next)
	}); err != nil {
		return e.fail(stream, metrics.ResultPersistError, start, &PersistError{Stream: stream, Err: err})
	}

	e.setCursor(stream, next)
	e.record(stream, len(page.Items), len(valid), dropped)
	e.metrics.AddSaved(stream, len(valid))
	e.metrics.AddDropped(stream, dropped)
	e.metrics.ObserveSync(stream, metrics.ResultOK, time.Since(start))

	logger.Info("proposals synced",
		"count", len(valid),
		"dropped", dropped,
		"cursor", current,
		"next", next,
		"duration", time.Since(start),
	)
	return nil
}

func (e *Engine) syncVotes(ctx context.Context, logger *slog.Logger) error {
	const stream = model.StreamVotes
	start := time.Now()
	current := e.cursor(stream)

	page, err := e.fetchVotes(ctx, current)
	if err != nil {
		return e.fail(stream, metrics.ResultFetchError, start, &FetchError{Stream: stream, Err: err})
	}

	if len(page.Items) == 0 && page.NextCursor.IsZero() {
		e.record(stream, 0, 0, 0)
		e.metrics.ObserveSync(stream, metrics.ResultEmpty, time.Since(start))
		logger.Debug("no new votes", "cursor", current)
		return nil
	}

	valid := make([]model.Vote, 0, len(page.Items))
	for _, v := range page.Items {
		if err := model.ValidateVote(v); err != nil {
			logger.Warn("dropping malformed vote", "err", err)
			continue
		}
		valid = append(valid, v)
	}
	dropped := len(page.Items) - len(valid)

	// A malformed vote is dropped for good: votes are immutable, so a later
	// fetch returns the same record. The cursor follows the raw page and is
	// not held before the first malformed vote.
	next := nextVoteCursor(current, page)
	if next.Compare(current) < 0 {
		return regression(stream, current, next)
	}

	if err := e.persist(ctx, func(ctx context.Context) error {
		return e.store.SaveVotes(ctx, valid, next)
	}); err != nil {
		return e.fail(stream, metrics.ResultPersistError, start, &PersistError{Stream: stream, Err: err})
	}

	e.setCursor(stream, next)
	e.record(stream, len(page.Items), len(valid), dropped)
	e.metrics.AddSaved(stream, len(valid))
	e.metrics.AddDropped(stream, dropped)
	e.metrics.ObserveSync(stream, metrics.ResultOK, time.Since(start))

	logger.Info("votes synced",
		"count", len(valid),
		"dropped", dropped,
		"cursor", current,
		"next", next,
		"duration", time.Since(start),
	)
	return nil
}

func (e *Engine) fetchProposals(ctx context.Context, after model.Cursor) (model.Page[model.Proposal], error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()
	return e.proposals.FetchProposals(ctx, after)
}

func (e *Engine) fetchVotes(ctx context.Context, after model.Cursor) (model.Page[model.Vote], error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()
	return e.votes.FetchVotes(ctx, after)
}

// persist runs save on a context that ignores cancellation of ctx so a
// shutdown never interrupts a save half way.
func (e *Engine) persist(ctx context.Context, save func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.PersistTimeout)
	defer cancel()
	return save(ctx)
}

func (e *Engine) fail(stream model.Stream, result string, start time.Time, err error) error {
	e.metrics.ObserveSync(stream, result, time.Since(start))

	e.mu.Lock()
	st := e.stats[stream]
	st.Cycles++
	st.Errors++
	st.LastError = err.Error()
	e.mu.Unlock()

	return err
}

func (e *Engine) record(stream model.Stream, fetched, saved, dropped int) {
	e.mu.Lock()
	st := e.stats[stream]
	st.Cycles++
	st.Fetched += int64(fetched)
	st.Saved += int64(saved)
	st.Dropped += int64(dropped)
	st.LastSuccess = e.clock.Now()
	e.mu.Unlock()
}

func (e *Engine) cursor(stream model.Stream) model.Cursor {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cursors[stream]
}

func (e *Engine) setCursor(stream model.Stream, c model.Cursor) {
	e.mu.Lock()
	e.cursors[stream] = c
	e.mu.Unlock()
	e.metrics.SetCursor(stream, c)
}
