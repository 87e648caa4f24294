// Package treasury serves a DAO's treasury valuation history from a slow
// external provider.
//
// The provider response is kept in a single cache slot. On a miss the
// history is fetched once (concurrent misses share the call), normalised to
// one sample per UTC day, stored and returned directly. Dense series and
// variations are derived from the cached history on every call.
package treasury

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rickgao/dao-risk/internal/cache"
	"github.com/rickgao/dao-risk/internal/clock"
	"github.com/rickgao/dao-risk/internal/metrics"
	"github.com/rickgao/dao-risk/internal/model"
	"github.com/rickgao/dao-risk/internal/timeline"
	"github.com/rickgao/dao-risk/internal/variation"
)

// Point is one daily valuation.
type Point = timeline.Point[time.Time, float64]

// Provider fetches the full valuation history. It takes no filter; cutoff
// logic is applied after retrieval.
type Provider interface {
	Fetch(ctx context.Context) ([]model.Valuation, error)
}

// Config holds service configuration.
type Config struct {
	Name     string        // Provider name for logs and metrics
	TTL      time.Duration // Cache lifetime (default: 24h)
	Lookback time.Duration // Default Series cutoff distance from today
	Window   time.Duration // Default Variation window

	FetchTimeout time.Duration // Bound on a shared provider fetch (default: 1m)
}

const defaultFetchTimeout = time.Minute

// Service caches and derives treasury valuations.
type Service struct {
	cfg      Config
	provider Provider
	slot     *cache.Slot[[]model.Valuation]
	builder  *timeline.Builder
	clock    clock.Clock
	metrics  *metrics.Metrics
	logger   *slog.Logger
	group    singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source for the cache and timelines.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithMetrics records cache and provider metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates a Service over provider.
func New(cfg Config, provider Provider, logger *slog.Logger, opts ...Option) *Service {
	if cfg.Name == "" {
		cfg.Name = "treasury"
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		cfg:      cfg,
		provider: provider,
		clock:    clock.Real{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.builder = timeline.NewBuilder(s.clock)
	s.slot = cache.NewSlot[[]model.Valuation](cfg.TTL,
		cache.WithClock(s.clock),
		cache.WithHooks(cache.Hooks{
			OnHit:  func() { s.metrics.CacheHit(cfg.Name) },
			OnMiss: func() { s.metrics.CacheMiss(cfg.Name) },
		}),
	)
	return s
}

// History returns the valuation history sorted by day, from the cache when
// fresh and from the provider otherwise.
func (s *Service) History(ctx context.Context) ([]model.Valuation, error) {
	if v, ok := s.slot.Get(); ok {
		return v, nil
	}

	// Shared by every waiting caller; detached from the starter's cancellation.
	v, err, shared := s.group.Do("history", func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.FetchTimeout)
		defer cancel()

		start := time.Now()
		raw, err := s.provider.Fetch(fetchCtx)
		s.metrics.ObserveProvider(s.cfg.Name, err)
		if err != nil {
			return nil, err
		}

		history := normalize(raw)
		s.slot.Set(history)

		s.logger.Info("treasury history refreshed",
			"provider", s.cfg.Name,
			"samples", len(history),
			"duration", time.Since(start),
		)
		return history, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s history: %w", s.cfg.Name, err)
	}
	if shared {
		s.logger.Debug("treasury fetch shared", "provider", s.cfg.Name)
	}
	return v.([]model.Valuation), nil
}

// Series returns the daily forward-filled series from cutoff to today. When
// no sample falls on or after cutoff, the series starts from the latest
// earlier sample instead. A zero cutoff uses today minus the configured
// lookback.
func (s *Service) Series(ctx context.Context, cutoff time.Time) ([]Point, error) {
	history, err := s.History(ctx)
	if err != nil {
		return nil, err
	}
	if cutoff.IsZero() {
		cutoff = s.builder.Today().Add(-s.cfg.Lookback)
	}

	sparse := timeline.FilterWithFallbackFunc(Points(history), timeline.TruncateDay(cutoff), time.Time.Compare)
	return s.fill(sparse), nil
}

// Variation returns the change between the value window ago and today's
// value. A window of zero uses the configured window.
func (s *Service) Variation(ctx context.Context, window time.Duration) (variation.Change, error) {
	history, err := s.History(ctx)
	if err != nil {
		return variation.Change{}, err
	}
	if window <= 0 {
		window = s.cfg.Window
	}

	today := s.builder.Today()
	from := timeline.TruncateDay(today.Add(-window))
	series := s.fill(Points(history))
	return variation.Between(series, from, today, time.Time.Compare), nil
}

// DailyChanges returns the day-over-day change of every day in the series
// from cutoff. The first day has no predecessor and is reported as new.
func (s *Service) DailyChanges(ctx context.Context, cutoff time.Time) ([]variation.Entry[time.Time], error) {
	series, err := s.Series(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	out := make([]variation.Entry[time.Time], len(series))
	var prev *float64
	for i, p := range series {
		cur := p.Value
		out[i] = variation.Entry[time.Time]{
			Item:   p.Key,
			Change: variation.Compute(prev, &cur),
		}
		prev = &cur
	}
	return out, nil
}

// Invalidate drops the cached history.
func (s *Service) Invalidate() {
	s.slot.Clear()
	s.logger.Info("treasury cache invalidated", "provider", s.cfg.Name)
}

// CacheAge reports how old the cached history is.
func (s *Service) CacheAge() (time.Duration, bool) {
	return s.slot.Age()
}

func (s *Service) fill(sparse []Point) []Point {
	if len(sparse) == 0 {
		return nil
	}
	days := s.builder.OrderedTimeline(timeline.Options{
		Dates: timeline.Keys(sparse),
		Order: timeline.Ascending,
	})
	return timeline.ForwardFill(days, timeline.ToMap(sparse), nil)
}

// Points converts valuations to timeline points.
func Points(history []model.Valuation) []Point {
	out := make([]Point, len(history))
	for i, v := range history {
		out[i] = Point{Key: v.Date, Value: v.ValueUSD}
	}
	return out
}

// normalize sorts samples by day and keeps the last sample of each day.
func normalize(raw []model.Valuation) []model.Valuation {
	out := make([]model.Valuation, 0, len(raw))
	for _, v := range raw {
		v.Date = timeline.TruncateDay(v.Date)
		out = append(out, v)
	}
	slices.SortStableFunc(out, func(a, b model.Valuation) int {
		return a.Date.Compare(b.Date)
	})

	deduped := out[:0]
	for _, v := range out {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(v.Date) {
			deduped[n-1] = v
			continue
		}
		deduped = append(deduped, v)
	}
	return deduped
}
