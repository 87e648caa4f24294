package timeline

import (
	"slices"
	"time"

	"github.com/rickgao/dao-risk/internal/clock"
)

// Order is the direction of a generated timeline.
type Order int

const (
	Ascending Order = iota
	Descending
)

// ParseOrder maps "asc"/"desc" to an Order. Anything else is Ascending.
func ParseOrder(s string) Order {
	if s == "desc" || s == "DESC" {
		return Descending
	}
	return Ascending
}

// TruncateDay returns UTC midnight of the day containing t.
func TruncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Builder generates daily timelines relative to an injected clock.
type Builder struct {
	clock clock.Clock
}

// NewBuilder creates a Builder. A nil clock means the wall clock.
func NewBuilder(c clock.Clock) *Builder {
	if c == nil {
		c = clock.Real{}
	}
	return &Builder{clock: c}
}

// Today returns UTC midnight of the current day.
func (b *Builder) Today() time.Time {
	return TruncateDay(b.clock.Now())
}

// DailyTimeline returns every UTC midnight from first to last inclusive.
// A zero last means today. The result is empty if first is after last.
func (b *Builder) DailyTimeline(first, last time.Time) []time.Time {
	if last.IsZero() {
		last = b.Today()
	}
	first, last = TruncateDay(first), TruncateDay(last)
	if first.After(last) {
		return nil
	}

	days := int(last.Sub(first).Hours()/24) + 1
	out := make([]time.Time, 0, days)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// Options configures OrderedTimeline.
type Options struct {
	// Dates are the sampled keys, in any order.
	Dates []time.Time

	// Start overrides the earliest sampled date when non-zero.
	Start time.Time

	// End overrides today when non-zero.
	End time.Time

	Order Order
}

// OrderedTimeline builds the daily timeline spanning the sampled dates (or
// the explicit bounds) in the requested order. It is empty when there are no
// dates and no explicit start.
func (b *Builder) OrderedTimeline(opts Options) []time.Time {
	if len(opts.Dates) == 0 && opts.Start.IsZero() {
		return nil
	}

	first := opts.Start
	if first.IsZero() {
		sorted := slices.Clone(opts.Dates)
		slices.SortFunc(sorted, time.Time.Compare)
		first = sorted[0]
	}

	out := b.DailyTimeline(first, opts.End)
	if opts.Order == Descending {
		slices.Reverse(out)
	}
	return out
}
