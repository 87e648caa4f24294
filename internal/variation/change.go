package variation

import (
	"github.com/rickgao/dao-risk/internal/timeline"
)

// Change describes how a value moved between two points.
type Change struct {
	Previous *float64 `json:"previous"`
	Current  *float64 `json:"current"`

	// Absolute is current - previous, with a missing previous treated as
	// zero. Nil when current is missing.
	Absolute *float64 `json:"absoluteChange"`

	Percentage Percent `json:"percentageChange"`
}

// Compute derives the change from previous to current.
func Compute(previous, current *float64) Change {
	c := Change{Previous: previous, Current: current}

	if current == nil {
		c.Percentage = NotAvailable()
		return c
	}

	base := 0.0
	if previous != nil {
		base = *previous
	}
	abs := *current - base
	c.Absolute = &abs

	if base == 0 {
		c.Percentage = NewSentinel()
		return c
	}
	c.Percentage = Number(abs / base * 100)
	return c
}

// At returns the value of series at key: the exact sample if present,
// otherwise the latest sample before key. Nil if none qualifies.
func At[K any](series []timeline.Point[K, float64], key K, compare func(a, b K) int) *float64 {
	for _, p := range series {
		if compare(p.Key, key) == 0 {
			v := p.Value
			return &v
		}
	}
	if p, ok := timeline.LastValueBeforeFunc(series, key, compare); ok {
		v := p.Value
		return &v
	}
	return nil
}

// Between computes the change in series from one key to another.
func Between[K any](series []timeline.Point[K, float64], from, to K, compare func(a, b K) int) Change {
	return Compute(At(series, from, compare), At(series, to, compare))
}

// Float is a convenience for building *float64 literals.
func Float(v float64) *float64 {
	return &v
}
