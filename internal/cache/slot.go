// Package cache holds single-value, time-boxed caches for slow or
// rate-limited providers.
//
// A Slot never calls the provider itself. Callers check Get, and on a miss
// fetch, transform, Set, and return the freshly fetched value.
package cache

import (
	"sync"
	"time"

	"github.com/rickgao/dao-risk/internal/clock"
)

// DefaultTTL is how long a provider response stays valid.
const DefaultTTL = 24 * time.Hour

// Hooks observe cache outcomes. Any field may be nil.
type Hooks struct {
	OnHit  func()
	OnMiss func()
}

// Slot caches one value of type V. An entry is valid while
// now - setAt <= ttl; the boundary itself is still a hit.
type Slot[V any] struct {
	ttl   time.Duration
	clock clock.Clock
	hooks Hooks

	mu    sync.RWMutex
	value V
	setAt time.Time
	ok    bool
}

// Option configures a Slot.
type Option func(*options)

type options struct {
	clock clock.Clock
	hooks Hooks
}

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithHooks sets hit/miss callbacks.
func WithHooks(h Hooks) Option {
	return func(o *options) {
		o.hooks = h
	}
}

// NewSlot creates an empty Slot. A non-positive ttl means DefaultTTL.
func NewSlot[V any](ttl time.Duration, opts ...Option) *Slot[V] {
	o := options{clock: clock.Real{}}
	for _, opt := range opts {
		opt(&o)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Slot[V]{
		ttl:   ttl,
		clock: o.clock,
		hooks: o.hooks,
	}
}

// Get returns the cached value if present and not expired.
func (s *Slot[V]) Get() (V, bool) {
	s.mu.RLock()
	value, setAt, ok := s.value, s.setAt, s.ok
	s.mu.RUnlock()

	if !ok || s.clock.Now().Sub(setAt) > s.ttl {
		if s.hooks.OnMiss != nil {
			s.hooks.OnMiss()
		}
		var zero V
		return zero, false
	}

	if s.hooks.OnHit != nil {
		s.hooks.OnHit()
	}
	return value, true
}

// Set stores value and restarts the TTL. An empty collection is a valid
// cached value, distinct from no value.
func (s *Slot[V]) Set(value V) {
	now := s.clock.Now()

	s.mu.Lock()
	s.value = value
	s.setAt = now
	s.ok = true
	s.mu.Unlock()
}

// Clear removes the cached value. Clearing an empty slot is a no-op.
func (s *Slot[V]) Clear() {
	s.mu.Lock()
	var zero V
	s.value = zero
	s.setAt = time.Time{}
	s.ok = false
	s.mu.Unlock()
}

// Age reports how long ago the current value was set. The second result is
// false when the slot is empty.
func (s *Slot[V]) Age() (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ok {
		return 0, false
	}
	return s.clock.Now().Sub(s.setAt), true
}

// TTL returns the configured time-to-live.
func (s *Slot[V]) TTL() time.Duration {
	return s.ttl
}
