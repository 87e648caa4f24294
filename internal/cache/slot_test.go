package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/dao-risk/internal/clock"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestSlot_TTLBoundary(t *testing.T) {
	clk := clock.NewFake(t0)
	s := NewSlot[string](24*time.Hour, WithClock(clk))

	s.Set("x")

	clk.Set(t0.Add(24 * time.Hour))
	got, ok := s.Get()
	require.True(t, ok, "entry exactly at TTL must still be valid")
	assert.Equal(t, "x", got)

	clk.Set(t0.Add(24*time.Hour + time.Millisecond))
	got, ok = s.Get()
	assert.False(t, ok, "entry past TTL must be treated as absent")
	assert.Equal(t, "", got)
}

func TestSlot_EmptyByDefault(t *testing.T) {
	s := NewSlot[[]int](time.Hour)

	got, ok := s.Get()
	assert.False(t, ok)
	assert.Nil(t, got)

	_, ok = s.Age()
	assert.False(t, ok)
}

func TestSlot_EmptyCollectionIsAValue(t *testing.T) {
	clk := clock.NewFake(t0)
	s := NewSlot[[]int](time.Hour, WithClock(clk))

	s.Set([]int{})

	got, ok := s.Get()
	require.True(t, ok)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSlot_SetOverwritesAndResetsTimer(t *testing.T) {
	clk := clock.NewFake(t0)
	s := NewSlot[int](time.Hour, WithClock(clk))

	s.Set(1)
	clk.Advance(50 * time.Minute)
	s.Set(2)
	clk.Advance(50 * time.Minute)

	got, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, 2, got)

	age, ok := s.Age()
	require.True(t, ok)
	assert.Equal(t, 50*time.Minute, age)
}

func TestSlot_Clear(t *testing.T) {
	s := NewSlot[int](time.Hour)

	s.Clear() // idempotent on empty slot

	s.Set(7)
	s.Clear()
	_, ok := s.Get()
	assert.False(t, ok)

	s.Clear()
	_, ok = s.Get()
	assert.False(t, ok)
}

func TestSlot_DefaultTTL(t *testing.T) {
	s := NewSlot[int](0)
	assert.Equal(t, DefaultTTL, s.TTL())
}

func TestSlot_Hooks(t *testing.T) {
	var hits, misses int
	clk := clock.NewFake(t0)
	s := NewSlot[int](time.Minute, WithClock(clk), WithHooks(Hooks{
		OnHit:  func() { hits++ },
		OnMiss: func() { misses++ },
	}))

	s.Get()
	s.Set(1)
	s.Get()
	s.Get()
	clk.Advance(2 * time.Minute)
	s.Get()

	assert.Equal(t, 2, hits)
	assert.Equal(t, 2, misses)
}

func TestSlot_ConcurrentAccess(t *testing.T) {
	s := NewSlot[int](time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(v int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Set(v)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Get()
			}
		}()
	}
	wg.Wait()

	_, ok := s.Get()
	assert.True(t, ok)
}
