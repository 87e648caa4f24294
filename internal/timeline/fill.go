package timeline

import "cmp"

// Point is a sparse (key, value) sample.
type Point[K, V any] struct {
	Key   K
	Value V
}

// ToMap indexes points by key. Later points win on duplicate keys.
func ToMap[K comparable, V any](points []Point[K, V]) map[K]V {
	m := make(map[K]V, len(points))
	for _, p := range points {
		m[p.Key] = p.Value
	}
	return m
}

// Keys returns the keys of points in order.
func Keys[K, V any](points []Point[K, V]) []K {
	keys := make([]K, len(points))
	for i, p := range points {
		keys[i] = p.Key
	}
	return keys
}

// ForwardFill walks timeline in order and emits, for each key, the most
// recent value seen so far. A key with an exact match in sparse updates the
// carried value. Keys before the first known value are omitted unless
// initial is non-nil; they are never zero-filled.
//
// Keys must be normalized so that equal instants compare equal with ==
// (for time.Time use TruncateDay).
func ForwardFill[K comparable, V any](timeline []K, sparse map[K]V, initial *V) []Point[K, V] {
	var (
		last  V
		known bool
	)
	if initial != nil {
		last, known = *initial, true
	}

	out := make([]Point[K, V], 0, len(timeline))
	for _, k := range timeline {
		if v, ok := sparse[k]; ok {
			last, known = v, true
		}
		if known {
			out = append(out, Point[K, V]{Key: k, Value: last})
		}
	}
	return out
}

// FilterWithFallback returns every sample with key >= cutoff. If there are
// none, it returns only the latest sample before cutoff. It is empty only when
// data is empty.
func FilterWithFallback[K cmp.Ordered, V any](data []Point[K, V], cutoff K) []Point[K, V] {
	return FilterWithFallbackFunc(data, cutoff, cmp.Compare[K])
}

// FilterWithFallbackFunc is FilterWithFallback with a custom key comparison.
func FilterWithFallbackFunc[K, V any](data []Point[K, V], cutoff K, compare func(a, b K) int) []Point[K, V] {
	var (
		after  []Point[K, V]
		before Point[K, V]
		found  bool
	)
	for _, p := range data {
		if compare(p.Key, cutoff) >= 0 {
			after = append(after, p)
			continue
		}
		if !found || compare(p.Key, before.Key) > 0 {
			before, found = p, true
		}
	}

	switch {
	case len(after) > 0:
		return after
	case found:
		return []Point[K, V]{before}
	default:
		return nil
	}
}

// LastValueBefore returns the most recent sample with key strictly less than
// before. A sample whose key equals before does not qualify.
func LastValueBefore[K cmp.Ordered, V any](data []Point[K, V], before K) (Point[K, V], bool) {
	return LastValueBeforeFunc(data, before, cmp.Compare[K])
}

// LastValueBeforeFunc is LastValueBefore with a custom key comparison.
func LastValueBeforeFunc[K, V any](data []Point[K, V], before K, compare func(a, b K) int) (Point[K, V], bool) {
	var (
		best  Point[K, V]
		found bool
	)
	for _, p := range data {
		if compare(p.Key, before) >= 0 {
			continue
		}
		if !found || compare(p.Key, best.Key) > 0 {
			best, found = p, true
		}
	}
	return best, found
}
