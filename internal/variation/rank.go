package variation

import (
	"slices"
)

// Entry pairs a ranked item with its change.
type Entry[T any] struct {
	Item   T      `json:"item"`
	Change Change `json:"change"`
}

// Rank sorts entries by percentage change. In descending order New entries
// come first; in ascending order they come after every number. NotAvailable
// entries are always last. The sort is stable and entries is not modified.
func Rank[T any](entries []Entry[T], descending bool) []Entry[T] {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b Entry[T]) int {
		pa, pb := a.Change.Percentage, b.Change.Percentage
		switch {
		case pa.IsNotAvailable() && pb.IsNotAvailable():
			return 0
		case pa.IsNotAvailable():
			return 1
		case pb.IsNotAvailable():
			return -1
		}
		if descending {
			return pb.Compare(pa)
		}
		return pa.Compare(pb)
	})
	return out
}

// Page is one window of a ranked list.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"hasMore"`
}

// Paginate returns items[offset:offset+limit], clamped to bounds. A
// non-positive limit returns everything from offset.
func Paginate[T any](items []T, offset, limit int) Page[T] {
	total := len(items)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	return Page[T]{
		Items:   items[offset:end],
		Total:   total,
		Offset:  offset,
		Limit:   limit,
		HasMore: end < total,
	}
}
