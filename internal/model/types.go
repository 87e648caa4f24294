package model

import (
	"encoding/json"
	"strconv"
	"time"
)

// Stream names an append-only feed replicated by the syncer.
type Stream string

const (
	StreamProposals Stream = "proposals"
	StreamVotes     Stream = "votes"
)

// Streams lists every replicated stream in sync order.
var Streams = []Stream{StreamProposals, StreamVotes}

// Proposal lifecycle states reported by the hub.
const (
	StatePending = "pending"
	StateActive  = "active"
	StateClosed  = "closed"
)

// -----------------------------------------------------------------------------
// Cursor
// -----------------------------------------------------------------------------

// Cursor is a position marker into a stream. In practice it is the creation
// timestamp of the last fully synced item, as a decimal string.
type Cursor string

// NoCursor means "start from the beginning of the stream".
const NoCursor Cursor = ""

// IsZero reports whether c is the empty cursor.
func (c Cursor) IsZero() bool {
	return c == NoCursor
}

// String implements fmt.Stringer.
func (c Cursor) String() string {
	if c == NoCursor {
		return "none"
	}
	return string(c)
}

// CursorFromTime builds a cursor from a creation timestamp.
func CursorFromTime(created int64) Cursor {
	return Cursor(strconv.FormatInt(created, 10))
}

// Compare orders two cursors. The empty cursor sorts before everything.
// Cursors that both parse as integers compare numerically, otherwise
// lexicographically.
func (c Cursor) Compare(other Cursor) int {
	switch {
	case c == other:
		return 0
	case c == NoCursor:
		return -1
	case other == NoCursor:
		return 1
	}

	a, errA := strconv.ParseInt(string(c), 10, 64)
	b, errB := strconv.ParseInt(string(other), 10, 64)
	if errA == nil && errB == nil {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}

	if c < other {
		return -1
	}
	return 1
}

// Page is one response from an append-only feed.
type Page[T any] struct {
	Items []T

	// NextCursor is the provider's explicit continuation marker. Empty means
	// the caller must derive it from the last item.
	NextCursor Cursor
}

// -----------------------------------------------------------------------------
// Stream items
// -----------------------------------------------------------------------------

// Proposal is a governance proposal. Its State can still change after it is
// first seen, so the syncer only treats it as final once it leaves
// pending/active.
type Proposal struct {
	ID          string    `validate:"required"`
	Space       string    `validate:"required"`
	Title       string    `validate:"required"`
	Author      string    `validate:"required"`
	State       string    `validate:"required"`
	Choices     []string  `validate:"min=1"`
	Scores      []float64 // Per-choice voting power, parallel to Choices
	ScoresTotal float64   `validate:"gte=0"`
	Start       int64     `validate:"gt=0"`
	End         int64     `validate:"gtefield=Start"`
	Created     int64     `validate:"gt=0"` // Cursor key

	// Cursor is the provenance tag written on persist: the stream cursor in
	// effect before the page containing this proposal was fetched.
	Cursor Cursor
}

// IsOpen reports whether the proposal outcome can still change.
func (p Proposal) IsOpen() bool {
	return IsOpenState(p.State)
}

// IsOpenState reports whether a proposal in state can still change.
func IsOpenState(state string) bool {
	return state == StatePending || state == StateActive
}

// Vote is a single vote cast on a proposal. Votes never change once cast.
type Vote struct {
	ID          string          `validate:"required"`
	Space       string          `validate:"required"`
	ProposalID  string          `validate:"required"`
	Voter       string          `validate:"required"`
	Choice      json.RawMessage `validate:"required"` // int, []int or map depending on voting type
	VotingPower float64         `validate:"gte=0"`
	Reason      string
	Created     int64 `validate:"gt=0"` // Cursor key
}

// -----------------------------------------------------------------------------
// External financial data
// -----------------------------------------------------------------------------

// Valuation is one treasury valuation sample.
type Valuation struct {
	Date     time.Time // UTC midnight of the sampled day
	ValueUSD float64
}
