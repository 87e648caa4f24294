// Package variation computes changes between two points of a reconstructed
// series and orders them for ranking and pagination.
package variation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Sentinel labels as they appear in JSON and String output.
const (
	LabelNew          = "NEW"
	LabelNotAvailable = "N/A"
)

type percentKind uint8

const (
	kindNumber percentKind = iota
	kindNew
	kindNotAvailable
)

// Percent is a percentage change, or one of two sentinels:
//   - New: there was no previous value (nil or zero), so no ratio exists
//   - NotAvailable: there is no current value
//
// The zero Percent is the number 0, which is distinct from both sentinels.
type Percent struct {
	value float64
	kind  percentKind
}

// Number returns a numeric Percent.
func Number(v float64) Percent {
	return Percent{value: v}
}

// NewSentinel is the sentinel for a change from nothing.
func NewSentinel() Percent {
	return Percent{kind: kindNew}
}

// NotAvailable is the sentinel for a change with no current value.
func NotAvailable() Percent {
	return Percent{kind: kindNotAvailable}
}

// IsNew reports whether p is the New sentinel.
func (p Percent) IsNew() bool { return p.kind == kindNew }

// IsNotAvailable reports whether p is the NotAvailable sentinel.
func (p Percent) IsNotAvailable() bool { return p.kind == kindNotAvailable }

// Float returns the numeric value. ok is false for sentinels.
func (p Percent) Float() (v float64, ok bool) {
	if p.kind != kindNumber {
		return 0, false
	}
	return p.value, true
}

// String formats p with two decimals, or as its sentinel label.
func (p Percent) String() string {
	switch p.kind {
	case kindNew:
		return LabelNew
	case kindNotAvailable:
		return LabelNotAvailable
	}
	return strconv.FormatFloat(p.value, 'f', 2, 64) + "%"
}

// Compare orders percentages for ranking. New is greater than every number;
// NotAvailable is less than everything else.
func (p Percent) Compare(other Percent) int {
	rank := func(q Percent) int {
		switch q.kind {
		case kindNotAvailable:
			return 0
		case kindNumber:
			return 1
		}
		return 2
	}

	ra, rb := rank(p), rank(other)
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	case p.kind != kindNumber:
		return 0
	case p.value < other.value:
		return -1
	case p.value > other.value:
		return 1
	}
	return 0
}

// MarshalJSON encodes numbers as JSON numbers and sentinels as strings.
func (p Percent) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case kindNew:
		return []byte(`"` + LabelNew + `"`), nil
	case kindNotAvailable:
		return []byte(`"` + LabelNotAvailable + `"`), nil
	}
	return json.Marshal(p.value)
}

// UnmarshalJSON accepts a JSON number or one of the sentinel strings.
func (p *Percent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch s {
		case LabelNew:
			*p = NewSentinel()
		case LabelNotAvailable:
			*p = NotAvailable()
		default:
			return fmt.Errorf("unknown percent sentinel %q", s)
		}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode percent: %w", err)
	}
	*p = Number(v)
	return nil
}
