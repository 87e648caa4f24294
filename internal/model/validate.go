package model

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// MalformedError reports a stream item that failed payload validation.
// Malformed items are dropped for the current cycle.
type MalformedError struct {
	ID  string
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed item %q: %v", e.ID, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// ValidateProposal checks a proposal's required fields.
func ValidateProposal(p Proposal) error {
	if err := validate.Struct(p); err != nil {
		return &MalformedError{ID: p.ID, Err: err}
	}
	return nil
}

// ValidateVote checks a vote's required fields.
func ValidateVote(v Vote) error {
	if err := validate.Struct(v); err != nil {
		return &MalformedError{ID: v.ID, Err: err}
	}
	return nil
}
