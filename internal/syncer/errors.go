package syncer

import (
	"errors"
	"fmt"

	"github.com/rickgao/dao-risk/internal/model"
)

// ErrCursorRegression is returned when a sync would move a stream cursor
// backward. It is the only error that stops the engine.
var ErrCursorRegression = errors.New("cursor regression")

// FetchError wraps a failure to read a page from a source.
type FetchError struct {
	Stream model.Stream
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Stream, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// PersistError wraps a failure to store a page and its cursor. The cursor
// is left where it was.
type PersistError struct {
	Stream model.Stream
	Err    error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Stream, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

func regression(stream model.Stream, from, to model.Cursor) error {
	return fmt.Errorf("%w: %s cursor %s -> %s", ErrCursorRegression, stream, from, to)
}
