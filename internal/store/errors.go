package store

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for the store package.
// Use errors.Is to check: errors.Is(err, store.ErrUnavailable)
var (
	ErrUnavailable   = errors.New("store: unavailable")
	ErrNotFound      = errors.New("store: not found")
	ErrDuplicate     = errors.New("store: duplicate")
	ErrUnknownDriver = errors.New("store: unknown driver")
	ErrInvalidItem   = errors.New("store: invalid item")
)

// Error is a failure that happened inside a transaction. The transaction has
// been rolled back by the time the caller sees it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying driver error.
func (e *Error) Unwrap() error {
	return e.Err
}

// unavailable marks a failure that happened before any work was executed.
// Context cancellation is reported as an Error, not as unavailability.
func unavailable(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Op: op, Err: err}
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
