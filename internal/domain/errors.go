package domain

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when no identity can be resolved for
// the current session. Store operations are never attempted without
// a resolved identity.
var ErrUnauthorized = errors.New("unauthorized")

// ErrNotFound is returned for operations targeting an id that is not
// in the visible list.
var ErrNotFound = errors.New("bookmark not found")

// ErrPlaceholder is returned when a remote-keyed operation targets an
// entry that has not been confirmed by the store yet.
var ErrPlaceholder = errors.New("bookmark is still being saved")

// ErrDeleteInFlight is returned when a delete is requested for an id
// that already has one pending.
var ErrDeleteInFlight = errors.New("delete already in progress")

// ValidationError reports the first violated field/rule of an input.
// It is resolved locally, before any remote call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StoreError wraps a failed remote call. The wrapped cause is kept for
// logging; Message is what callers surface to the user. The failed call
// is never retried automatically - the next reconciliation tick or the
// next user action is the retry.
type StoreError struct {
	Op      string // "list", "insert", "delete"
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError builds a StoreError with the generic user-facing
// message for the given operation.
func NewStoreError(op string, err error) *StoreError {
	msg := "store operation failed"
	switch op {
	case "list":
		msg = "failed to fetch bookmarks"
	case "insert":
		msg = "failed to create bookmark"
	case "delete":
		msg = "failed to delete bookmark"
	}
	return &StoreError{Op: op, Message: msg, Err: err}
}
