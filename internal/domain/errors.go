package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an event or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStaleEvent is returned when scheduling an event whose moment has already passed.
	ErrStaleEvent = errors.New("event is in the past")
)

// ValidationError reports bad user input for a single field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransportError wraps a failure to deliver a message to the chat.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
