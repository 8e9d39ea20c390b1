package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when neither the cache nor the relational
	// fallback knows the requested value.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateAction is returned when a user repeats an action they
	// already performed (like twice, add the same friend twice).
	ErrDuplicateAction = errors.New("duplicate action")

	// ErrNotMember is returned when a user undoes an action they never
	// performed.
	ErrNotMember = errors.New("not a member")
)

// TransportError reports that the command channel to the store could not be
// used: connection refused, pool closed, timeout.
type TransportError struct {
	Command string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("cache transport error on %s: %v", e.Command, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StoreError wraps an error reply produced by the store itself.
type StoreError struct {
	Command string
	Message string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("cache store error on %s: %s", e.Command, e.Message)
}

// DecodeError reports a reply that could not be read as the expected type.
type DecodeError struct {
	Key   string
	Want  string
	Reply Reply
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cache decode error on %s: want %s, got %s %q", e.Key, e.Want, e.Reply.Kind, e.Reply.String())
}

// IsSoft reports whether err is an expected, user-facing outcome rather than
// a server fault.
func IsSoft(err error) bool {
	return errors.Is(err, ErrDuplicateAction) || errors.Is(err, ErrNotMember)
}

// IsTransport reports whether err carries a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
