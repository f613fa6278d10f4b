package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned when the credential store has no
	// matching (email, password) pair. State is left unchanged.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken is returned by account creation when the email is
	// already registered.
	ErrEmailTaken = errors.New("email already registered")

	// ErrStoreUnavailable signals a transient credential store failure.
	// Callers may retry; nothing was mutated.
	ErrStoreUnavailable = errors.New("credential store unavailable")

	// ErrPersistenceFailed signals that the session store could not be
	// written or cleared.
	ErrPersistenceFailed = errors.New("session persistence failed")

	// ErrNoSession is returned by session store loads when no record exists.
	ErrNoSession = errors.New("no stored session")
)

// ValidationError identifies the offending signup field so callers can
// highlight it. It is user-facing and recoverable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
