package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Identity store errors
	ErrDuplicateID      = errors.New("public id already registered")
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrIdentityConflict indicates the store holds multiple records for
	// one public id. This is a store invariant violation: it must be
	// logged at error severity and reported upward, never resolved by
	// picking a record.
	ErrIdentityConflict = errors.New("multiple identity records for one public id")

	// Auth errors. Callers must not reveal which half of the credential
	// pair was wrong; these are distinguished for logging only.
	ErrBadPassword = errors.New("incorrect password")
	ErrBadToken    = errors.New("incorrect access token")

	// Anonymization errors
	ErrProxyForProxy = errors.New("anonymous proxies cannot have their own proxy")

	// Reset-flow errors
	ErrNoPendingReset = errors.New("no pending password reset")
	ErrInvalidReset   = errors.New("invalid password reset token")
	ErrResetExpired   = errors.New("password reset token has expired")

	// Recovery errors
	ErrNoMatchingEmail = errors.New("no participant registered under this email")
)

// FieldError reports a validation failure scoped to a single input
// field. The field name is safe to echo to the caller; the reason is
// for logs.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewFieldError creates a FieldError for the given field
func NewFieldError(field, reason string) *FieldError {
	return &FieldError{Field: field, Reason: reason}
}

// AsFieldError unwraps err to a FieldError if it is one
func AsFieldError(err error) (*FieldError, bool) {
	var fe *FieldError
	ok := errors.As(err, &fe)
	return fe, ok
}
