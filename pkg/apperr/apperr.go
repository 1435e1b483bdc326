package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to decide how to react to it
type Kind string

const (
	KindValidation        Kind = "VALIDATION"
	KindStateConflict     Kind = "STATE_CONFLICT"
	KindInsufficientFunds Kind = "INSUFFICIENT_FUNDS"
	KindNotFound          Kind = "NOT_FOUND"
	KindInternal          Kind = "INTERNAL"
)

// Error is a classified domain error. Code identifies the error; EntityID names the
// record that caused it, when there is one.
type Error struct {
	Kind     Kind   `json:"kind"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	EntityID string `json:"entity_id,omitempty"`
}

// New creates a sentinel error
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.EntityID != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.EntityID)
	}
	return e.Message
}

// Is matches any *Error with the same code, so a sentinel still matches after For or Withf
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// For returns a copy of the error bound to the given entity
func (e *Error) For(entityID string) *Error {
	cp := *e
	cp.EntityID = entityID
	return &cp
}

// Withf returns a copy of the error with a more specific message
func (e *Error) Withf(format string, args ...any) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// KindOf returns the kind of err, or KindInternal for unclassified errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As extracts the *Error from an error chain
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// ItemFailure reports why a single item of a batch operation failed
type ItemFailure struct {
	EntityID string `json:"entity_id"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// NewItemFailure builds an ItemFailure from any error
func NewItemFailure(entityID string, err error) ItemFailure {
	f := ItemFailure{EntityID: entityID, Code: string(KindInternal), Message: err.Error()}
	if e, ok := As(err); ok {
		f.Code = e.Code
		f.Message = e.Message
	}
	return f
}
