package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an id is absent on update or delete.
var ErrNotFound = errors.New("record not found")

// ErrPartialLinkage signals that a credit-card entry was persisted but the
// write of its linked expense failed. Callers must surface this distinctly:
// the monthly summary is silently wrong until the expense is reconciled.
var ErrPartialLinkage = errors.New("credit entry persisted but linked expense write failed")

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// MissingField builds the ValidationError used for absent required fields.
func MissingField(field string) error {
	return &ValidationError{Field: field, Reason: "required field is missing"}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StoreError wraps a record-store I/O failure so handlers can map it to an
// internal error without losing the cause.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
