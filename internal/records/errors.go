package records

import (
	"errors"
	"fmt"
)

// Common record store errors
var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateRecord is returned when a create would collide with an
	// existing record and no resolution was chosen.
	ErrDuplicateRecord = errors.New("duplicate record")

	// ErrInvalidResolution is returned for an unknown duplicate resolution.
	ErrInvalidResolution = errors.New("invalid duplicate resolution")
)

// StoreError wraps errors with additional context about a store failure.
type StoreError struct {
	// Op is the operation that failed (e.g., "Create", "FindByKey").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("records: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("records: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapStoreError wraps an error as a StoreError if it isn't already one.
func WrapStoreError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return err // Already wrapped
	}

	return &StoreError{Op: op, Err: err, Details: details}
}
