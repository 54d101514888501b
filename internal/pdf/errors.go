package pdf

import (
	"errors"
	"fmt"
)

// Common document splitting errors
var (
	// ErrInvalidDocument is returned when the provided data is not a
	// well-formed PDF document. Checked before any page operation.
	ErrInvalidDocument = errors.New("invalid or corrupted PDF document")

	// ErrNoPages is returned when the PDF contains no pages.
	ErrNoPages = errors.New("document contains no pages")

	// ErrBadChunkSize is returned when the requested pages-per-chunk is not positive.
	ErrBadChunkSize = errors.New("pages per chunk must be positive")
)

// SplitError wraps errors with additional context about a splitting failure.
type SplitError struct {
	// Op is the operation that failed (e.g., "Split", "PageCount").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *SplitError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("pdf: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("pdf: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *SplitError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *SplitError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapSplitError wraps an error as a SplitError if it isn't already one.
func WrapSplitError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var splitErr *SplitError
	if errors.As(err, &splitErr) {
		return err // Already wrapped
	}

	return &SplitError{Op: op, Err: err, Details: details}
}
