package analysis

import (
	"errors"
	"fmt"
)

// Common extraction errors
var (
	// ErrExtractionFailed is returned when the extraction backend response
	// is not parseable JSON after cleanup. Callers fall back to empty
	// fields so the record can still be created with the file attached.
	ErrExtractionFailed = errors.New("field extraction failed")

	// ErrEmptySummary is returned when there is no summary text to extract from.
	ErrEmptySummary = errors.New("merged summary is empty")

	// ErrMissingAPIKey is returned when no OpenAI API key is configured.
	ErrMissingAPIKey = errors.New("missing OpenAI API key")
)

// ExtractionError wraps errors with additional context about an
// extraction failure.
type ExtractionError struct {
	// Op is the operation that failed (e.g., "Extract").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("analysis: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("analysis: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ExtractionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapExtractionError wraps an error as an ExtractionError if it isn't already one.
func WrapExtractionError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var extractionErr *ExtractionError
	if errors.As(err, &extractionErr) {
		return err // Already wrapped
	}

	return &ExtractionError{Op: op, Err: err, Details: details}
}
