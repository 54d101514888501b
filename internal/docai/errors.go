package docai

import (
	"errors"
	"fmt"
)

// Common document analysis errors
var (
	// ErrProcessingFailed is returned when Document AI processing fails.
	ErrProcessingFailed = errors.New("document AI processing failed")

	// ErrInvalidCredentials is returned when Google Cloud credentials are
	// invalid or do not have the necessary permissions.
	ErrInvalidCredentials = errors.New("invalid Google Cloud credentials")

	// ErrMissingCredentials is returned when Google Cloud credentials are not configured.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials")

	// ErrInvalidConfiguration is returned when the Document AI configuration is invalid.
	ErrInvalidConfiguration = errors.New("invalid Document AI configuration")

	// ErrProcessorNotFound is returned when the specified Document AI
	// processor cannot be found or accessed.
	ErrProcessorNotFound = errors.New("Document AI processor not found")

	// ErrQuotaExceeded is returned when Document AI API quota limits are exceeded.
	ErrQuotaExceeded = errors.New("Document AI API quota exceeded")

	// ErrChunkTooLarge is returned when a chunk exceeds the size limit.
	ErrChunkTooLarge = errors.New("chunk exceeds maximum size limit")
)

// AnalysisError wraps errors with additional context about an analysis failure.
type AnalysisError struct {
	// Op is the operation that failed (e.g., "AnalyzeChunk").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *AnalysisError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("docai: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("docai: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *AnalysisError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapAnalysisError wraps an error as an AnalysisError if it isn't already one.
func WrapAnalysisError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var analysisErr *AnalysisError
	if errors.As(err, &analysisErr) {
		return err // Already wrapped
	}

	return &AnalysisError{Op: op, Err: err, Details: details}
}
