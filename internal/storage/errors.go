package storage

import (
	"errors"
	"fmt"
)

// Common object storage errors
var (
	// ErrUploadFailed is returned when a file could not be stored.
	ErrUploadFailed = errors.New("file upload failed")

	// ErrNotFound is returned when the referenced file does not exist.
	ErrNotFound = errors.New("stored file not found")

	// ErrMissingCredentials is returned when no Drive credentials are configured.
	ErrMissingCredentials = errors.New("missing Google Drive credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")
)

// StorageError wraps errors with additional context about a storage failure.
type StorageError struct {
	// Op is the operation that failed (e.g., "Upload", "ensureFolder").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("storage: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("storage: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *StorageError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapStorageError wraps an error as a StorageError if it isn't already one.
func WrapStorageError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return err // Already wrapped
	}

	return &StorageError{Op: op, Err: err, Details: details}
}
