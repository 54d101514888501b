package pipeline

import (
	"errors"
	"fmt"

	"fleetdocs/internal/identity"
)

var (
	// ErrAnalysisFailed indicates that no chunk of the document produced a
	// usable analysis result.
	ErrAnalysisFailed = errors.New("document analysis failed for all chunks")

	// ErrIdentityMismatch indicates the extracted ship identity did not
	// match the expected record and the caller did not bypass the gate.
	ErrIdentityMismatch = errors.New("ship identity mismatch")

	// ErrUploadFailed indicates the original document could not be stored.
	ErrUploadFailed = errors.New("document upload failed")

	// ErrMissingDependency indicates the orchestrator was constructed
	// without a required service.
	ErrMissingDependency = errors.New("missing pipeline dependency")
)

// MismatchError blocks a document whose extracted identity did not match
// the expected ship. It carries the comparison detail so callers can show
// it to a human deciding whether to resubmit with a bypass.
type MismatchError struct {
	Detail identity.Mismatch
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%v: expected %q (IMO %s), extracted %q (IMO %s), similarity %.2f",
		ErrIdentityMismatch,
		e.Detail.ExpectedName, e.Detail.ExpectedIMO,
		e.Detail.ExtractedName, e.Detail.ExtractedIMO,
		e.Detail.Similarity)
}

func (e *MismatchError) Is(target error) bool {
	return target == ErrIdentityMismatch
}

// PipelineError wraps pipeline errors with operation context.
type PipelineError struct {
	Op      string
	Err     error
	Details string
}

func (e *PipelineError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("pipeline %s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("pipeline %s: %v", e.Op, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func (e *PipelineError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapPipelineError wraps an error with operation context.
func WrapPipelineError(op string, err error, details string) *PipelineError {
	return &PipelineError{Op: op, Err: err, Details: details}
}
