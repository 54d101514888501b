package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"fleetdocs/internal/logger"
	"fleetdocs/pkg/models"
)

// Resolution is the caller's decision for a detected duplicate. The
// resolver never auto-resolves: a human (or the calling layer) picks a
// policy and only then does anything change.
type Resolution string

const (
	// ResolutionSkip discards the new record and keeps the existing one.
	ResolutionSkip Resolution = "skip"

	// ResolutionReplace deletes the existing record and inserts the new one.
	ResolutionReplace Resolution = "replace"

	// ResolutionKeepBoth inserts the new record with a disambiguating
	// suffix on its name.
	ResolutionKeepBoth Resolution = "keep_both"
)

// KeepBothSuffix is appended to the name when both records are kept.
const KeepBothSuffix = " (duplicate)"

// BusinessKey identifies a document record for duplicate detection.
// Documents carrying a report/certificate number key on
// (ship, type, number); documents without one fall back to
// (ship, type, name, issue date). The composition is explicit per
// document rather than guessed globally.
type BusinessKey struct {
	ShipID       string
	Type         models.DocumentType
	ReportNumber string
	Name         string
	IssueDate    string
}

// KeyFor builds the business key for a candidate record.
func KeyFor(record *models.DocumentRecord) BusinessKey {
	key := BusinessKey{
		ShipID: record.ShipID,
		Type:   record.Type,
	}
	if record.ReportNumber != "" {
		key.ReportNumber = record.ReportNumber
	} else {
		key.Name = record.Name
		key.IssueDate = record.IssueDate
	}
	return key
}

// String renders the key for logs and error details.
func (k BusinessKey) String() string {
	if k.ReportNumber != "" {
		return fmt.Sprintf("ship=%s type=%s number=%s", k.ShipID, k.Type, k.ReportNumber)
	}
	return fmt.Sprintf("ship=%s type=%s name=%q date=%s", k.ShipID, k.Type, k.Name, k.IssueDate)
}

// DuplicateCheck is the outcome of looking up a candidate's business key.
type DuplicateCheck struct {
	IsDuplicate bool
	Existing    *models.DocumentRecord
}

// Resolver detects duplicate records and applies caller-chosen
// resolutions.
type Resolver struct {
	store RecordStore
	log   zerolog.Logger
}

// NewResolver creates a duplicate resolver over a record store.
func NewResolver(store RecordStore) *Resolver {
	return &Resolver{
		store: store,
		log:   logger.WithComponent("duplicate-resolver"),
	}
}

// Check looks up the candidate's business key. It never modifies
// anything.
func (r *Resolver) Check(ctx context.Context, candidate *models.DocumentRecord) (DuplicateCheck, error) {
	const op = "Check"

	existing, err := r.store.FindByKey(ctx, KeyFor(candidate))
	if errors.Is(err, ErrNotFound) {
		return DuplicateCheck{}, nil
	}
	if err != nil {
		return DuplicateCheck{}, WrapStoreError(op, err, "")
	}

	r.log.Info().
		Str("existing_id", existing.ID).
		Str("key", KeyFor(candidate).String()).
		Msg("Duplicate record detected")

	return DuplicateCheck{IsDuplicate: true, Existing: existing}, nil
}

// Resolve applies the chosen policy for a detected duplicate and returns
// the record that now represents the document (the existing one for
// skip, the newly created one otherwise).
func (r *Resolver) Resolve(ctx context.Context, resolution Resolution, candidate *models.DocumentRecord, existing *models.DocumentRecord) (*models.DocumentRecord, error) {
	const op = "Resolve"

	switch resolution {
	case ResolutionSkip:
		r.log.Info().Str("existing_id", existing.ID).Msg("Duplicate skipped, keeping existing record")
		return existing, nil

	case ResolutionReplace:
		if err := r.store.Delete(ctx, existing.ID); err != nil {
			return nil, WrapStoreError(op, err, "deleting existing record")
		}
		if err := r.store.Create(ctx, candidate); err != nil {
			return nil, WrapStoreError(op, err, "creating replacement record")
		}
		r.log.Info().
			Str("replaced_id", existing.ID).
			Str("record_id", candidate.ID).
			Msg("Duplicate replaced")
		return candidate, nil

	case ResolutionKeepBoth:
		candidate.Name = candidate.Name + KeepBothSuffix
		if err := r.store.Create(ctx, candidate); err != nil {
			return nil, WrapStoreError(op, err, "creating disambiguated record")
		}
		r.log.Info().
			Str("existing_id", existing.ID).
			Str("record_id", candidate.ID).
			Msg("Duplicate kept alongside existing record")
		return candidate, nil

	default:
		return nil, WrapStoreError(op, ErrInvalidResolution, string(resolution))
	}
}
