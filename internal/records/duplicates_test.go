package records_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetdocs/internal/records"
	"fleetdocs/pkg/models"
)

// memStore is an in-memory RecordStore for resolver tests.
type memStore struct {
	records map[string]*models.DocumentRecord
	nextID  int
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*models.DocumentRecord)}
}

func (s *memStore) Create(_ context.Context, record *models.DocumentRecord) error {
	if record.ID == "" {
		s.nextID++
		record.ID = string(rune('a' + s.nextID))
	}
	clone := *record
	s.records[record.ID] = &clone
	return nil
}

func (s *memStore) Update(_ context.Context, record *models.DocumentRecord) error {
	if _, ok := s.records[record.ID]; !ok {
		return records.WrapStoreError("Update", records.ErrNotFound, record.ID)
	}
	clone := *record
	s.records[record.ID] = &clone
	return nil
}

func (s *memStore) FindByID(_ context.Context, id string) (*models.DocumentRecord, error) {
	record, ok := s.records[id]
	if !ok {
		return nil, records.WrapStoreError("FindByID", records.ErrNotFound, id)
	}
	clone := *record
	return &clone, nil
}

func (s *memStore) FindByKey(_ context.Context, key records.BusinessKey) (*models.DocumentRecord, error) {
	for _, record := range s.records {
		if record.ShipID != key.ShipID || record.Type != key.Type {
			continue
		}
		if key.ReportNumber != "" {
			if record.ReportNumber == key.ReportNumber {
				clone := *record
				return &clone, nil
			}
			continue
		}
		if record.Name == key.Name && record.IssueDate == key.IssueDate {
			clone := *record
			return &clone, nil
		}
	}
	return nil, records.WrapStoreError("FindByKey", records.ErrNotFound, key.String())
}

func (s *memStore) Delete(_ context.Context, id string) error {
	delete(s.records, id)
	return nil
}

func surveyRecord(id, number, name, date string) *models.DocumentRecord {
	return &models.DocumentRecord{
		ID:           id,
		ShipID:       "ship-1",
		Type:         models.SurveyReport,
		Name:         name,
		ReportNumber: number,
		IssueDate:    date,
	}
}

func TestKeyForUsesReportNumberWhenPresent(t *testing.T) {
	key := records.KeyFor(surveyRecord("r1", "SR-2024-001", "Cargo Gear", "2024-03-15"))

	assert.Equal(t, "SR-2024-001", key.ReportNumber)
	assert.Empty(t, key.Name)
	assert.Empty(t, key.IssueDate)
}

func TestKeyForFallsBackToNameAndDate(t *testing.T) {
	key := records.KeyFor(surveyRecord("r1", "", "Cargo Gear", "2024-03-15"))

	assert.Empty(t, key.ReportNumber)
	assert.Equal(t, "Cargo Gear", key.Name)
	assert.Equal(t, "2024-03-15", key.IssueDate)
}

func TestCheckDetectsDuplicateByNumber(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	resolver := records.NewResolver(store)

	existing := surveyRecord("r1", "SR-2024-001", "Cargo Gear", "2024-03-15")
	require.NoError(t, store.Create(ctx, existing))

	// Same number, different name: still the same document.
	candidate := surveyRecord("r2", "SR-2024-001", "Cargo Gear Survey", "2024-04-01")
	check, err := resolver.Check(ctx, candidate)
	require.NoError(t, err)
	assert.True(t, check.IsDuplicate)
	assert.Equal(t, "r1", check.Existing.ID)

	// Check never modifies the store.
	assert.Len(t, store.records, 1)
}

func TestCheckDetectsDuplicateByNameAndDate(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	resolver := records.NewResolver(store)

	require.NoError(t, store.Create(ctx, surveyRecord("r1", "", "Cargo Gear", "2024-03-15")))

	check, err := resolver.Check(ctx, surveyRecord("r2", "", "Cargo Gear", "2024-03-15"))
	require.NoError(t, err)
	assert.True(t, check.IsDuplicate)

	// A different date is a different document.
	check, err = resolver.Check(ctx, surveyRecord("r3", "", "Cargo Gear", "2025-03-20"))
	require.NoError(t, err)
	assert.False(t, check.IsDuplicate)
}

func TestCheckDifferentTypeIsNotDuplicate(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	resolver := records.NewResolver(store)

	require.NoError(t, store.Create(ctx, surveyRecord("r1", "SR-2024-001", "Cargo Gear", "2024-03-15")))

	candidate := surveyRecord("r2", "SR-2024-001", "Cargo Gear", "2024-03-15")
	candidate.Type = models.TestReport
	check, err := resolver.Check(ctx, candidate)
	require.NoError(t, err)
	assert.False(t, check.IsDuplicate)
}

func TestResolveSkip(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	resolver := records.NewResolver(store)

	existing := surveyRecord("r1", "SR-2024-001", "Cargo Gear", "2024-03-15")
	require.NoError(t, store.Create(ctx, existing))

	candidate := surveyRecord("r2", "SR-2024-001", "Cargo Gear", "2024-03-15")
	kept, err := resolver.Resolve(ctx, records.ResolutionSkip, candidate, existing)
	require.NoError(t, err)

	assert.Equal(t, "r1", kept.ID)
	assert.Len(t, store.records, 1)
	_, err = store.FindByID(ctx, "r2")
	assert.ErrorIs(t, err, records.ErrNotFound)
}

func TestResolveReplace(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	resolver := records.NewResolver(store)

	existing := surveyRecord("r1", "SR-2024-001", "Cargo Gear", "2024-03-15")
	require.NoError(t, store.Create(ctx, existing))

	candidate := surveyRecord("r2", "SR-2024-001", "Cargo Gear", "2024-04-01")
	kept, err := resolver.Resolve(ctx, records.ResolutionReplace, candidate, existing)
	require.NoError(t, err)

	assert.Equal(t, "r2", kept.ID)
	assert.Len(t, store.records, 1)
	_, err = store.FindByID(ctx, "r1")
	assert.ErrorIs(t, err, records.ErrNotFound)
}

func TestResolveKeepBoth(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	resolver := records.NewResolver(store)

	existing := surveyRecord("r1", "SR-2024-001", "Cargo Gear", "2024-03-15")
	require.NoError(t, store.Create(ctx, existing))

	candidate := surveyRecord("r2", "SR-2024-001", "Cargo Gear", "2024-03-15")
	kept, err := resolver.Resolve(ctx, records.ResolutionKeepBoth, candidate, existing)
	require.NoError(t, err)

	assert.Equal(t, "r2", kept.ID)
	assert.Equal(t, "Cargo Gear"+records.KeepBothSuffix, kept.Name)
	assert.Len(t, store.records, 2)
}

func TestResolveInvalidResolution(t *testing.T) {
	ctx := context.Background()
	resolver := records.NewResolver(newMemStore())

	_, err := resolver.Resolve(ctx, records.Resolution("merge"), surveyRecord("r2", "", "", ""), surveyRecord("r1", "", "", ""))
	assert.ErrorIs(t, err, records.ErrInvalidResolution)
}
