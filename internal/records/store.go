// Package records persists document business records and detects
// duplicates before insertion.
//
// The store is a thin generic layer over gorm: the pipeline only needs
// find, create, update and delete keyed by id plus a lookup by business
// key. Duplicate handling is deliberately not automatic: the resolver
// reports the collision and applies whichever policy the caller chose.
package records

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"fleetdocs/internal/logger"
	"fleetdocs/pkg/models"
)

// RecordStore is the persistence boundary for document records.
type RecordStore interface {
	Create(ctx context.Context, record *models.DocumentRecord) error
	Update(ctx context.Context, record *models.DocumentRecord) error
	FindByID(ctx context.Context, id string) (*models.DocumentRecord, error)
	FindByKey(ctx context.Context, key BusinessKey) (*models.DocumentRecord, error)
	Delete(ctx context.Context, id string) error
}

// GormRecordStore implements RecordStore on a gorm-managed database.
type GormRecordStore struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewSQLiteRecordStore opens (and migrates) a SQLite-backed record store
// at the given path.
func NewSQLiteRecordStore(path string) (*GormRecordStore, error) {
	const op = "NewSQLiteRecordStore"

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, WrapStoreError(op, err, "opening database")
	}
	if err := db.AutoMigrate(&models.DocumentRecord{}); err != nil {
		return nil, WrapStoreError(op, err, "migrating document_records")
	}

	return &GormRecordStore{
		db:  db,
		log: logger.WithComponent("record-store"),
	}, nil
}

// NewGormRecordStore wraps an existing gorm handle (for testing).
func NewGormRecordStore(db *gorm.DB) *GormRecordStore {
	return &GormRecordStore{
		db:  db,
		log: logger.WithComponent("record-store"),
	}
}

// Create inserts a record, assigning an id and timestamps when absent.
func (s *GormRecordStore) Create(ctx context.Context, record *models.DocumentRecord) error {
	const op = "Create"

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return WrapStoreError(op, err, record.ID)
	}

	s.log.Info().
		Str("record_id", record.ID).
		Str("ship_id", record.ShipID).
		Str("type", string(record.Type)).
		Str("name", record.Name).
		Msg("Record created")

	return nil
}

// Update saves the full record.
func (s *GormRecordStore) Update(ctx context.Context, record *models.DocumentRecord) error {
	const op = "Update"

	record.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Save(record).Error; err != nil {
		return WrapStoreError(op, err, record.ID)
	}
	return nil
}

// FindByID fetches one record by id.
func (s *GormRecordStore) FindByID(ctx context.Context, id string) (*models.DocumentRecord, error) {
	const op = "FindByID"

	var record models.DocumentRecord
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, WrapStoreError(op, ErrNotFound, id)
	}
	if err != nil {
		return nil, WrapStoreError(op, err, id)
	}
	return &record, nil
}

// FindByKey fetches the record matching a business key, or ErrNotFound.
func (s *GormRecordStore) FindByKey(ctx context.Context, key BusinessKey) (*models.DocumentRecord, error) {
	const op = "FindByKey"

	query := s.db.WithContext(ctx).
		Where("ship_id = ? AND type = ?", key.ShipID, key.Type)
	if key.ReportNumber != "" {
		query = query.Where("report_number = ?", key.ReportNumber)
	} else {
		query = query.Where("name = ? AND issue_date = ?", key.Name, key.IssueDate)
	}

	var record models.DocumentRecord
	err := query.First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, WrapStoreError(op, ErrNotFound, key.String())
	}
	if err != nil {
		return nil, WrapStoreError(op, err, key.String())
	}
	return &record, nil
}

// Delete removes a record by id.
func (s *GormRecordStore) Delete(ctx context.Context, id string) error {
	const op = "Delete"

	if err := s.db.WithContext(ctx).Delete(&models.DocumentRecord{}, "id = ?", id).Error; err != nil {
		return WrapStoreError(op, err, id)
	}
	return nil
}
