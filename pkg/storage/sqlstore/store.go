// Package sqlstore persists collection records through GORM (Postgres or SQLite).
package sqlstore

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements storage.Durable on the collection_records table.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New constructs a store bound to the provided gorm DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Read loads a record; a missing row is found=false.
func (s *Store) Read(ctx context.Context, key string) (string, bool, error) {
	var record models.CollectionRecord
	err := s.db.WithContext(ctx).
		Where("record_key = ?", key).
		Take(&record).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return record.Payload, true, nil
}

// Write upserts the record.
func (s *Store) Write(ctx context.Context, key, value string) error {
	record := models.CollectionRecord{
		Key:       key,
		Payload:   value,
		UpdatedAt: s.now().UTC(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "record_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&record).
		Error
}

// Delete removes the record if present.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).
		Where("record_key = ?", key).
		Delete(&models.CollectionRecord{}).
		Error
}

// PurgeBefore deletes records not written since cutoff and returns the count.
func (s *Store) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("updated_at < ?", cutoff.UTC()).
		Delete(&models.CollectionRecord{})
	return res.RowsAffected, res.Error
}
