package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"airwave/internal/models"
)

// ScheduleEntryRepository handles database operations for cached timelines
type ScheduleEntryRepository struct {
	db *DB
}

// NewScheduleEntryRepository creates a new schedule entry repository
func NewScheduleEntryRepository(db *DB) *ScheduleEntryRepository {
	return &ScheduleEntryRepository{db: db}
}

// GetByKey retrieves a schedule entry by its versioned cache key
func (r *ScheduleEntryRepository) GetByKey(ctx context.Context, key string) (*models.ScheduleEntry, error) {
	var entry models.ScheduleEntry
	result := r.db.WithContext(ctx).Where("key = ?", key).First(&entry)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &entry, nil
}

// Upsert writes a schedule entry, replacing any existing row for the same
// key. Timeline and expiry land in one statement so an entry is never
// visible without its expiry.
func (r *ScheduleEntryRepository) Upsert(ctx context.Context, entry *models.ScheduleEntry) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"channel_id", "expires_at", "timeline_json", "created_at"}),
		}).
		Create(entry)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert schedule entry: %w", MapGormError(result.Error))
	}
	return nil
}

// DeleteByChannel removes all cached timelines for a channel, across key
// versions
func (r *ScheduleEntryRepository) DeleteByChannel(ctx context.Context, channelID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID.String()).
		Delete(&models.ScheduleEntry{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete schedule entries: %w", MapGormError(result.Error))
	}
	return nil
}

// DeleteExpired removes entries whose expiry has passed; housekeeping only,
// expired rows are never served regardless
func (r *ScheduleEntryRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= CURRENT_TIMESTAMP").
		Delete(&models.ScheduleEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired schedule entries: %w", MapGormError(result.Error))
	}
	return result.RowsAffected, nil
}
