package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"airwave/internal/models"
)

// UserChannelRepository handles database operations for user-authored lineups
type UserChannelRepository struct {
	db *DB
}

// NewUserChannelRepository creates a new user channel repository
func NewUserChannelRepository(db *DB) *UserChannelRepository {
	return &UserChannelRepository{db: db}
}

// Create inserts a new user channel into the database
func (r *UserChannelRepository) Create(ctx context.Context, uc *models.UserChannel) error {
	result := r.db.WithContext(ctx).Create(uc)
	if result.Error != nil {
		return fmt.Errorf("failed to create user channel: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a user channel by its UUID
func (r *UserChannelRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UserChannel, error) {
	var uc models.UserChannel
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&uc)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &uc, nil
}

// GetByPublishedChannel retrieves the user channel that was promoted into
// the given live channel
func (r *UserChannelRepository) GetByPublishedChannel(ctx context.Context, channelID uuid.UUID) (*models.UserChannel, error) {
	var uc models.UserChannel
	result := r.db.WithContext(ctx).Where("published_channel_id = ?", channelID.String()).First(&uc)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &uc, nil
}

// ListByProfile retrieves all user channels for a profile, oldest first
func (r *UserChannelRepository) ListByProfile(ctx context.Context, profileID string) ([]*models.UserChannel, error) {
	var ucs []*models.UserChannel
	result := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("created_at ASC").
		Find(&ucs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list user channels: %w", MapGormError(result.Error))
	}
	return ucs, nil
}

// Update rewrites a user channel row, including its lineup JSON
func (r *UserChannelRepository) Update(ctx context.Context, uc *models.UserChannel) error {
	uc.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Where("id = ?", uc.ID.String()).
		Select("name", "lineup_json", "published_channel_id", "updated_at").
		Updates(uc)
	if result.Error != nil {
		return fmt.Errorf("failed to update user channel: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a user channel by its UUID
func (r *UserChannelRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.UserChannel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete user channel: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
