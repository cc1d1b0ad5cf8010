package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UserChannel is a user-authored lineup: an ordered sequence of scheduled
// items built interactively via append/remove rather than generated from a
// pool. It becomes a live Channel once its total duration reaches the
// publish threshold.
type UserChannel struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	ProfileID string    `json:"profile_id" gorm:"type:text;not null;index;column:profile_id" validate:"required"`
	Name      string    `json:"name" gorm:"type:text;not null;column:name" validate:"required,min=1,max=255"`

	// LineupJSON holds the ordered []ScheduledItem as JSON text. Every
	// mutation rewrites the whole lineup with recomputed start/end times.
	LineupJSON string `json:"-" gorm:"type:text;not null;default:'[]';column:lineup_json"`

	// PublishedChannelID is set once the lineup has been promoted
	PublishedChannelID *uuid.UUID `json:"published_channel_id,omitempty" gorm:"type:text;column:published_channel_id"`

	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewUserChannel creates a new empty user channel for a profile
func NewUserChannel(profileID, name string) *UserChannel {
	now := time.Now().UTC()
	return &UserChannel{
		ID:         uuid.New(),
		ProfileID:  profileID,
		Name:       name,
		LineupJSON: "[]",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Lineup decodes the stored lineup items.
func (u *UserChannel) Lineup() ([]ScheduledItem, error) {
	if u.LineupJSON == "" {
		return nil, nil
	}
	var items []ScheduledItem
	if err := json.Unmarshal([]byte(u.LineupJSON), &items); err != nil {
		return nil, fmt.Errorf("failed to decode lineup: %w", err)
	}
	return items, nil
}

// SetLineup encodes and stores the lineup items.
func (u *UserChannel) SetLineup(items []ScheduledItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode lineup: %w", err)
	}
	u.LineupJSON = string(data)
	return nil
}
