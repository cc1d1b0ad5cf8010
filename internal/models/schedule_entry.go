package models

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleEntry is a persisted schedule cache row: one built timeline for
// one channel, valid until the timeline's own end time. The timeline is
// stored as a JSON array of ScheduledItem so a schema change only requires
// bumping the key version prefix to invalidate old rows.
type ScheduleEntry struct {
	// Key is the versioned cache key, e.g. "v1:<channel uuid>"
	Key       string    `json:"key" gorm:"type:text;primaryKey;column:key"`
	ChannelID uuid.UUID `json:"channel_id" gorm:"type:text;not null;index;column:channel_id"`

	// ExpiresAt equals the EndTime of the timeline's last item. A row is
	// valid for reuse iff now < ExpiresAt.
	ExpiresAt time.Time `json:"expires_at" gorm:"type:datetime;not null;column:expires_at"`

	// TimelineJSON holds the []ScheduledItem as JSON text
	TimelineJSON string `json:"-" gorm:"type:text;not null;column:timeline_json"`

	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// Valid reports whether the entry may still be served at the given time.
func (e *ScheduleEntry) Valid(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}
