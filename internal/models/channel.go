package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Channel represents a virtual broadcast channel backed by either a content
// pool (fixed or shuffled rotation) or a user-authored lineup.
type Channel struct {
	ID          uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Slug        string    `json:"slug" gorm:"type:text;not null;uniqueIndex;column:slug" validate:"required,min=1,max=64"`
	Name        string    `json:"name" gorm:"type:text;not null;column:name" validate:"required,min=1,max=255"`
	Description string    `json:"description,omitempty" gorm:"type:text;column:description"`
	ArtworkRef  string    `json:"artwork_ref,omitempty" gorm:"type:text;column:artwork_ref"`

	// Shuffle selects the duration policy as well as ordering: shuffled
	// channels schedule true episode runtimes, fixed-rotation channels pin
	// episodes to a predictable half-hour grid.
	Shuffle bool `json:"shuffle" gorm:"type:integer;not null;default:0;column:shuffle"`

	// UserAuthored marks channels promoted from a user lineup; their
	// timelines come from the lineup rather than a pool build.
	UserAuthored bool `json:"user_authored" gorm:"type:integer;not null;default:0;column:user_authored"`

	// PoolJSON holds the channel's []ContentRef as JSON text
	PoolJSON string `json:"-" gorm:"type:text;column:pool_json"`

	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewChannel creates a new pool-backed Channel with generated UUID and timestamps
func NewChannel(slug, name string, shuffle bool) *Channel {
	now := time.Now().UTC()
	return &Channel{
		ID:        uuid.New(),
		Slug:      slug,
		Name:      name,
		Shuffle:   shuffle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Pool decodes the channel's content pool from its stored JSON.
func (c *Channel) Pool() ([]ContentRef, error) {
	if c.PoolJSON == "" {
		return nil, nil
	}
	var pool []ContentRef
	if err := json.Unmarshal([]byte(c.PoolJSON), &pool); err != nil {
		return nil, fmt.Errorf("failed to decode channel pool: %w", err)
	}
	return pool, nil
}

// SetPool encodes and stores the channel's content pool.
func (c *Channel) SetPool(pool []ContentRef) error {
	data, err := json.Marshal(pool)
	if err != nil {
		return fmt.Errorf("failed to encode channel pool: %w", err)
	}
	c.PoolJSON = string(data)
	return nil
}
