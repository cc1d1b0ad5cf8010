package schedule

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"airwave/internal/clock"
	"airwave/internal/db"
	"airwave/internal/logger"
	"airwave/internal/models"
)

// cacheKeyVersion prefixes every cache key. Bumping it on a schema change
// makes all old rows unreachable without a migration.
const cacheKeyVersion = "v1"

// EntryStore is the persistence the cache needs: a keyed read/write of
// schedule entries. db.ScheduleEntryRepository implements it.
type EntryStore interface {
	GetByKey(ctx context.Context, key string) (*models.ScheduleEntry, error)
	Upsert(ctx context.Context, entry *models.ScheduleEntry) error
	DeleteByChannel(ctx context.Context, channelID uuid.UUID) error
}

// BuildFunc produces a fresh timeline on a cache miss.
type BuildFunc func(ctx context.Context) (Timeline, error)

// Cache serves built timelines keyed per channel, valid until the
// timeline's own end time. A rebuild only ever happens after the prior
// timeline expires, so at most one timeline is live per channel per
// validity window.
type Cache struct {
	store EntryStore
	clock clock.Clock
}

// NewCache creates a schedule cache over the given entry store
func NewCache(store EntryStore, clk clock.Clock) *Cache {
	return &Cache{
		store: store,
		clock: clk,
	}
}

// CacheKey returns the versioned persistence key for a channel.
func CacheKey(channelID uuid.UUID) string {
	return cacheKeyVersion + ":" + channelID.String()
}

// GetOrBuild returns the channel's cached timeline when a valid entry
// exists, otherwise invokes build and persists the result. Corrupt or
// expired entries are treated as misses, never surfaced to the caller.
func (c *Cache) GetOrBuild(ctx context.Context, channelID uuid.UUID, build BuildFunc) (Timeline, error) {
	now := c.clock.Now()
	key := CacheKey(channelID)

	entry, err := c.store.GetByKey(ctx, key)
	switch {
	case err == nil && entry.Valid(now):
		tl, decodeErr := decodeTimeline(entry.TimelineJSON)
		if decodeErr != nil {
			logger.Log.Warn().
				Err(decodeErr).
				Str("channel_id", channelID.String()).
				Msg("Cached timeline is corrupt, rebuilding")
		} else if len(tl) > 0 {
			logger.Log.Debug().
				Str("channel_id", channelID.String()).
				Time("expires_at", entry.ExpiresAt).
				Int("items", len(tl)).
				Msg("Serving cached timeline")
			return tl, nil
		}
	case err == nil:
		logger.Log.Debug().
			Str("channel_id", channelID.String()).
			Time("expires_at", entry.ExpiresAt).
			Msg("Cached timeline expired, rebuilding")
	case !db.IsNotFound(err):
		// Read failures degrade to a rebuild rather than erroring out
		logger.Log.Error().
			Err(err).
			Str("channel_id", channelID.String()).
			Msg("Failed to read schedule cache, rebuilding")
	}

	tl, err := build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build timeline: %w", err)
	}
	if len(tl) == 0 {
		return nil, ErrEmptyTimeline
	}

	if err := c.Put(ctx, channelID, tl); err != nil {
		// The timeline is still good; losing persistence only costs a
		// rebuild on the next process start.
		logger.Log.Error().
			Err(err).
			Str("channel_id", channelID.String()).
			Msg("Failed to persist built timeline")
	}

	return tl, nil
}

// Put persists a timeline for a channel. The expiry is derived from the
// timeline's last item in the same write; an entry is never stored without
// its correct expiry.
func (c *Cache) Put(ctx context.Context, channelID uuid.UUID, tl Timeline) error {
	if len(tl) == 0 {
		return ErrEmptyTimeline
	}

	data, err := json.Marshal([]models.ScheduledItem(tl))
	if err != nil {
		return fmt.Errorf("failed to encode timeline: %w", err)
	}

	entry := &models.ScheduleEntry{
		Key:          CacheKey(channelID),
		ChannelID:    channelID,
		ExpiresAt:    tl.End(),
		TimelineJSON: string(data),
		CreatedAt:    c.clock.Now(),
	}

	if err := c.store.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("failed to store schedule entry: %w", err)
	}

	logger.Log.Info().
		Str("channel_id", channelID.String()).
		Time("expires_at", entry.ExpiresAt).
		Int("items", len(tl)).
		Msg("Timeline cached")

	return nil
}

// Invalidate drops any cached timeline for the channel. Used when a
// channel's pool or lineup mutates.
func (c *Cache) Invalidate(ctx context.Context, channelID uuid.UUID) error {
	if err := c.store.DeleteByChannel(ctx, channelID); err != nil && !db.IsNotFound(err) {
		return fmt.Errorf("failed to invalidate schedule cache: %w", err)
	}
	return nil
}

// decodeTimeline unmarshals a stored timeline and checks its invariants.
// Any failure means the row is unusable and the caller should rebuild.
func decodeTimeline(raw string) (Timeline, error) {
	var items []models.ScheduledItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to decode timeline: %w", err)
	}
	tl := Timeline(items)
	if err := tl.Validate(); err != nil {
		return nil, err
	}
	return tl, nil
}
