// Package lineup implements the user-authored timeline builder: a channel
// assembled item by item through explicit add/remove operations instead of
// a pool build. Every mutation rewrites the whole lineup with recomputed
// start/end times so the gapless invariant holds, and a lineup may only be
// published as a live channel once it covers a full day.
package lineup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"airwave/internal/clock"
	"airwave/internal/db"
	"airwave/internal/logger"
	"airwave/internal/models"
	"airwave/internal/schedule"
)

// PublishThreshold is the minimum total duration a lineup must reach
// before it can be promoted into a live channel.
const PublishThreshold = 24 * time.Hour

// Service handles business logic for user-authored lineups
type Service struct {
	db      *db.DB
	repos   *db.Repositories
	builder *schedule.Builder
	cache   *schedule.Cache
	clock   clock.Clock
}

// NewService creates a new lineup service instance
func NewService(database *db.DB, repos *db.Repositories, builder *schedule.Builder, cache *schedule.Cache, clk clock.Clock) *Service {
	return &Service{
		db:      database,
		repos:   repos,
		builder: builder,
		cache:   cache,
		clock:   clk,
	}
}

// Create creates a new empty lineup for a profile
func (s *Service) Create(ctx context.Context, profileID, name string) (*models.UserChannel, error) {
	uc := models.NewUserChannel(profileID, name)
	if err := s.repos.UserChannels.Create(ctx, uc); err != nil {
		logger.Log.Error().
			Err(err).
			Str("profile_id", profileID).
			Msg("Failed to create lineup")
		return nil, fmt.Errorf("failed to create lineup: %w", err)
	}

	logger.Log.Info().
		Str("lineup_id", uc.ID.String()).
		Str("profile_id", profileID).
		Msg("Lineup created")

	return uc, nil
}

// Get retrieves a lineup by id
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.UserChannel, error) {
	uc, err := s.repos.UserChannels.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrLineupNotFound
		}
		return nil, fmt.Errorf("failed to get lineup: %w", err)
	}
	return uc, nil
}

// ListByProfile retrieves all lineups owned by a profile
func (s *Service) ListByProfile(ctx context.Context, profileID string) ([]*models.UserChannel, error) {
	lineups, err := s.repos.UserChannels.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lineups: %w", err)
	}
	return lineups, nil
}

// Append resolves a content reference and adds it to the end of the
// lineup. Its start time is the current last item's end, or now for an
// empty lineup. User lineups always schedule true runtimes.
func (s *Service) Append(ctx context.Context, id uuid.UUID, ref models.ContentRef) ([]models.ScheduledItem, error) {
	uc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := uc.Lineup()
	if err != nil {
		return nil, fmt.Errorf("failed to append to lineup: %w", err)
	}

	item, err := s.builder.ResolveItem(ctx, ref)
	if err != nil {
		logger.Log.Warn().
			Err(err).
			Str("lineup_id", id.String()).
			Str("catalog_id", ref.CatalogID).
			Msg("Failed to resolve item for lineup append")
		return nil, fmt.Errorf("failed to resolve item: %w", err)
	}

	start := s.clock.Now()
	if len(items) > 0 {
		start = items[len(items)-1].EndTime
	}
	item.StartTime = start
	item.EndTime = start.Add(item.Duration())
	items = append(items, item)

	if err := s.saveLineup(ctx, uc, items); err != nil {
		return nil, err
	}

	logger.Log.Info().
		Str("lineup_id", id.String()).
		Str("title", item.Title).
		Int("items", len(items)).
		Msg("Item appended to lineup")

	return items, nil
}

// RemoveAt deletes the item at index and recomputes every remaining item's
// start and end by re-walking the whole sequence: from now when the first
// item was removed, otherwise from the first item's existing start. The
// full recompute is deliberate; it is simpler than shifting and keeps the
// gapless invariant by construction.
func (s *Service) RemoveAt(ctx context.Context, id uuid.UUID, index int) ([]models.ScheduledItem, error) {
	uc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := uc.Lineup()
	if err != nil {
		return nil, fmt.Errorf("failed to remove from lineup: %w", err)
	}

	if index < 0 || index >= len(items) {
		return nil, fmt.Errorf("index %d with %d items: %w", index, len(items), ErrIndexOutOfRange)
	}

	base := s.clock.Now()
	if index > 0 {
		base = items[0].StartTime
	}

	items = append(items[:index], items[index+1:]...)
	items = Rebase(items, base)

	if err := s.saveLineup(ctx, uc, items); err != nil {
		return nil, err
	}

	logger.Log.Info().
		Str("lineup_id", id.String()).
		Int("index", index).
		Int("items", len(items)).
		Msg("Item removed from lineup")

	return items, nil
}

// Publish promotes a lineup into a live channel once its total duration
// reaches the publish threshold, and primes the schedule cache with the
// lineup re-walked from now so the new channel is immediately watchable.
func (s *Service) Publish(ctx context.Context, id uuid.UUID) (*models.Channel, error) {
	uc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if uc.PublishedChannelID != nil {
		return nil, ErrAlreadyPublished
	}

	items, err := uc.Lineup()
	if err != nil {
		return nil, fmt.Errorf("failed to publish lineup: %w", err)
	}

	total := schedule.Timeline(items).TotalDuration()
	if total < PublishThreshold {
		shortfall := PublishThreshold - total
		logger.Log.Warn().
			Str("lineup_id", id.String()).
			Dur("total", total).
			Dur("shortfall", shortfall).
			Msg("Lineup below publish threshold")
		return nil, &InsufficientDurationError{Shortfall: shortfall}
	}

	// Channel creation and the lineup's published marker land together
	ch := models.NewChannel(slugify(uc.Name, uc.ID), uc.Name, false)
	ch.UserAuthored = true
	err = s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(ch).Error; err != nil {
			return fmt.Errorf("failed to create channel: %w", err)
		}
		result := tx.Model(&models.UserChannel{}).
			Where("id = ?", uc.ID.String()).
			Updates(map[string]any{
				"published_channel_id": ch.ID.String(),
				"updated_at":           s.clock.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to mark lineup published: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrLineupNotFound
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to publish lineup: %w", err)
	}
	uc.PublishedChannelID = &ch.ID

	tl := schedule.Timeline(Rebase(items, s.clock.Now()))
	if err := s.cache.Put(ctx, ch.ID, tl); err != nil {
		// The channel is live either way; the timeline will be rebuilt
		// from the lineup on first view.
		logger.Log.Error().
			Err(err).
			Str("channel_id", ch.ID.String()).
			Msg("Failed to prime schedule cache for published lineup")
	}

	logger.Log.Info().
		Str("lineup_id", id.String()).
		Str("channel_id", ch.ID.String()).
		Dur("total", total).
		Msg("Lineup published as channel")

	return ch, nil
}

// Timeline re-walks the lineup from the given start so a published
// channel's schedule can be rebuilt after its cached timeline expires.
func (s *Service) Timeline(ctx context.Context, id uuid.UUID, start time.Time) (schedule.Timeline, error) {
	uc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := uc.Lineup()
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, schedule.ErrEmptyTimeline
	}

	if start.IsZero() {
		start = s.clock.Now()
	}
	return schedule.Timeline(Rebase(items, start)), nil
}

// Delete removes a lineup
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repos.UserChannels.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete lineup: %w", err)
	}
	logger.Log.Info().
		Str("lineup_id", id.String()).
		Msg("Lineup deleted")
	return nil
}

// TotalDuration sums the lineup's item runtimes.
func (s *Service) TotalDuration(items []models.ScheduledItem) time.Duration {
	return schedule.Timeline(items).TotalDuration()
}

func (s *Service) saveLineup(ctx context.Context, uc *models.UserChannel, items []models.ScheduledItem) error {
	if err := uc.SetLineup(items); err != nil {
		return fmt.Errorf("failed to save lineup: %w", err)
	}
	uc.UpdatedAt = s.clock.Now()
	if err := s.repos.UserChannels.Update(ctx, uc); err != nil {
		return fmt.Errorf("failed to save lineup: %w", err)
	}

	// A published channel's cached timeline no longer matches the lineup
	if uc.PublishedChannelID != nil {
		if err := s.cache.Invalidate(ctx, *uc.PublishedChannelID); err != nil {
			logger.Log.Error().
				Err(err).
				Str("channel_id", uc.PublishedChannelID.String()).
				Msg("Failed to invalidate schedule cache after lineup mutation")
		}
	}
	return nil
}

// Rebase re-walks items sequentially from start, restoring the contiguity
// invariant: each item starts when its predecessor ends.
func Rebase(items []models.ScheduledItem, start time.Time) []models.ScheduledItem {
	cursor := start
	for i := range items {
		items[i].StartTime = cursor
		items[i].EndTime = cursor.Add(items[i].Duration())
		cursor = items[i].EndTime
	}
	return items
}

// slugify derives a URL-safe channel slug from a lineup name and id.
func slugify(name string, id uuid.UUID) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "lineup"
	}
	return slug + "-" + id.String()[:8]
}
