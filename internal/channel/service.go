// Package channel provides business logic for channel descriptors: the
// named virtual broadcast streams whose content pools feed the timeline
// builder.
package channel

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"airwave/internal/db"
	"airwave/internal/logger"
	"airwave/internal/models"
	"airwave/internal/schedule"
)

// Service handles business logic for channel operations
type Service struct {
	repos *db.Repositories
	cache *schedule.Cache
}

// NewService creates a new channel service instance
func NewService(repos *db.Repositories, cache *schedule.Cache) *Service {
	return &Service{
		repos: repos,
		cache: cache,
	}
}

// CreateChannel creates a new pool-backed channel with validation
func (s *Service) CreateChannel(ctx context.Context, slug, name, description string, shuffle bool, pool []models.ContentRef) (*models.Channel, error) {
	if err := s.validateSlugUniqueness(ctx, slug, uuid.Nil); err != nil {
		logger.Log.Warn().
			Str("slug", slug).
			Msg("Channel creation failed: duplicate slug")
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	ch := models.NewChannel(slug, name, shuffle)
	ch.Description = description
	if err := ch.SetPool(pool); err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	if err := s.repos.Channels.Create(ctx, ch); err != nil {
		logger.Log.Error().
			Err(err).
			Str("slug", slug).
			Msg("Failed to create channel in database")
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	logger.Log.Info().
		Str("channel_id", ch.ID.String()).
		Str("slug", ch.Slug).
		Bool("shuffle", ch.Shuffle).
		Int("pool_size", len(pool)).
		Msg("Channel created successfully")

	return ch, nil
}

// GetByID retrieves a channel by its ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Channel, error) {
	ch, err := s.repos.Channels.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrChannelNotFound
		}
		logger.Log.Error().
			Err(err).
			Str("channel_id", id.String()).
			Msg("Failed to get channel by ID")
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return ch, nil
}

// GetBySlug retrieves a channel by its slug
func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Channel, error) {
	ch, err := s.repos.Channels.GetBySlug(ctx, slug)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrChannelNotFound
		}
		logger.Log.Error().
			Err(err).
			Str("slug", slug).
			Msg("Failed to get channel by slug")
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return ch, nil
}

// List retrieves all channels
func (s *Service) List(ctx context.Context) ([]*models.Channel, error) {
	channels, err := s.repos.Channels.List(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list channels")
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}

	logger.Log.Debug().
		Int("count", len(channels)).
		Msg("Listed channels")

	return channels, nil
}

// UpdatePool replaces a channel's content pool and drops its cached
// timeline so the next schedule request rebuilds from the new pool
func (s *Service) UpdatePool(ctx context.Context, id uuid.UUID, pool []models.ContentRef) error {
	ch, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := ch.SetPool(pool); err != nil {
		return fmt.Errorf("failed to update channel pool: %w", err)
	}
	if err := s.repos.Channels.Update(ctx, ch); err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel_id", id.String()).
			Msg("Failed to update channel in database")
		return fmt.Errorf("failed to update channel pool: %w", err)
	}

	if err := s.cache.Invalidate(ctx, id); err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel_id", id.String()).
			Msg("Failed to invalidate schedule cache after pool update")
	}

	logger.Log.Info().
		Str("channel_id", id.String()).
		Int("pool_size", len(pool)).
		Msg("Channel pool updated")

	return nil
}

// DeleteChannel deletes a channel and its cached timeline
func (s *Service) DeleteChannel(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.cache.Invalidate(ctx, id); err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel_id", id.String()).
			Msg("Failed to invalidate schedule cache before delete")
	}

	if err := s.repos.Channels.Delete(ctx, id); err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel_id", id.String()).
			Msg("Failed to delete channel from database")
		return fmt.Errorf("failed to delete channel: %w", err)
	}

	logger.Log.Info().
		Str("channel_id", id.String()).
		Msg("Channel deleted successfully")

	return nil
}

// Pool returns the channel's decoded content pool, failing with
// ErrEmptyPool when the channel has nothing to schedule
func (s *Service) Pool(ctx context.Context, ch *models.Channel) ([]models.ContentRef, error) {
	pool, err := ch.Pool()
	if err != nil {
		return nil, fmt.Errorf("failed to read channel pool: %w", err)
	}
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}
	return pool, nil
}

// validateSlugUniqueness checks if a channel slug is unique (case-insensitive)
// excludeID allows excluding a specific channel ID (for updates)
func (s *Service) validateSlugUniqueness(ctx context.Context, slug string, excludeID uuid.UUID) error {
	channels, err := s.repos.Channels.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to validate slug uniqueness: %w", err)
	}

	slugLower := strings.ToLower(strings.TrimSpace(slug))
	for _, ch := range channels {
		if ch.ID == excludeID {
			continue
		}
		if strings.ToLower(strings.TrimSpace(ch.Slug)) == slugLower {
			return ErrDuplicateSlug
		}
	}
	return nil
}
