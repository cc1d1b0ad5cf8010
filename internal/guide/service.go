// Package guide is the scheduling facade the API layer consumes: it joins
// channel descriptors, the timeline builder, the schedule cache, and the
// live position resolver into the three questions a viewer-facing client
// asks. What is this channel's schedule, what is playing right now, and
// what comes on next.
package guide

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"airwave/internal/channel"
	"airwave/internal/clock"
	"airwave/internal/db"
	"airwave/internal/lineup"
	"airwave/internal/live"
	"airwave/internal/logger"
	"airwave/internal/models"
	"airwave/internal/schedule"
)

// Service handles schedule and live-position queries per channel
type Service struct {
	channels *channel.Service
	lineups  *lineup.Service
	repos    *db.Repositories
	builder  *schedule.Builder
	cache    *schedule.Cache
	clock    clock.Clock
}

// NewService creates a new guide service instance
func NewService(channels *channel.Service, lineups *lineup.Service, repos *db.Repositories, builder *schedule.Builder, cache *schedule.Cache, clk clock.Clock) *Service {
	return &Service{
		channels: channels,
		lineups:  lineups,
		repos:    repos,
		builder:  builder,
		cache:    cache,
		clock:    clk,
	}
}

// ScheduleFor returns the channel's current timeline, serving the cached
// one while it is valid and rebuilding otherwise. Pool channels rebuild
// from their pool; published user channels re-walk their lineup from now.
func (s *Service) ScheduleFor(ctx context.Context, channelID uuid.UUID) (schedule.Timeline, error) {
	ch, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	build, err := s.buildFunc(ctx, ch)
	if err != nil {
		return nil, err
	}

	tl, err := s.cache.GetOrBuild(ctx, ch.ID, build)
	if err != nil {
		logger.Log.Warn().
			Err(err).
			Str("channel_id", ch.ID.String()).
			Str("slug", ch.Slug).
			Msg("Failed to produce schedule for channel")
		return nil, err
	}
	return tl, nil
}

// LivePosition resolves what the channel is airing right now: the active
// item and the playback offset a joining viewer should seek to.
// Returns live.ErrGap when the timeline has expired mid-request.
func (s *Service) LivePosition(ctx context.Context, channelID uuid.UUID) (*live.Position, error) {
	tl, err := s.ScheduleFor(ctx, channelID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	pos, err := live.Resolve(tl, now)
	if err != nil {
		logger.Log.Warn().
			Err(err).
			Str("channel_id", channelID.String()).
			Time("now", now).
			Int("timeline_items", len(tl)).
			Msg("Live position resolution failed")
		return nil, err
	}

	logger.Log.Debug().
		Str("channel_id", channelID.String()).
		Str("title", pos.Item.Title).
		Int64("offset_seconds", pos.OffsetSeconds).
		Msg("Live position resolved")

	return pos, nil
}

// UpcomingResult pairs the active item with its positional successor.
type UpcomingResult struct {
	Active *models.ScheduledItem
	Next   *models.ScheduledItem

	// LeadTime is how long until the next item starts, from now
	LeadTime time.Duration
}

// Upcoming resolves the active item and the item that follows it, with
// the remaining lead time. Next is nil when the active item is last.
func (s *Service) Upcoming(ctx context.Context, channelID uuid.UUID) (*UpcomingResult, error) {
	tl, err := s.ScheduleFor(ctx, channelID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	pos, err := live.Resolve(tl, now)
	if err != nil {
		return nil, err
	}

	result := &UpcomingResult{Active: &pos.Item}
	if next := live.Next(tl, pos.Item); next != nil {
		result.Next = next
		result.LeadTime = next.StartTime.Sub(now)
	}
	return result, nil
}

// buildFunc selects the rebuild strategy for a channel.
func (s *Service) buildFunc(ctx context.Context, ch *models.Channel) (schedule.BuildFunc, error) {
	if ch.UserAuthored {
		uc, err := s.repos.UserChannels.GetByPublishedChannel(ctx, ch.ID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, fmt.Errorf("published channel %s has no lineup: %w", ch.ID, channel.ErrChannelNotFound)
			}
			return nil, fmt.Errorf("failed to find lineup for channel: %w", err)
		}
		ucID := uc.ID
		return func(ctx context.Context) (schedule.Timeline, error) {
			return s.lineups.Timeline(ctx, ucID, time.Time{})
		}, nil
	}

	pool, err := s.channels.Pool(ctx, ch)
	if err != nil {
		return nil, err
	}
	shuffle := ch.Shuffle
	return func(ctx context.Context) (schedule.Timeline, error) {
		return s.builder.Build(ctx, pool, schedule.BuildOptions{Shuffle: shuffle})
	}, nil
}
