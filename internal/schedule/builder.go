package schedule

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sourcegraph/conc/pool"

	"airwave/internal/catalog"
	"airwave/internal/clock"
	"airwave/internal/logger"
	"airwave/internal/models"
)

const (
	// DefaultCoverage is the minimum total duration a built timeline spans
	DefaultCoverage = 24 * time.Hour

	// defaultMovieSeconds is the fallback runtime for movies the catalog
	// reports no duration for
	defaultMovieSeconds int64 = 90 * 60

	// fixedGridSlotSeconds pins every episode on a fixed-rotation channel
	// to a half-hour slot regardless of true runtime, keeping the grid
	// predictable across rebuilds
	fixedGridSlotSeconds int64 = 30 * 60

	// defaultEpisodeSeconds is the fallback runtime for episodes on
	// shuffled channels when the catalog reports none
	defaultEpisodeSeconds int64 = 22 * 60

	// defaultResolveWorkers bounds concurrent catalog lookups per build
	defaultResolveWorkers = 4
)

// BuildOptions controls a single timeline build.
type BuildOptions struct {
	// Shuffle permutes the pool once before consumption. It also selects
	// the episode duration policy: shuffled channels schedule true
	// runtimes, fixed-rotation channels use the half-hour grid.
	Shuffle bool

	// Start is the first item's start time; zero means the clock's now
	Start time.Time

	// Coverage is the minimum total duration to schedule; zero means
	// DefaultCoverage
	Coverage time.Duration
}

// Builder constructs gapless timelines from content pools.
type Builder struct {
	resolver catalog.Resolver
	clock    clock.Clock
	coverage time.Duration
	workers  int
}

// NewBuilder creates a timeline builder over the given catalog resolver.
// coverage is the default minimum span per build; zero means DefaultCoverage.
func NewBuilder(resolver catalog.Resolver, clk clock.Clock, coverage time.Duration) *Builder {
	if coverage <= 0 {
		coverage = DefaultCoverage
	}
	return &Builder{
		resolver: resolver,
		clock:    clk,
		coverage: coverage,
		workers:  defaultResolveWorkers,
	}
}

// Build produces a contiguous timeline covering at least opts.Coverage,
// consuming the pool cyclically and wrapping around when it runs out.
//
// Entries that fail catalog resolution are skipped, not fatal: one bad
// catalog id must not keep a channel off the air. Only a pool where every
// entry fails aborts the build.
func (b *Builder) Build(ctx context.Context, contentPool []models.ContentRef, opts BuildOptions) (Timeline, error) {
	if len(contentPool) == 0 {
		return nil, ErrEmptyPool
	}

	coverage := opts.Coverage
	if coverage <= 0 {
		coverage = b.coverage
	}
	start := opts.Start
	if start.IsZero() {
		start = b.clock.Now()
	}

	// Work over a copy so the caller's pool keeps its original ordering
	// for deterministic channels across rebuilds. Shuffle is deliberately
	// unseeded; clients of the same mix channel are expected to diverge.
	work := make([]models.ContentRef, len(contentPool))
	copy(work, contentPool)
	if opts.Shuffle {
		rand.Shuffle(len(work), func(i, j int) {
			work[i], work[j] = work[j], work[i]
		})
	}

	// One memo per build: wraparound repeats the same works constantly,
	// each distinct id or episode resolves at most once.
	memo := catalog.NewMemo(b.resolver)
	b.prewarm(ctx, memo, work)

	// The accumulation pass is inherently sequential: each item's start is
	// the previous item's end.
	var (
		items       Timeline
		accumulated time.Duration
		cursor      = start
	)
	for poolIdx := 0; accumulated < coverage; poolIdx++ {
		if poolIdx >= len(work) && len(items) == 0 {
			// A full cycle produced nothing schedulable
			return nil, ErrNothingResolvable
		}

		ref := work[poolIdx%len(work)]
		item, err := b.resolveSlot(ctx, memo, ref, opts.Shuffle)
		if err != nil {
			logger.Log.Warn().
				Err(err).
				Str("catalog_id", ref.CatalogID).
				Str("kind", string(ref.Kind)).
				Msg("Skipping unresolvable pool entry")
			continue
		}

		item.StartTime = cursor
		item.EndTime = cursor.Add(item.Duration())
		items = append(items, item)

		cursor = item.EndTime
		accumulated += item.Duration()
	}

	logger.Log.Debug().
		Int("items", len(items)).
		Dur("total_duration", accumulated).
		Time("start", start).
		Time("end", cursor).
		Bool("shuffle", opts.Shuffle).
		Msg("Built timeline")

	return items, nil
}

// ResolveItem resolves a single content reference into an unscheduled item
// using the true-runtime duration policy. The user-authored lineup builder
// uses it for interactive appends; start and end times are the caller's to
// stamp.
func (b *Builder) ResolveItem(ctx context.Context, ref models.ContentRef) (models.ScheduledItem, error) {
	memo := catalog.NewMemo(b.resolver)
	return b.resolveSlot(ctx, memo, ref, true)
}

// prewarm resolves each distinct pool entry concurrently so the sequential
// accumulation pass is served entirely from the memo. Results land in the
// memo keyed by catalog id / episode, so pool order is irrelevant here and
// restored by the accumulation pass.
func (b *Builder) prewarm(ctx context.Context, memo *catalog.Memo, work []models.ContentRef) {
	seen := make(map[string]struct{}, len(work))
	workerPool := pool.New().WithMaxGoroutines(b.workers)

	for _, ref := range work {
		if _, ok := seen[ref.Key()]; ok {
			continue
		}
		seen[ref.Key()] = struct{}{}

		ref := ref
		workerPool.Go(func() {
			switch ref.Kind {
			case models.KindShow:
				_, _ = memo.ResolveEpisode(ctx, ref.CatalogID, ref.Season, ref.Episode)
				_, _ = memo.ResolveShow(ctx, ref.CatalogID)
			default:
				_, _ = memo.ResolveMovie(ctx, ref.CatalogID)
			}
		})
	}

	workerPool.Wait()
}

// resolveSlot turns a content reference into a scheduled item without
// times; the accumulation pass stamps StartTime/EndTime.
func (b *Builder) resolveSlot(ctx context.Context, memo *catalog.Memo, ref models.ContentRef, shuffled bool) (models.ScheduledItem, error) {
	switch ref.Kind {
	case models.KindMovie:
		meta, err := memo.ResolveMovie(ctx, ref.CatalogID)
		if err != nil {
			return models.ScheduledItem{}, err
		}

		duration := meta.DurationSeconds
		if duration <= 0 {
			duration = defaultMovieSeconds
		}

		return models.ScheduledItem{
			Kind:            models.KindMovie,
			CatalogID:       ref.CatalogID,
			Title:           meta.Title,
			ArtworkRef:      meta.ArtworkRef,
			DurationSeconds: duration,
		}, nil

	case models.KindShow:
		episode, err := memo.ResolveEpisode(ctx, ref.CatalogID, ref.Season, ref.Episode)
		if err != nil {
			return models.ScheduledItem{}, err
		}

		// Fixed-rotation channels ignore true runtime so the rotation
		// loops cleanly on a predictable grid; shuffled channels schedule
		// the real episode length.
		var duration int64
		if shuffled {
			duration = episode.DurationSeconds
			if duration <= 0 {
				duration = defaultEpisodeSeconds
			}
		} else {
			duration = fixedGridSlotSeconds
		}

		item := models.ScheduledItem{
			Kind:            models.KindShow,
			CatalogID:       ref.CatalogID,
			Title:           episode.Title,
			Season:          ref.Season,
			Episode:         ref.Episode,
			ArtworkRef:      episode.ArtworkRef,
			DurationSeconds: duration,
		}

		// Show-level lookup supplies the display name and the artwork
		// fallback. Its failure is not worth losing the slot over.
		if show, showErr := memo.ResolveShow(ctx, ref.CatalogID); showErr == nil {
			item.ShowName = show.Title
			if item.Title != "" && show.Title != "" {
				item.Title = show.Title + " - " + item.Title
			} else if item.Title == "" {
				item.Title = show.Title
			}
			if item.ArtworkRef == "" {
				item.ArtworkRef = show.ArtworkRef
			}
		} else {
			logger.Log.Debug().
				Err(showErr).
				Str("catalog_id", ref.CatalogID).
				Msg("Show-level metadata unavailable, using episode fields only")
		}

		return item, nil

	default:
		return models.ScheduledItem{}, fmt.Errorf("unsupported content kind %q", ref.Kind)
	}
}
