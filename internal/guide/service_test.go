package guide

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airwave/internal/catalog"
	"airwave/internal/channel"
	"airwave/internal/clock"
	"airwave/internal/db"
	"airwave/internal/lineup"
	"airwave/internal/models"
	"airwave/internal/schedule"
)

type fakeClock struct {
	now time.Time
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return false }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) AfterFunc(d time.Duration, f func()) clock.Timer { return noopTimer{} }

var _ clock.Clock = (*fakeClock)(nil)

// fakeResolver serves fixed-runtime movies and counts lookups.
type fakeResolver struct {
	mu     sync.Mutex
	movies map[string]int
	calls  int
}

func (f *fakeResolver) ResolveMovie(ctx context.Context, catalogID string) (*catalog.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	minutes, ok := f.movies[catalogID]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &catalog.Metadata{
		Title:           "Movie " + catalogID,
		DurationSeconds: int64(minutes) * 60,
	}, nil
}

func (f *fakeResolver) ResolveEpisode(ctx context.Context, catalogID string, season, episode int) (*catalog.Metadata, error) {
	return nil, catalog.ErrNotFound
}

func (f *fakeResolver) ResolveShow(ctx context.Context, catalogID string) (*catalog.Metadata, error) {
	return nil, catalog.ErrNotFound
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var _ catalog.Resolver = (*fakeResolver)(nil)

type testEnv struct {
	guide    *Service
	channels *channel.Service
	lineups  *lineup.Service
	repos    *db.Repositories
	clk      *fakeClock
	resolver *fakeResolver
}

func setupTestEnv(t *testing.T) (*testEnv, func()) {
	t.Helper()

	tmpFile := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(tmpFile)
	require.NoError(t, err)

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(sqlDB, "file://../../migrations"))

	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	resolver := &fakeResolver{movies: map[string]int{
		"m90":  90,
		"m120": 120,
		"mDay": 25 * 60,
	}}

	repos := db.NewRepositories(database)
	builder := schedule.NewBuilder(resolver, clk, 0)
	cache := schedule.NewCache(repos.ScheduleEntries, clk)
	channels := channel.NewService(repos, cache)
	lineups := lineup.NewService(database, repos, builder, cache, clk)
	guideService := NewService(channels, lineups, repos, builder, cache, clk)

	env := &testEnv{
		guide:    guideService,
		channels: channels,
		lineups:  lineups,
		repos:    repos,
		clk:      clk,
		resolver: resolver,
	}

	cleanup := func() {
		_ = database.Close()
	}
	return env, cleanup
}

func (e *testEnv) createPoolChannel(t *testing.T, slug string, ids ...string) *models.Channel {
	t.Helper()
	pool := make([]models.ContentRef, len(ids))
	for i, id := range ids {
		pool[i] = models.ContentRef{Kind: models.KindMovie, CatalogID: id}
	}
	ch, err := e.channels.CreateChannel(context.Background(), slug, slug, "", false, pool)
	require.NoError(t, err)
	return ch
}

func TestScheduleFor_BuildsAndCaches(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	ctx := context.Background()
	ch := env.createPoolChannel(t, "features", "m90", "m120")

	tl, err := env.guide.ScheduleFor(ctx, ch.ID)
	require.NoError(t, err)
	require.NoError(t, tl.Validate())
	assert.True(t, tl.Start().Equal(env.clk.now))
	assert.GreaterOrEqual(t, tl.TotalDuration(), schedule.DefaultCoverage)

	callsAfterBuild := env.resolver.callCount()

	// Second request within the validity window serves the cached timeline
	again, err := env.guide.ScheduleFor(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, env.resolver.callCount(), callsAfterBuild)
	require.Len(t, again, len(tl))
	assert.True(t, again.End().Equal(tl.End()))
}

func TestScheduleFor_RebuildsAfterExpiry(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	ctx := context.Background()
	ch := env.createPoolChannel(t, "features", "m90")

	first, err := env.guide.ScheduleFor(ctx, ch.ID)
	require.NoError(t, err)

	// Jump past the timeline's end; the next request starts a fresh day
	env.clk.now = first.End().Add(time.Minute)

	second, err := env.guide.ScheduleFor(ctx, ch.ID)
	require.NoError(t, err)
	assert.True(t, second.Start().Equal(env.clk.now))
	require.NoError(t, second.Validate())
}

func TestScheduleFor_UnknownChannel(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	_, err := env.guide.ScheduleFor(context.Background(), uuid.New())
	assert.ErrorIs(t, err, channel.ErrChannelNotFound)
}

func TestLivePosition_OffsetTracksClock(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	ctx := context.Background()
	ch := env.createPoolChannel(t, "features", "m90")

	// Prime the schedule, then join 25 minutes into the broadcast day
	_, err := env.guide.ScheduleFor(ctx, ch.ID)
	require.NoError(t, err)
	env.clk.now = env.clk.now.Add(25 * time.Minute)

	pos, err := env.guide.LivePosition(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, "Movie m90", pos.Item.Title)
	assert.Equal(t, int64(25*60), pos.OffsetSeconds)
}

func TestUpcoming_ReturnsSuccessorWithLeadTime(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	ctx := context.Background()
	ch := env.createPoolChannel(t, "features", "m90", "m120")

	_, err := env.guide.ScheduleFor(ctx, ch.ID)
	require.NoError(t, err)
	env.clk.now = env.clk.now.Add(80 * time.Minute)

	result, err := env.guide.Upcoming(ctx, ch.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Active)
	require.NotNil(t, result.Next)
	assert.Equal(t, "Movie m90", result.Active.Title)
	assert.Equal(t, "Movie m120", result.Next.Title)
	assert.Equal(t, 10*time.Minute, result.LeadTime)
}

func TestScheduleFor_PublishedLineupRebuildsFromLineup(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	ctx := context.Background()
	uc, err := env.lineups.Create(ctx, "profile-1", "My Day")
	require.NoError(t, err)
	_, err = env.lineups.Append(ctx, uc.ID, models.ContentRef{Kind: models.KindMovie, CatalogID: "mDay"})
	require.NoError(t, err)

	ch, err := env.lineups.Publish(ctx, uc.ID)
	require.NoError(t, err)

	// Served from the primed cache first
	tl, err := env.guide.ScheduleFor(ctx, ch.ID)
	require.NoError(t, err)
	require.Len(t, tl, 1)
	assert.Equal(t, "mDay", tl[0].CatalogID)

	// After expiry the schedule re-walks the stored lineup from now
	env.clk.now = tl.End().Add(time.Hour)

	rebuilt, err := env.guide.ScheduleFor(ctx, ch.ID)
	require.NoError(t, err)
	require.Len(t, rebuilt, 1)
	assert.True(t, rebuilt.Start().Equal(env.clk.now))

	pos, err := env.guide.LivePosition(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, "mDay", pos.Item.CatalogID)
	assert.Equal(t, int64(0), pos.OffsetSeconds)
}
