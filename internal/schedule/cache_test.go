package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airwave/internal/db"
	"airwave/internal/models"
)

// memStore is an in-memory EntryStore for cache tests.
type memStore struct {
	entries map[string]*models.ScheduleEntry
	readErr error
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]*models.ScheduleEntry)}
}

func (s *memStore) GetByKey(ctx context.Context, key string) (*models.ScheduleEntry, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	entry, ok := s.entries[key]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *entry
	return &copied, nil
}

func (s *memStore) Upsert(ctx context.Context, entry *models.ScheduleEntry) error {
	copied := *entry
	s.entries[entry.Key] = &copied
	return nil
}

func (s *memStore) DeleteByChannel(ctx context.Context, channelID uuid.UUID) error {
	for key, entry := range s.entries {
		if entry.ChannelID == channelID {
			delete(s.entries, key)
		}
	}
	return nil
}

// testTimeline builds a small contiguous timeline starting at start.
func testTimeline(start time.Time, itemMinutes ...int) Timeline {
	var tl Timeline
	cursor := start
	for i, minutes := range itemMinutes {
		item := models.ScheduledItem{
			Kind:            models.KindMovie,
			CatalogID:       uuid.NewString(),
			Title:           "Item " + string(rune('A'+i)),
			DurationSeconds: int64(minutes) * 60,
			StartTime:       cursor,
			EndTime:         cursor.Add(time.Duration(minutes) * time.Minute),
		}
		tl = append(tl, item)
		cursor = item.EndTime
	}
	return tl
}

// countingBuild wraps a timeline in a BuildFunc that counts invocations.
func countingBuild(tl Timeline, err error) (BuildFunc, *int) {
	count := new(int)
	return func(ctx context.Context) (Timeline, error) {
		*count++
		return tl, err
	}, count
}

func TestGetOrBuild_MissBuildsAndPersists(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	cache := NewCache(store, &fakeClock{now: now})

	channelID := uuid.New()
	want := testTimeline(now, 30, 30)
	build, count := countingBuild(want, nil)

	got, err := cache.GetOrBuild(context.Background(), channelID, build)

	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, *count)

	// Persisted with expiry equal to the timeline's own end
	entry, ok := store.entries[CacheKey(channelID)]
	require.True(t, ok)
	assert.True(t, entry.ExpiresAt.Equal(want.End()))
	assert.Equal(t, channelID, entry.ChannelID)
}

func TestGetOrBuild_ServesValidEntryWithoutRebuilding(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	cache := NewCache(store, &fakeClock{now: now})

	channelID := uuid.New()
	cached := testTimeline(now, 30, 30)
	require.NoError(t, cache.Put(context.Background(), channelID, cached))

	build, count := countingBuild(nil, errors.New("must not be called"))
	got, err := cache.GetOrBuild(context.Background(), channelID, build)

	require.NoError(t, err)
	assert.Equal(t, 0, *count)
	require.Len(t, got, 2)
	assert.True(t, got.End().Equal(cached.End()))
}

func TestGetOrBuild_IdenticalWithinValidityWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	cache := NewCache(store, &fakeClock{now: now})

	channelID := uuid.New()
	build, count := countingBuild(testTimeline(now, 45, 45), nil)

	first, err := cache.GetOrBuild(context.Background(), channelID, build)
	require.NoError(t, err)
	second, err := cache.GetOrBuild(context.Background(), channelID, build)
	require.NoError(t, err)

	assert.Equal(t, 1, *count)
	require.Len(t, second, len(first))
	for i := range first {
		assert.True(t, first[i].StartTime.Equal(second[i].StartTime))
		assert.Equal(t, first[i].CatalogID, second[i].CatalogID)
	}
}

func TestGetOrBuild_ExpiredEntryRebuilds(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := &fakeClock{now: start}
	store := newMemStore()
	cache := NewCache(store, clk)

	channelID := uuid.New()
	old := testTimeline(start, 30)
	require.NoError(t, cache.Put(context.Background(), channelID, old))

	// Jump past the cached timeline's end
	clk.now = old.End().Add(time.Minute)

	fresh := testTimeline(clk.now, 30, 30)
	build, count := countingBuild(fresh, nil)

	got, err := cache.GetOrBuild(context.Background(), channelID, build)

	require.NoError(t, err)
	assert.Equal(t, 1, *count)
	assert.Equal(t, fresh, got)

	entry := store.entries[CacheKey(channelID)]
	assert.True(t, entry.ExpiresAt.Equal(fresh.End()))
}

func TestGetOrBuild_CorruptEntryRebuilds(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	cache := NewCache(store, &fakeClock{now: now})

	channelID := uuid.New()
	store.entries[CacheKey(channelID)] = &models.ScheduleEntry{
		Key:          CacheKey(channelID),
		ChannelID:    channelID,
		ExpiresAt:    now.Add(time.Hour),
		TimelineJSON: "{not json",
	}

	fresh := testTimeline(now, 60)
	build, count := countingBuild(fresh, nil)

	got, err := cache.GetOrBuild(context.Background(), channelID, build)

	require.NoError(t, err)
	assert.Equal(t, 1, *count)
	assert.Equal(t, fresh, got)
}

func TestGetOrBuild_ReadFailureDegradesToRebuild(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.readErr = errors.New("disk unhappy")
	cache := NewCache(store, &fakeClock{now: now})

	fresh := testTimeline(now, 60)
	build, count := countingBuild(fresh, nil)

	got, err := cache.GetOrBuild(context.Background(), uuid.New(), build)

	require.NoError(t, err)
	assert.Equal(t, 1, *count)
	assert.Equal(t, fresh, got)
}

func TestGetOrBuild_BuildFailurePropagates(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCache(newMemStore(), &fakeClock{now: now})

	build, _ := countingBuild(nil, ErrNothingResolvable)
	tl, err := cache.GetOrBuild(context.Background(), uuid.New(), build)

	assert.Nil(t, tl)
	assert.ErrorIs(t, err, ErrNothingResolvable)
}

func TestInvalidate_ForcesRebuild(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	cache := NewCache(store, &fakeClock{now: now})

	channelID := uuid.New()
	require.NoError(t, cache.Put(context.Background(), channelID, testTimeline(now, 30)))
	require.NoError(t, cache.Invalidate(context.Background(), channelID))

	fresh := testTimeline(now, 45)
	build, count := countingBuild(fresh, nil)

	got, err := cache.GetOrBuild(context.Background(), channelID, build)

	require.NoError(t, err)
	assert.Equal(t, 1, *count)
	assert.Equal(t, fresh, got)
}

func TestPut_RejectsEmptyTimeline(t *testing.T) {
	cache := NewCache(newMemStore(), &fakeClock{now: time.Now().UTC()})

	err := cache.Put(context.Background(), uuid.New(), nil)

	assert.ErrorIs(t, err, ErrEmptyTimeline)
}

func TestCacheKey_Versioned(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, "v1:"+id.String(), CacheKey(id))
}
