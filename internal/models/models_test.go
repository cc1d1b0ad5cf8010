package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentRef_Key(t *testing.T) {
	movie := ContentRef{Kind: KindMovie, CatalogID: "603"}
	assert.Equal(t, "603", movie.Key())

	episode := ContentRef{Kind: KindShow, CatalogID: "1396", Season: 2, Episode: 3}
	assert.Equal(t, "1396/s02e03", episode.Key())
}

func TestScheduledItem_Covers(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	item := ScheduledItem{
		DurationSeconds: 1800,
		StartTime:       start,
		EndTime:         start.Add(30 * time.Minute),
	}

	assert.True(t, item.Covers(start))
	assert.True(t, item.Covers(start.Add(29*time.Minute)))

	// End is exclusive so the boundary belongs to the next item
	assert.False(t, item.Covers(item.EndTime))
	assert.False(t, item.Covers(start.Add(-time.Second)))
}

func TestScheduledItem_Ref(t *testing.T) {
	item := ScheduledItem{
		Kind:      KindShow,
		CatalogID: "1396",
		Season:    1,
		Episode:   4,
	}

	ref := item.Ref()
	assert.Equal(t, KindShow, ref.Kind)
	assert.Equal(t, "1396/s01e04", ref.Key())
}

func TestChannel_PoolRoundTrip(t *testing.T) {
	ch := NewChannel("features", "Features", true)

	pool := []ContentRef{
		{Kind: KindMovie, CatalogID: "603"},
		{Kind: KindShow, CatalogID: "1396", Season: 1, Episode: 1},
	}
	require.NoError(t, ch.SetPool(pool))

	got, err := ch.Pool()
	require.NoError(t, err)
	assert.Equal(t, pool, got)
}

func TestChannel_EmptyPool(t *testing.T) {
	ch := NewChannel("bare", "Bare", false)

	got, err := ch.Pool()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestChannel_CorruptPool(t *testing.T) {
	ch := NewChannel("broken", "Broken", false)
	ch.PoolJSON = "{nope"

	_, err := ch.Pool()
	assert.Error(t, err)
}

func TestScheduleEntry_Valid(t *testing.T) {
	expires := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	entry := &ScheduleEntry{ExpiresAt: expires}

	assert.True(t, entry.Valid(expires.Add(-time.Second)))

	// Expiry instant itself is no longer servable
	assert.False(t, entry.Valid(expires))
	assert.False(t, entry.Valid(expires.Add(time.Second)))
}

func TestUserChannel_LineupRoundTrip(t *testing.T) {
	uc := NewUserChannel("profile-1", "Weekend")

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	items := []ScheduledItem{
		{
			Kind:            KindMovie,
			CatalogID:       "603",
			Title:           "The Matrix",
			DurationSeconds: 8160,
			StartTime:       start,
			EndTime:         start.Add(8160 * time.Second),
		},
	}
	require.NoError(t, uc.SetLineup(items))

	got, err := uc.Lineup()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "The Matrix", got[0].Title)
	assert.True(t, got[0].StartTime.Equal(start))
}

func TestNewUserChannel_EmptyLineup(t *testing.T) {
	uc := NewUserChannel("profile-1", "Fresh")

	items, err := uc.Lineup()
	require.NoError(t, err)
	assert.Empty(t, items)
}
