package live

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airwave/internal/models"
	"airwave/internal/schedule"
)

// mkTimeline builds a contiguous timeline from item durations in minutes.
func mkTimeline(start time.Time, itemMinutes ...int) schedule.Timeline {
	var tl schedule.Timeline
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

func TestResolve_EmptyTimeline(t *testing.T) {
	pos, err := Resolve(nil, time.Now().UTC())

	assert.Nil(t, pos)
	assert.ErrorIs(t, err, ErrNoSchedule)
}

func TestResolve_OffsetWithinItem(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tl := mkTimeline(start, 30, 30)

	pos, err := Resolve(tl, start.Add(40*time.Minute))

	require.NoError(t, err)
	assert.Equal(t, "Item B", pos.Item.Title)
	assert.Equal(t, int64(10*60), pos.OffsetSeconds)
	assert.True(t, pos.StartedAt.Equal(tl[1].StartTime))
	assert.True(t, pos.EndsAt.Equal(tl[1].EndTime))
}

func TestResolve_StableWithinSameItem(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tl := mkTimeline(start, 30, 30)

	first, err := Resolve(tl, start.Add(5*time.Minute))
	require.NoError(t, err)
	second, err := Resolve(tl, start.Add(5*time.Minute).Add(300*time.Millisecond))
	require.NoError(t, err)

	assert.Equal(t, first.Item.CatalogID, second.Item.CatalogID)
	assert.True(t, first.StartedAt.Equal(second.StartedAt))
}

func TestResolve_BoundaryInstantBelongsToNextItem(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tl := mkTimeline(start, 30, 30)

	pos, err := Resolve(tl, tl[0].EndTime)

	require.NoError(t, err)
	assert.Equal(t, "Item B", pos.Item.Title)
	assert.Equal(t, int64(0), pos.OffsetSeconds)
}

func TestResolve_GapAfterTimelineEnd(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tl := mkTimeline(start, 30)

	pos, err := Resolve(tl, tl.End())

	assert.Nil(t, pos)
	assert.ErrorIs(t, err, ErrGap)
	assert.True(t, IsGap(err))
}

func TestResolve_BeforeTimelineStart(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tl := mkTimeline(start, 30)

	pos, err := Resolve(tl, start.Add(-time.Second))

	assert.Nil(t, pos)
	assert.ErrorIs(t, err, ErrGap)
}

func TestPosition_Remaining(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tl := mkTimeline(start, 30)

	pos, err := Resolve(tl, start.Add(10*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, 20*time.Minute, pos.Remaining(start.Add(10*time.Minute)))
}

func TestNext_MiddleOfTimeline(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tl := mkTimeline(start, 10, 20, 30)

	next := Next(tl, tl[1])

	require.NotNil(t, next)
	assert.Equal(t, "Item C", next.Title)
}

func TestNext_LastItemHasNoSuccessor(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tl := mkTimeline(start, 10, 20)

	assert.Nil(t, Next(tl, tl[1]))
}

func TestNext_UnknownItem(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tl := mkTimeline(start, 10)

	stranger := models.ScheduledItem{StartTime: start.Add(5 * time.Minute)}
	assert.Nil(t, Next(tl, stranger))
}
