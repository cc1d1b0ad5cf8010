// Package schedule turns a channel's content pool into a gapless,
// time-addressable broadcast timeline covering at least a full day, and
// caches built timelines until their own end time so every reload within
// the validity window sees the same schedule.
package schedule

import (
	"fmt"
	"time"

	"airwave/internal/models"
)

// Timeline is an ordered, gapless sequence of scheduled items for one
// channel. Item N+1 starts exactly when item N ends; that contiguity is the
// core contract every producer must preserve.
type Timeline []models.ScheduledItem

// TotalDuration returns the summed runtime of all items.
func (t Timeline) TotalDuration() time.Duration {
	var total int64
	for _, item := range t {
		total += item.DurationSeconds
	}
	return time.Duration(total) * time.Second
}

// Start returns the first item's start time, or zero for an empty timeline.
func (t Timeline) Start() time.Time {
	if len(t) == 0 {
		return time.Time{}
	}
	return t[0].StartTime
}

// End returns the last item's end time, or zero for an empty timeline.
// A timeline is superseded once wall-clock time passes this instant.
func (t Timeline) End() time.Time {
	if len(t) == 0 {
		return time.Time{}
	}
	return t[len(t)-1].EndTime
}

// At returns the index of the item covering the given instant, or -1 when
// no item does. Linear scan; a day of ~20-minute items is well under 150
// entries so binary search buys nothing here.
func (t Timeline) At(now time.Time) int {
	for i, item := range t {
		if item.Covers(now) {
			return i
		}
	}
	return -1
}

// IndexOf locates an item by the identity of its start time. Rebuilds may
// reorder or replace items, so consumers track the active item this way
// rather than by slice index.
func (t Timeline) IndexOf(startTime time.Time) int {
	for i, item := range t {
		if item.StartTime.Equal(startTime) {
			return i
		}
	}
	return -1
}

// Validate checks the structural invariants: positive durations, end ==
// start + duration per item, and contiguity between neighbours.
func (t Timeline) Validate() error {
	for i, item := range t {
		if item.DurationSeconds <= 0 {
			return fmt.Errorf("item %d has non-positive duration %d: %w", i, item.DurationSeconds, ErrNotContiguous)
		}
		wantEnd := item.StartTime.Add(item.Duration())
		if !item.EndTime.Equal(wantEnd) {
			return fmt.Errorf("item %d end time does not match start + duration: %w", i, ErrNotContiguous)
		}
		if i > 0 && !item.StartTime.Equal(t[i-1].EndTime) {
			return fmt.Errorf("item %d does not start when item %d ends: %w", i, i-1, ErrNotContiguous)
		}
	}
	return nil
}
