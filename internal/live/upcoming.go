package live

import (
	"time"

	"airwave/internal/models"
	"airwave/internal/schedule"
)

// DefaultUpcomingLead is how long before the active item ends the
// upcoming-item announcement becomes due.
const DefaultUpcomingLead = 30 * time.Second

// Next returns the item immediately following the active one in the
// timeline, by position rather than time lookup, or nil when the active
// item is the last. The active item is located by the identity of its
// start time since a rebuild may reorder or replace items.
func Next(tl schedule.Timeline, active models.ScheduledItem) *models.ScheduledItem {
	idx := tl.IndexOf(active.StartTime)
	if idx < 0 || idx+1 >= len(tl) {
		return nil
	}
	next := tl[idx+1]
	return &next
}

// Announcement is what the UI shows when an upcoming item is announced.
type Announcement struct {
	Title      string    `json:"title"`
	ArtworkRef string    `json:"artwork_ref,omitempty"`
	StartsAt   time.Time `json:"starts_at"`
}

// announcementFor builds the transient on-screen payload for an item.
func announcementFor(item models.ScheduledItem) Announcement {
	return Announcement{
		Title:      item.Title,
		ArtworkRef: item.ArtworkRef,
		StartsAt:   item.StartTime,
	}
}
