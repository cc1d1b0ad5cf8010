// Package live maps wall-clock time onto a channel timeline: which item a
// viewer joining right now should see, how far into it playback should
// seek, and when the answer changes next. The pure resolver does the
// lookup; the Ticker keeps it current with timers and survives arbitrary
// wall-clock gaps from tab suspension.
package live

import (
	"time"

	"airwave/internal/models"
	"airwave/internal/schedule"
)

// Position is the resolved live state of a channel at one instant: the
// active item and the elapsed offset into it. The offset is the initial
// playback seek position; it is what makes a channel feel live.
type Position struct {
	Item          models.ScheduledItem `json:"item"`
	OffsetSeconds int64                `json:"offset_seconds"`
	StartedAt     time.Time            `json:"started_at"`
	EndsAt        time.Time            `json:"ends_at"`
}

// Remaining returns how long until the active item ends, measured from now.
func (p *Position) Remaining(now time.Time) time.Duration {
	return p.EndsAt.Sub(now)
}

// Resolve finds the item covering now and the offset into it.
//
// Returns ErrNoSchedule for an empty timeline and ErrGap when the timeline
// exists but no item covers now (it has been exhausted and not rebuilt
// yet). Linear scan over a sorted, gapless timeline; realistic timelines
// stay well under 150 items for a day of programming.
func Resolve(tl schedule.Timeline, now time.Time) (*Position, error) {
	if len(tl) == 0 {
		return nil, ErrNoSchedule
	}

	idx := tl.At(now)
	if idx < 0 {
		return nil, ErrGap
	}

	item := tl[idx]
	return &Position{
		Item:          item,
		OffsetSeconds: int64(now.Sub(item.StartTime).Seconds()),
		StartedAt:     item.StartTime,
		EndsAt:        item.EndTime,
	}, nil
}
