package live

import (
	"context"
	"errors"
	"sync"
	"time"

	"airwave/internal/clock"
	"airwave/internal/logger"
	"airwave/internal/models"
	"airwave/internal/schedule"
	"airwave/internal/stream"
)

const (
	// DefaultGapBackoff is how long the ticker waits before re-checking an
	// exhausted timeline
	DefaultGapBackoff = 30 * time.Second

	// defaultRescheduleBuffer pads the boundary timer so the re-resolve
	// lands just inside the next item, never on the exact boundary
	defaultRescheduleBuffer = 1 * time.Second

	// streamResolveTimeout bounds the stream lookup for a new active item
	streamResolveTimeout = 10 * time.Second
)

// State is the ticker's current mode.
type State string

const (
	// StateNoSchedule means no timeline has been provided
	StateNoSchedule State = "no_schedule"

	// StateActive means an item currently covers wall-clock time
	StateActive State = "active"

	// StateGap means the timeline exists but has been exhausted; the
	// ticker is retrying on a backoff
	StateGap State = "gap"
)

// Callbacks are invoked by the ticker as the live position evolves. All
// callbacks run on their own goroutine, never under the ticker's lock.
type Callbacks struct {
	// OnActive fires when the active item changes (by start-time
	// identity). src is the freshly resolved stream, nil with streamErr
	// set when the stream resolver failed; scheduling is unaffected.
	OnActive func(pos Position, src *stream.Source, streamErr error)

	// OnUpcoming fires once per active item, when the next item's
	// announcement becomes due
	OnUpcoming func(a Announcement)

	// OnGap fires when the ticker enters the gap state
	OnGap func()
}

// Config tunes ticker timing. Zero values take defaults.
type Config struct {
	GapBackoff       time.Duration
	RescheduleBuffer time.Duration
	UpcomingLead     time.Duration
}

// Ticker keeps a channel's live position current. It resolves immediately
// on Start, then re-resolves itself at each item boundary with a one-shot
// timer rather than polling. Resume discards every timer-derived
// assumption and re-scans against the current clock, which is what makes
// the position correct after the host was suspended for an arbitrary gap.
type Ticker struct {
	clock     clock.Clock
	streams   stream.Resolver
	callbacks Callbacks

	gapBackoff       time.Duration
	rescheduleBuffer time.Duration
	upcomingLead     time.Duration

	mu            sync.Mutex
	tl            schedule.Timeline
	state         State
	current       *Position
	activeStart   time.Time
	announcedFor  time.Time
	gen           uint64
	resolveTimer  clock.Timer
	upcomingTimer clock.Timer
	stopped       bool
}

// NewTicker creates a ticker. streams may be nil when stream resolution is
// handled elsewhere; OnActive then receives a nil source.
func NewTicker(clk clock.Clock, streams stream.Resolver, cb Callbacks, cfg Config) *Ticker {
	if cfg.GapBackoff <= 0 {
		cfg.GapBackoff = DefaultGapBackoff
	}
	if cfg.RescheduleBuffer <= 0 {
		cfg.RescheduleBuffer = defaultRescheduleBuffer
	}
	if cfg.UpcomingLead <= 0 {
		cfg.UpcomingLead = DefaultUpcomingLead
	}
	return &Ticker{
		clock:            clk,
		streams:          streams,
		callbacks:        cb,
		gapBackoff:       cfg.GapBackoff,
		rescheduleBuffer: cfg.RescheduleBuffer,
		upcomingLead:     cfg.UpcomingLead,
		state:            StateNoSchedule,
	}
}

// Start installs a timeline and resolves the live position immediately.
// Calling Start again (after a rebuild or channel switch) replaces the
// timeline and cancels any pending timers from the old one.
func (t *Ticker) Start(tl schedule.Timeline) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tl = tl
	t.stopped = false
	t.gen++
	t.activeStart = time.Time{}
	t.announcedFor = time.Time{}
	t.resolveLocked()
}

// Resume re-resolves against the current clock. Call it whenever the host
// regains foreground visibility: timers may not have fired while
// backgrounded, and any elapsed-time assumption they encoded is stale.
func (t *Ticker) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}
	t.gen++
	t.resolveLocked()
}

// Stop cancels all pending timers. Safe to call on teardown, channel
// switch, or before installing a rebuilt timeline; late-firing callbacks
// from before Stop become no-ops.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	t.gen++
	t.cancelTimersLocked()
}

// State returns the ticker's current mode.
func (t *Ticker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Current returns the last resolved position, or nil outside StateActive.
func (t *Ticker) Current() *Position {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return nil
	}
	pos := *t.current
	return &pos
}

// resolveLocked runs a full scan against the current clock and arms the
// timers for whatever it finds. Caller holds t.mu.
func (t *Ticker) resolveLocked() {
	t.cancelTimersLocked()

	now := t.clock.Now()
	pos, err := Resolve(t.tl, now)

	switch {
	case errors.Is(err, ErrNoSchedule):
		t.state = StateNoSchedule
		t.current = nil
		return

	case errors.Is(err, ErrGap):
		entering := t.state != StateGap
		t.state = StateGap
		t.current = nil

		gen := t.gen
		t.resolveTimer = t.clock.AfterFunc(t.gapBackoff, func() { t.onTimerFire(gen) })

		logger.Log.Warn().
			Time("timeline_end", t.tl.End()).
			Dur("retry_in", t.gapBackoff).
			Msg("Timeline exhausted, entering gap")

		if entering && t.callbacks.OnGap != nil {
			go t.callbacks.OnGap()
		}
		return
	}

	t.state = StateActive
	t.current = pos
	gen := t.gen

	// Re-resolve just past the active item's boundary
	t.resolveTimer = t.clock.AfterFunc(pos.Remaining(now)+t.rescheduleBuffer, func() { t.onTimerFire(gen) })

	// Announce the next item once per active item, even when Resume
	// lands us back inside an item we already knew about
	if !t.announcedFor.Equal(pos.Item.StartTime) {
		if next := Next(t.tl, pos.Item); next != nil {
			due := pos.EndsAt.Add(-t.upcomingLead).Sub(now)
			if due < 0 {
				due = 0
			}
			ann := announcementFor(*next)
			start := pos.Item.StartTime
			t.upcomingTimer = t.clock.AfterFunc(due, func() { t.onUpcomingDue(gen, start, ann) })
		}
	}

	if !pos.Item.StartTime.Equal(t.activeStart) {
		t.activeStart = pos.Item.StartTime

		logger.Log.Info().
			Str("title", pos.Item.Title).
			Str("catalog_id", pos.Item.CatalogID).
			Int64("offset_seconds", pos.OffsetSeconds).
			Time("ends_at", pos.EndsAt).
			Msg("Active item changed")

		go t.notifyActive(*pos, pos.Item)
	}
}

// onTimerFire is the deferred re-resolve at an item boundary or gap retry.
func (t *Ticker) onTimerFire(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped || gen != t.gen {
		return
	}
	t.resolveLocked()
}

// onUpcomingDue emits the upcoming announcement for the given active item.
func (t *Ticker) onUpcomingDue(gen uint64, activeStart time.Time, ann Announcement) {
	t.mu.Lock()
	if t.stopped || gen != t.gen || !t.activeStart.Equal(activeStart) || t.announcedFor.Equal(activeStart) {
		t.mu.Unlock()
		return
	}
	t.announcedFor = activeStart
	cb := t.callbacks.OnUpcoming
	t.mu.Unlock()

	if cb != nil {
		cb(ann)
	}
}

// notifyActive resolves the stream for a newly active item and delivers
// the OnActive callback. Runs off the ticker goroutine.
func (t *Ticker) notifyActive(pos Position, item models.ScheduledItem) {
	var src *stream.Source
	var err error

	if t.streams != nil {
		ctx, cancel := context.WithTimeout(context.Background(), streamResolveTimeout)
		defer cancel()

		src, err = t.streams.ResolveStream(ctx, item)
		if err != nil {
			logger.Log.Warn().
				Err(err).
				Str("catalog_id", item.CatalogID).
				Str("title", item.Title).
				Msg("Stream resolution failed for active item")
		}
	}

	if t.callbacks.OnActive != nil {
		t.callbacks.OnActive(pos, src, err)
	}
}

func (t *Ticker) cancelTimersLocked() {
	if t.resolveTimer != nil {
		t.resolveTimer.Stop()
		t.resolveTimer = nil
	}
	if t.upcomingTimer != nil {
		t.upcomingTimer.Stop()
		t.upcomingTimer = nil
	}
}
