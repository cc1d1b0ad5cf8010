package live

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airwave/internal/clock"
	"airwave/internal/stream"
)

// fakeClock is a manually advanced clock. Advance fires due timers in
// deadline order; Set jumps time without firing anything, which is how a
// suspended host looks to the ticker.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clk      *fakeClock
	deadline time.Time
	fn       func()
	stopped  bool
	fired    bool
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer := &fakeTimer{clk: c, deadline: c.now.Add(d), fn: f}
	c.timers = append(c.timers, timer)
	return timer
}

func (t *fakeTimer) Stop() bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward, firing each due timer at its own deadline.
// Callbacks run without the clock lock held so they may arm new timers.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		timer := c.nextDue(target)
		if timer == nil {
			break
		}
		timer.fn()
	}

	c.mu.Lock()
	if c.now.Before(target) {
		c.now = target
	}
	c.mu.Unlock()
}

// Set jumps the clock without firing timers.
func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) nextDue(target time.Time) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	pending := make([]*fakeTimer, 0, len(c.timers))
	for _, timer := range c.timers {
		if !timer.stopped && !timer.fired && !timer.deadline.After(target) {
			pending = append(pending, timer)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].deadline.Before(pending[j].deadline) })

	due := pending[0]
	due.fired = true
	if c.now.Before(due.deadline) {
		c.now = due.deadline
	}
	return due
}

var _ clock.Clock = (*fakeClock)(nil)

// tickerHarness collects ticker callbacks on channels for assertion.
type tickerHarness struct {
	clk      *fakeClock
	ticker   *Ticker
	active   chan Position
	upcoming chan Announcement
	gaps     chan struct{}
}

func newTickerHarness(t *testing.T, now time.Time, cfg Config) *tickerHarness {
	t.Helper()

	h := &tickerHarness{
		clk:      newFakeClock(now),
		active:   make(chan Position, 16),
		upcoming: make(chan Announcement, 16),
		gaps:     make(chan struct{}, 16),
	}
	h.ticker = NewTicker(h.clk, nil, Callbacks{
		OnActive:   func(pos Position, _ *stream.Source, _ error) { h.active <- pos },
		OnUpcoming: func(a Announcement) { h.upcoming <- a },
		OnGap:      func() { h.gaps <- struct{}{} },
	}, cfg)
	return h
}

func (h *tickerHarness) waitActive(t *testing.T) Position {
	t.Helper()
	select {
	case pos := <-h.active:
		return pos
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnActive")
		return Position{}
	}
}

func (h *tickerHarness) waitUpcoming(t *testing.T) Announcement {
	t.Helper()
	select {
	case a := <-h.upcoming:
		return a
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnUpcoming")
		return Announcement{}
	}
}

func (h *tickerHarness) waitGap(t *testing.T) {
	t.Helper()
	select {
	case <-h.gaps:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnGap")
	}
}

func (h *tickerHarness) assertNoUpcoming(t *testing.T) {
	t.Helper()
	select {
	case a := <-h.upcoming:
		t.Fatalf("unexpected announcement for %q", a.Title)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTicker_StartResolvesImmediately(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newTickerHarness(t, base.Add(10*time.Minute), Config{})
	tl := mkTimeline(base, 30, 30)

	h.ticker.Start(tl)

	assert.Equal(t, StateActive, h.ticker.State())

	pos := h.waitActive(t)
	assert.Equal(t, "Item A", pos.Item.Title)
	assert.Equal(t, int64(10*60), pos.OffsetSeconds)

	current := h.ticker.Current()
	require.NotNil(t, current)
	assert.Equal(t, "Item A", current.Item.Title)
}

func TestTicker_AdvancesAtItemBoundary(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newTickerHarness(t, base, Config{})
	tl := mkTimeline(base, 30, 30)

	h.ticker.Start(tl)
	first := h.waitActive(t)
	assert.Equal(t, "Item A", first.Item.Title)

	// The boundary timer lands one second inside the next item
	h.clk.Advance(30*time.Minute + 2*time.Second)

	second := h.waitActive(t)
	assert.Equal(t, "Item B", second.Item.Title)
	assert.Equal(t, int64(1), second.OffsetSeconds)
	assert.Equal(t, StateActive, h.ticker.State())
}

func TestTicker_UpcomingAnnouncedBeforeBoundary(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newTickerHarness(t, base, Config{})
	tl := mkTimeline(base, 30, 30)

	h.ticker.Start(tl)
	h.waitActive(t)

	// Announcement is due 30 seconds before Item A ends
	h.clk.Advance(29*time.Minute + 31*time.Second)

	ann := h.waitUpcoming(t)
	assert.Equal(t, "Item B", ann.Title)
	assert.True(t, ann.StartsAt.Equal(tl[1].StartTime))
}

func TestTicker_AnnouncesOncePerItem(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newTickerHarness(t, base, Config{})
	tl := mkTimeline(base, 30, 30)

	h.ticker.Start(tl)
	h.waitActive(t)

	h.clk.Advance(29*time.Minute + 31*time.Second)
	h.waitUpcoming(t)

	// A resume inside the same item must not re-announce
	h.ticker.Resume()
	h.clk.Advance(10 * time.Second)
	h.assertNoUpcoming(t)
}

func TestTicker_NoAnnouncementForLastItem(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newTickerHarness(t, base, Config{})
	tl := mkTimeline(base, 30)

	h.ticker.Start(tl)
	h.waitActive(t)

	h.clk.Advance(29*time.Minute + 45*time.Second)
	h.assertNoUpcoming(t)
}

func TestTicker_GapAfterTimelineExhaustion(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newTickerHarness(t, base, Config{GapBackoff: 30 * time.Second})
	tl := mkTimeline(base, 10)

	h.ticker.Start(tl)
	h.waitActive(t)

	h.clk.Advance(10*time.Minute + 2*time.Second)

	h.waitGap(t)
	assert.Equal(t, StateGap, h.ticker.State())
	assert.Nil(t, h.ticker.Current())

	// The gap retry keeps the ticker in gap while the timeline stays stale
	h.clk.Advance(time.Minute)
	assert.Equal(t, StateGap, h.ticker.State())
}

func TestTicker_RecoversFromGapWithFreshTimeline(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newTickerHarness(t, base, Config{})
	tl := mkTimeline(base, 10)

	h.ticker.Start(tl)
	h.waitActive(t)

	h.clk.Advance(10*time.Minute + 2*time.Second)
	h.waitGap(t)

	// A rebuild hands the ticker a new timeline starting at current time
	fresh := mkTimeline(h.clk.Now(), 30, 30)
	h.ticker.Start(fresh)

	assert.Equal(t, StateActive, h.ticker.State())
	pos := h.waitActive(t)
	assert.Equal(t, fresh[0].CatalogID, pos.Item.CatalogID)
}

func TestTicker_ResumeAfterSuspension(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newTickerHarness(t, base, Config{})
	tl := mkTimeline(base, 30, 30, 30)

	h.ticker.Start(tl)
	h.waitActive(t)

	// Host suspends: the clock jumps mid Item C with no timers firing
	h.clk.Set(base.Add(75 * time.Minute))
	h.ticker.Resume()

	pos := h.waitActive(t)
	assert.Equal(t, "Item C", pos.Item.Title)
	assert.Equal(t, int64(15*60), pos.OffsetSeconds)
	assert.Equal(t, StateActive, h.ticker.State())
}

func TestTicker_ResumePastTimelineEndEntersGap(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newTickerHarness(t, base, Config{})
	tl := mkTimeline(base, 30)

	h.ticker.Start(tl)
	h.waitActive(t)

	h.clk.Set(base.Add(2 * time.Hour))
	h.ticker.Resume()

	h.waitGap(t)
	assert.Equal(t, StateGap, h.ticker.State())
}

func TestTicker_StopSilencesPendingTimers(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newTickerHarness(t, base, Config{})
	tl := mkTimeline(base, 30, 30)

	h.ticker.Start(tl)
	h.waitActive(t)

	h.ticker.Stop()
	h.clk.Advance(2 * time.Hour)

	h.assertNoUpcoming(t)
	select {
	case pos := <-h.active:
		t.Fatalf("unexpected OnActive for %q after Stop", pos.Item.Title)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTicker_StartWithEmptyTimeline(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newTickerHarness(t, base, Config{})

	h.ticker.Start(nil)

	assert.Equal(t, StateNoSchedule, h.ticker.State())
	assert.Nil(t, h.ticker.Current())
}
