package live

import "errors"

var (
	// ErrNoSchedule is returned when position resolution is attempted
	// with no timeline at all
	ErrNoSchedule = errors.New("no schedule available")

	// ErrGap is returned when wall-clock time falls outside every item in
	// the timeline: the schedule has run out and not yet been rebuilt.
	// Transient; callers retry with backoff rather than failing.
	ErrGap = errors.New("no item scheduled for the current time")
)

// IsGap checks if the error is a scheduling gap
func IsGap(err error) bool {
	return errors.Is(err, ErrGap)
}
