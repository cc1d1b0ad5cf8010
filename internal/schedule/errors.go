package schedule

import "errors"

var (
	// ErrEmptyPool is returned when a build is requested for a channel
	// whose content pool has no entries. Building from nothing would loop
	// forever, so this is an explicit error rather than an empty timeline.
	ErrEmptyPool = errors.New("content pool is empty")

	// ErrNothingResolvable is returned when every entry in the pool failed
	// catalog resolution, leaving nothing to schedule
	ErrNothingResolvable = errors.New("no pool entry could be resolved")

	// ErrEmptyTimeline is returned when a timeline with no items reaches a
	// consumer that requires at least one
	ErrEmptyTimeline = errors.New("timeline is empty")

	// ErrNotContiguous is returned by Validate when a timeline violates
	// the gapless invariant
	ErrNotContiguous = errors.New("timeline items are not contiguous")
)

// IsEmptyPool checks if the error is an empty pool error
func IsEmptyPool(err error) bool {
	return errors.Is(err, ErrEmptyPool)
}

// IsNothingResolvable checks if the error is a nothing resolvable error
func IsNothingResolvable(err error) bool {
	return errors.Is(err, ErrNothingResolvable)
}
