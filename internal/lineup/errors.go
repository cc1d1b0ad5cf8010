package lineup

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrLineupNotFound indicates the requested user channel does not exist
	ErrLineupNotFound = errors.New("lineup not found")

	// ErrIndexOutOfRange indicates a remove targeted an index outside the lineup
	ErrIndexOutOfRange = errors.New("lineup index out of range")

	// ErrAlreadyPublished indicates the lineup has already been promoted
	// into a live channel
	ErrAlreadyPublished = errors.New("lineup already published")
)

// InsufficientDurationError is returned when a lineup below the publish
// threshold is submitted for publication. It carries the shortfall so the
// UI can display how much more content is needed.
type InsufficientDurationError struct {
	Shortfall time.Duration
}

func (e *InsufficientDurationError) Error() string {
	return fmt.Sprintf("lineup is %s short of the %s publish threshold", e.Shortfall, PublishThreshold)
}

// AsInsufficientDuration extracts an InsufficientDurationError if present
func AsInsufficientDuration(err error) (*InsufficientDurationError, bool) {
	var ide *InsufficientDurationError
	if errors.As(err, &ide) {
		return ide, true
	}
	return nil, false
}

// IsLineupNotFound checks if the error is a lineup not found error
func IsLineupNotFound(err error) bool {
	return errors.Is(err, ErrLineupNotFound)
}

// IsIndexOutOfRange checks if the error is an index out of range error
func IsIndexOutOfRange(err error) bool {
	return errors.Is(err, ErrIndexOutOfRange)
}
