package channel

import "errors"

// Custom channel service errors
var (
	// ErrDuplicateSlug indicates a channel with the same slug already exists
	ErrDuplicateSlug = errors.New("channel slug already exists")

	// ErrChannelNotFound indicates the requested channel does not exist
	ErrChannelNotFound = errors.New("channel not found")

	// ErrEmptyPool indicates the channel has no content pool to schedule from
	ErrEmptyPool = errors.New("channel content pool is empty")
)

// IsDuplicateSlug checks if the error is a duplicate slug error
func IsDuplicateSlug(err error) bool {
	return errors.Is(err, ErrDuplicateSlug)
}

// IsChannelNotFound checks if the error is a channel not found error
func IsChannelNotFound(err error) bool {
	return errors.Is(err, ErrChannelNotFound)
}
