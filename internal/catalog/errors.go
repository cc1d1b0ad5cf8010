package catalog

import "errors"

var (
	// ErrNotFound is returned when the catalog has no record for the
	// requested id (or id + season + episode)
	ErrNotFound = errors.New("catalog entry not found")
)

// IsNotFound checks if the error is a catalog not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
