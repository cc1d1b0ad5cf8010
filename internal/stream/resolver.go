// Package stream defines the stream resolution boundary: turning the
// currently active scheduled item into a playable URL. Failures here mean
// "stream unavailable" for the item; they never invalidate the timeline.
package stream

import (
	"context"
	"errors"

	"airwave/internal/models"
)

// ErrStreamUnavailable is returned when no playable URL can be produced for
// an item. Surfaced to the UI as an availability flag, non-fatal to
// scheduling.
var ErrStreamUnavailable = errors.New("stream unavailable")

// Source is a resolved, playable stream for one scheduled item.
type Source struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type,omitempty"`
}

// Resolver produces playable sources for scheduled items.
type Resolver interface {
	ResolveStream(ctx context.Context, item models.ScheduledItem) (*Source, error)
}

// IsUnavailable checks if the error is a stream unavailable error
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrStreamUnavailable)
}
