package models

import (
	"fmt"
	"time"
)

// ScheduledItem is one slot in a channel timeline: a movie or episode with
// absolute start and end times. Items are value types serialized as JSON
// inside a cache entry row; they are not a gorm table of their own.
type ScheduledItem struct {
	Kind      ContentKind `json:"kind"`
	CatalogID string      `json:"catalog_id"`

	// Title is the display title: the movie title, or "Show - Episode" for shows
	Title string `json:"title"`

	// ShowName, Season, Episode are populated for show items only
	ShowName string `json:"show_name,omitempty"`
	Season   int    `json:"season,omitempty"`
	Episode  int    `json:"episode,omitempty"`

	// ArtworkRef falls back to the parent work's artwork when the episode
	// carries none
	ArtworkRef string `json:"artwork_ref,omitempty"`

	DurationSeconds int64     `json:"duration_seconds"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
}

// Ref reconstructs the content reference this item was scheduled from.
func (s ScheduledItem) Ref() ContentRef {
	return ContentRef{
		Kind:      s.Kind,
		CatalogID: s.CatalogID,
		Season:    s.Season,
		Episode:   s.Episode,
	}
}

// Duration returns the item's runtime as a time.Duration.
func (s ScheduledItem) Duration() time.Duration {
	return time.Duration(s.DurationSeconds) * time.Second
}

// Covers reports whether t falls within [StartTime, EndTime).
func (s ScheduledItem) Covers(t time.Time) bool {
	return !t.Before(s.StartTime) && t.Before(s.EndTime)
}

// DurationString returns the runtime in HH:MM:SS format for display.
func (s ScheduledItem) DurationString() string {
	hours := s.DurationSeconds / 3600
	minutes := (s.DurationSeconds % 3600) / 60
	seconds := s.DurationSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
