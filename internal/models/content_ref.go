package models

import "fmt"

// ContentKind discriminates pool entries and scheduled items.
type ContentKind string

const (
	// KindMovie is a standalone feature resolved by catalog id alone
	KindMovie ContentKind = "movie"

	// KindShow is an episodic work resolved by catalog id + season + episode
	KindShow ContentKind = "show"

	// KindAd is reserved for future ad insertion; no builder populates it yet
	KindAd ContentKind = "ad"
)

// ContentRef describes one entry in a channel's content pool. It is an
// immutable input descriptor: the scheduler never mutates a pool, it only
// reads it cyclically.
type ContentRef struct {
	Kind      ContentKind `json:"kind"`
	CatalogID string      `json:"catalog_id"`

	// Season and Episode are only meaningful when Kind == KindShow
	Season  int `json:"season,omitempty"`
	Episode int `json:"episode,omitempty"`
}

// Key returns a stable identity for resolver memoization within a build.
// Movies collapse to their catalog id, episodes to id+SxxExx.
func (r ContentRef) Key() string {
	if r.Kind == KindShow {
		return fmt.Sprintf("%s/s%02de%02d", r.CatalogID, r.Season, r.Episode)
	}
	return r.CatalogID
}
