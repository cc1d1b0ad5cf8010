// Package catalog defines the metadata resolution boundary: turning a
// content reference (movie id, or show id + season + episode) into the
// duration and display fields the scheduler needs. The scheduler consumes
// the Resolver interface only; the HTTP client and memoizing decorator are
// provided implementations.
package catalog

import "context"

// Metadata is the fixed-shape record a resolution returns.
// DurationSeconds == 0 means the catalog reports no runtime; the scheduler
// applies its own fallback policy in that case.
type Metadata struct {
	Title           string `json:"title"`
	DurationSeconds int64  `json:"duration_seconds"`
	ArtworkRef      string `json:"artwork_ref,omitempty"`
}

// Resolver resolves content references against the metadata catalog.
type Resolver interface {
	// ResolveMovie resolves a movie by catalog id
	ResolveMovie(ctx context.Context, catalogID string) (*Metadata, error)

	// ResolveEpisode resolves a single episode of a show
	ResolveEpisode(ctx context.Context, catalogID string, season, episode int) (*Metadata, error)

	// ResolveShow resolves show-level metadata, used for the artwork
	// fallback when an episode carries no art of its own
	ResolveShow(ctx context.Context, catalogID string) (*Metadata, error)
}
