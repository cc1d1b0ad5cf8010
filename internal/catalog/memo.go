package catalog

import (
	"context"
	"fmt"
	"sync"
)

// Memo wraps a Resolver and caches results for the lifetime of the Memo
// instance. The timeline builder creates one per build call so a pool that
// repeats a work or episode (wraparound does this constantly) resolves each
// distinct key once. Failed lookups are cached too: a bad catalog id fails
// once per build, not once per wraparound cycle.
type Memo struct {
	inner Resolver

	mu      sync.Mutex
	results map[string]memoResult
}

type memoResult struct {
	meta *Metadata
	err  error
}

// NewMemo creates a memoizing decorator over the given resolver
func NewMemo(inner Resolver) *Memo {
	return &Memo{
		inner:   inner,
		results: make(map[string]memoResult),
	}
}

// ResolveMovie resolves a movie, serving repeats from the memo
func (m *Memo) ResolveMovie(ctx context.Context, catalogID string) (*Metadata, error) {
	return m.memoized("movie:"+catalogID, func() (*Metadata, error) {
		return m.inner.ResolveMovie(ctx, catalogID)
	})
}

// ResolveEpisode resolves an episode, serving repeats from the memo
func (m *Memo) ResolveEpisode(ctx context.Context, catalogID string, season, episode int) (*Metadata, error) {
	key := fmt.Sprintf("episode:%s/s%02de%02d", catalogID, season, episode)
	return m.memoized(key, func() (*Metadata, error) {
		return m.inner.ResolveEpisode(ctx, catalogID, season, episode)
	})
}

// ResolveShow resolves show-level metadata, serving repeats from the memo
func (m *Memo) ResolveShow(ctx context.Context, catalogID string) (*Metadata, error) {
	return m.memoized("show:"+catalogID, func() (*Metadata, error) {
		return m.inner.ResolveShow(ctx, catalogID)
	})
}

func (m *Memo) memoized(key string, resolve func() (*Metadata, error)) (*Metadata, error) {
	m.mu.Lock()
	if cached, ok := m.results[key]; ok {
		m.mu.Unlock()
		return cached.meta, cached.err
	}
	m.mu.Unlock()

	meta, err := resolve()

	m.mu.Lock()
	m.results[key] = memoResult{meta: meta, err: err}
	m.mu.Unlock()

	return meta, err
}
