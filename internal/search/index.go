// Package search provides the cuisine-keyed search index that the
// recommendation lookup queries: a contract, a concurrency-safe in-memory
// implementation for local runs and tests, and an OpenSearch implementation.
//
// Matching is an exact term match on the stored Cuisine value. Entries are
// keyed by RestaurantID, so loading the same restaurant twice replaces it.
package search

import (
	"context"
	"sort"
	"sync"

	"github.com/tbourn/go-dining-concierge/internal/domain"
)

// Index is implemented by every search index backend.
type Index interface {
	// Search returns up to size entries whose Cuisine equals cuisine.
	Search(ctx context.Context, cuisine string, size int) ([]domain.SearchIndexEntry, error)
	// BulkUpsert stores entries keyed by RestaurantID.
	BulkUpsert(ctx context.Context, entries []domain.SearchIndexEntry) error
	// EnsureIndex creates the index with its mapping if missing and reports
	// whether it was created.
	EnsureIndex(ctx context.Context) (bool, error)
	// All lists up to limit entries.
	All(ctx context.Context, limit int) ([]domain.SearchIndexEntry, error)
}

// ----------------------------------------------------------------------------
// Options

// Option configures a Memory index.
type Option func(*Memory)

// WithEntries seeds the index.
func WithEntries(entries ...domain.SearchIndexEntry) Option {
	return func(m *Memory) {
		for _, e := range entries {
			if e.RestaurantID != "" {
				m.docs[e.RestaurantID] = e
			}
		}
	}
}

// ----------------------------------------------------------------------------
// Memory

// Memory is an in-process Index. Results are ordered by RestaurantID so
// they are deterministic.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]domain.SearchIndexEntry
}

// NewMemory returns an empty in-memory index.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{docs: map[string]domain.SearchIndexEntry{}}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Search implements Index.
func (m *Memory) Search(_ context.Context, cuisine string, size int) ([]domain.SearchIndexEntry, error) {
	if size <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.SearchIndexEntry
	for _, e := range m.docs {
		if e.Cuisine == cuisine {
			out = append(out, e)
		}
	}
	sortEntries(out)
	if len(out) > size {
		out = out[:size]
	}
	return out, nil
}

// BulkUpsert implements Index.
func (m *Memory) BulkUpsert(_ context.Context, entries []domain.SearchIndexEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		if e.RestaurantID == "" {
			continue
		}
		m.docs[e.RestaurantID] = e
	}
	return nil
}

// EnsureIndex implements Index; the memory index always exists.
func (m *Memory) EnsureIndex(context.Context) (bool, error) { return false, nil }

// All implements Index.
func (m *Memory) All(_ context.Context, limit int) ([]domain.SearchIndexEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.SearchIndexEntry, 0, len(m.docs))
	for _, e := range m.docs {
		out = append(out, e)
	}
	sortEntries(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len returns the number of entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func sortEntries(es []domain.SearchIndexEntry) {
	sort.Slice(es, func(i, j int) bool { return es[i].RestaurantID < es[j].RestaurantID })
}
