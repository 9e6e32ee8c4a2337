package services

import (
	"sort"

	"github.com/trailstone/osgraph/internal/core/ports/driven"
)

// Registry holds the locally available connectors keyed by searcher id.
// It is populated once at startup and read-only afterwards.
type Registry struct {
	searchers map[string]driven.Searcher
}

// NewRegistry creates a registry over the given connectors.
func NewRegistry(searchers ...driven.Searcher) *Registry {
	r := &Registry{searchers: make(map[string]driven.Searcher, len(searchers))}
	for _, s := range searchers {
		r.searchers[s.ID()] = s
	}
	return r
}

// Lookup returns the connector registered under id.
func (r *Registry) Lookup(id string) (driven.Searcher, bool) {
	s, ok := r.searchers[id]
	return s, ok
}

// IDs returns the registered searcher ids, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.searchers))
	for id := range r.searchers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
