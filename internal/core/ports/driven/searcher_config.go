package driven

import "github.com/trailstone/osgraph/internal/core/domain"

// SearcherConfigStore provides the per-searcher enable/redirect
// configuration. Implementations may reload the backing file at runtime;
// reads always see a consistent snapshot.
type SearcherConfigStore interface {
	// Lookup returns the configuration for a searcher id.
	Lookup(id string) (domain.SearcherConfig, bool)

	// Enabled returns the catalogue descriptors of all enabled searchers,
	// ordered by id for stable output.
	Enabled() []domain.Searcher
}
