package driven

import (
	"context"

	"github.com/trailstone/osgraph/internal/core/domain"
)

// Searcher is a source connector: a pure query-to-response function from the
// dispatcher's point of view. Implementations own their network I/O and must
// never fail with a panic or unhandled fault; every failure path resolves to
// a SearchResponse carrying errors.
type Searcher interface {
	// ID returns the searcher identifier used for dispatch.
	ID() string

	// Search runs the query against the source and returns at most
	// maxResults results. The context carries cancellation; individual
	// upstream calls apply their own timeouts.
	Search(ctx context.Context, query string, maxResults int) domain.SearchResponse
}
