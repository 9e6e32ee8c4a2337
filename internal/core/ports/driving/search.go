package driving

import (
	"context"

	"github.com/trailstone/osgraph/internal/core/domain"
)

// SearchService is the driving port for the HTTP surface.
type SearchService interface {
	// Searchers returns the catalogue of enabled searchers.
	Searchers() []domain.Searcher

	// Search dispatches a query to the searcher with the given id.
	// Unknown, disabled, and failing searchers all come back as an error
	// response, never as a Go error; the transport layer only serializes.
	Search(ctx context.Context, id, query string, maxResults int) domain.SearchResponse
}
