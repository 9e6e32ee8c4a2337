package graph

import "github.com/trailstone/osgraph/internal/core/domain"

// ResultSet aggregates SearchResults under an overall cap.
//
// The cap counts raw records considered: once the set is full, callers stop
// consuming input (further pages, further terms) instead of truncating
// already-built results. Per-term outputs added in term order stay in term
// order.
type ResultSet struct {
	max     int
	results []domain.SearchResult
}

// NewResultSet creates an aggregator capped at max results. max <= 0 means
// no cap.
func NewResultSet(max int) *ResultSet {
	return &ResultSet{max: max, results: []domain.SearchResult{}}
}

// Add appends a result and reports whether the set can take more.
func (s *ResultSet) Add(r domain.SearchResult) bool {
	if s.Full() {
		return false
	}
	s.results = append(s.results, r)
	return !s.Full()
}

// Full reports whether the cap has been reached.
func (s *ResultSet) Full() bool {
	return s.max > 0 && len(s.results) >= s.max
}

// Len returns the number of aggregated results.
func (s *ResultSet) Len() int {
	return len(s.results)
}

// Results returns the aggregated results in insertion order.
func (s *ResultSet) Results() []domain.SearchResult {
	return s.results
}

// Response wraps the aggregated results into a successful SearchResponse.
func (s *ResultSet) Response() domain.SearchResponse {
	return domain.Results(s.results)
}
