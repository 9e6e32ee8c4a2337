package domain

import (
	"encoding/json"
	"fmt"
)

// SearchResult is one logical hit returned to the downstream tool.
// Key is a fresh, non-deterministic identifier scoped to a single response;
// entity ids inside Entities are deterministic (see Entity).
type SearchResult struct {
	Key      string   `json:"key"`
	Title    string   `json:"title"`
	SubTitle string   `json:"subTitle,omitempty"`
	Summary  string   `json:"summary,omitempty"`
	Source   string   `json:"source"`
	URL      string   `json:"url,omitempty"`
	Entities []Entity `json:"entities,omitempty"`
}

// Error is a structured error message in a SearchResponse.
type Error struct {
	Message string `json:"message"`
}

// SearchResponse carries either search results or errors, never both.
// Construct through Results or Errorf so the invariant holds.
type SearchResponse struct {
	SearchResults []SearchResult `json:"searchResults,omitempty"`
	Errors        []Error        `json:"errors,omitempty"`
}

// Results wraps search results into a response. A nil slice is normalized
// to an empty one so a successful search with no hits still serializes as
// {"searchResults":[]} rather than an empty object.
func Results(results []SearchResult) SearchResponse {
	if results == nil {
		results = []SearchResult{}
	}
	return SearchResponse{SearchResults: results}
}

// Errorf builds an error response with a single formatted message.
func Errorf(format string, args ...any) SearchResponse {
	return SearchResponse{Errors: []Error{{Message: fmt.Sprintf(format, args...)}}}
}

// IsError reports whether the response carries errors.
func (r SearchResponse) IsError() bool {
	return len(r.Errors) > 0
}

// MarshalJSON emits exactly one of searchResults or errors. Empty result
// lists are kept (as []) so success is always distinguishable from failure.
func (r SearchResponse) MarshalJSON() ([]byte, error) {
	if r.IsError() {
		return json.Marshal(struct {
			Errors []Error `json:"errors"`
		}{r.Errors})
	}
	results := r.SearchResults
	if results == nil {
		results = []SearchResult{}
	}
	return json.Marshal(struct {
		SearchResults []SearchResult `json:"searchResults"`
	}{results})
}
