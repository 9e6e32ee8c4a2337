// Package shodan searches shodan.io for internet-connected devices.
package shodan

import (
	"context"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/trailstone/osgraph/internal/connectors"
	"github.com/trailstone/osgraph/internal/core/domain"
	"github.com/trailstone/osgraph/internal/core/ports/driven"
	"github.com/trailstone/osgraph/internal/graph"
)

// Ensure Searcher implements the interface.
var _ driven.Searcher = (*Searcher)(nil)

const (
	// SourceName labels results from this source.
	SourceName = "Shodan"

	// DefaultBaseURL is the Shodan REST API root.
	DefaultBaseURL = "https://api.shodan.io"
)

// Searcher queries the host search endpoint with the raw query string;
// Shodan has its own filter grammar, so the query is passed through intact.
type Searcher struct {
	client *connectors.Client
	apiKey string
}

// New creates a Shodan searcher authenticated by API key.
func New(apiKey string) *Searcher {
	return NewWithBase(DefaultBaseURL, apiKey)
}

// NewWithBase creates a searcher against a specific base URL.
func NewWithBase(base, apiKey string) *Searcher {
	return &Searcher{
		client: connectors.NewClient(base, connectors.DefaultTimeout, nil),
		apiKey: apiKey,
	}
}

// ID returns the searcher identifier.
func (s *Searcher) ID() string {
	return "shodan"
}

// Search returns one result per matched host, capped at maxResults.
func (s *Searcher) Search(ctx context.Context, query string, maxResults int) domain.SearchResponse {
	if query == "" {
		return domain.Errorf("No query provided.")
	}

	data, err := s.client.GetJSON(ctx, "/shodan/host/search", url.Values{
		"key":   {s.apiKey},
		"query": {query},
	})
	if err != nil {
		return domain.Errorf("Error querying the Shodan API.")
	}

	set := graph.NewResultSet(maxResults)
	for _, match := range data.Get("matches").Array() {
		if !set.Add(hostResult(query, match)) {
			break
		}
	}
	return set.Response()
}

// hostResult maps one matched host to a result with a single IpAddress
// entity keyed by the address itself.
func hostResult(query string, match gjson.Result) domain.SearchResult {
	host := graph.Build(match, graph.Mapping{
		Type: domain.TypeIPAddress,
		Key:  "ip_str",
		Attrs: map[domain.Attribute]string{
			domain.AttrIPAddress: "ip_str",
			domain.AttrName:      "org",
			domain.AttrCity:      "location.city",
			domain.AttrCountry:   "location.country_name",
		},
	})

	return domain.SearchResult{
		Key:      domain.ResultKey(),
		Title:    match.Get("ip_str").String(),
		SubTitle: graph.JoinPresent(match, " - ", "org", "location.country_name"),
		Summary:  match.Get("data").String(),
		Source:   SourceName,
		URL:      "https://shodan.io/search?query=" + url.QueryEscape(query),
		Entities: []domain.Entity{host},
	}
}
