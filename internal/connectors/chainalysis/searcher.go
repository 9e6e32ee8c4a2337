// Package chainalysis searches the Chainalysis sanctions screening API by
// cryptocurrency wallet address.
package chainalysis

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/trailstone/osgraph/internal/connectors"
	"github.com/trailstone/osgraph/internal/core/domain"
	"github.com/trailstone/osgraph/internal/core/ports/driven"
	"github.com/trailstone/osgraph/internal/graph"
)

// Ensure Searcher implements the interface.
var _ driven.Searcher = (*Searcher)(nil)

const (
	// SourceName labels results from this source.
	SourceName = "Chainalysis Sanctions API"

	// DefaultBaseURL is the public sanctions screening endpoint.
	DefaultBaseURL = "https://public.chainalysis.com"

	// TermRate throttles the per-address screening loop; the registration
	// API limits each key to a handful of requests per second.
	TermRate = rate.Limit(5)
)

// Searcher queries the sanctions API one wallet address at a time; the
// upstream accepts no batching and no pagination.
type Searcher struct {
	client  *connectors.Client
	limiter *rate.Limiter
}

// New creates a Chainalysis searcher authenticated by API key.
func New(apiKey string) *Searcher {
	return NewWithBase(DefaultBaseURL, apiKey)
}

// NewWithBase creates a searcher against a specific base URL.
func NewWithBase(base, apiKey string) *Searcher {
	return &Searcher{
		client: connectors.NewClient(base, connectors.FastTimeout, map[string]string{
			"X-API-KEY": apiKey,
		}),
		limiter: rate.NewLimiter(TermRate, 1),
	}
}

// ID returns the searcher identifier.
func (s *Searcher) ID() string {
	return "chainalysis"
}

// Search screens each wallet address in the query against the sanctions
// list. Addresses with and without the 0x prefix are the same address.
func (s *Searcher) Search(ctx context.Context, query string, maxResults int) domain.SearchResponse {
	addresses := domain.ParseTerms(query, domain.WithHexPrefixEquivalence())

	results, err := connectors.ForEachTerm(ctx, addresses, maxResults, s.limiter, s.screen)
	if err != nil {
		if errors.Is(err, domain.ErrNoSearchTerms) {
			return domain.Errorf("No wallet addresses in query.")
		}
		var status *connectors.StatusError
		if errors.As(err, &status) {
			if msg := gjson.Get(status.Body, "message").String(); msg != "" {
				return domain.Errorf("%s", msg)
			}
		}
		return domain.Errorf("Error querying the Chainalysis API.")
	}
	return domain.Results(results)
}

// screen queries one wallet address and maps each sanction identification
// into a result graph.
func (s *Searcher) screen(ctx context.Context, address string) ([]domain.SearchResult, error) {
	data, err := s.client.GetJSON(ctx, "/api/v1/address/"+url.PathEscape(address), nil)
	if err != nil {
		return nil, err
	}
	if !data.Get("identifications").Exists() {
		return nil, &connectors.StatusError{Status: 200, Body: data.Raw}
	}

	var results []domain.SearchResult
	for _, sanction := range data.Get("identifications").Array() {
		results = append(results, sanctionResult(address, sanction))
	}
	return results, nil
}

// sanctionResult maps one sanction identification to a result: the wallet
// as an Asset, the sanction source page, and the sanctioning organisation.
func sanctionResult(address string, sanction gjson.Result) domain.SearchResult {
	name := sanction.Get("name").String()
	pageURL := sanction.Get("url").String()

	asset := graph.Build(sanction, graph.Mapping{
		Type: domain.TypeAsset,
		Key:  "name",
		Attrs: map[domain.Attribute]string{
			domain.AttrURL: "url",
		},
		Hooks: map[domain.Attribute]func(gjson.Result) any{
			domain.AttrName: func(gjson.Result) any { return address },
		},
	})

	b := graph.NewResult(asset)

	page := domain.NewEntity(domain.TypeWebPage, pageURL)
	page.Attributes.Set(domain.AttrURL, pageURL)
	b.Attach(page, "Sanctioned URL")

	org := domain.NewEntity(domain.TypeOrganisation, orgName(name, address))
	org.Attributes.Set(domain.AttrName, orgName(name, address))
	b.Attach(org, "Sanction Name")

	return domain.SearchResult{
		Key:      domain.ResultKey(),
		Title:    address,
		SubTitle: name,
		Summary:  sanction.Get("description").String(),
		Source:   SourceName,
		URL:      pageURL,
		Entities: b.Entities(),
	}
}

// orgName strips the queried wallet address out of the sanction name,
// whichever 0x form the name happens to use.
func orgName(name, address string) string {
	switch {
	case strings.Contains(name, "0x"+address):
		name = strings.ReplaceAll(name, "0x"+address, "")
	case strings.Contains(name, address):
		name = strings.ReplaceAll(name, address, "")
	case strings.HasPrefix(address, "0x") && strings.Contains(name, address[2:]):
		name = strings.ReplaceAll(name, address[2:], "")
	}
	return strings.TrimSpace(name)
}
