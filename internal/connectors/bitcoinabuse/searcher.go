// Package bitcoinabuse looks up abuse reports filed against a Bitcoin
// wallet address.
package bitcoinabuse

import (
	"context"
	"errors"
	"net/url"

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
	SourceName = "Bitcoin Abuse"

	// DefaultBaseURL is the Bitcoin Abuse API root.
	DefaultBaseURL = "https://www.bitcoinabuse.com"

	// TermRate throttles the per-address report lookups; free-tier tokens
	// are cut off quickly at higher request rates.
	TermRate = rate.Limit(2)
)

// Searcher queries the reports/check endpoint for each queried address.
type Searcher struct {
	client  *connectors.Client
	apiKey  string
	limiter *rate.Limiter
}

// New creates a Bitcoin Abuse searcher authenticated by API token.
func New(apiKey string) *Searcher {
	return NewWithBase(DefaultBaseURL, apiKey)
}

// NewWithBase creates a searcher against a specific base URL.
func NewWithBase(base, apiKey string) *Searcher {
	return &Searcher{
		client:  connectors.NewClient(base, connectors.DefaultTimeout, nil),
		apiKey:  apiKey,
		limiter: rate.NewLimiter(TermRate, 1),
	}
}

// ID returns the searcher identifier.
func (s *Searcher) ID() string {
	return "bitcoinabuse"
}

// Search returns one result per recent abuse report against each queried
// wallet address.
func (s *Searcher) Search(ctx context.Context, query string, maxResults int) domain.SearchResponse {
	addresses := domain.ParseTerms(query)

	results, err := connectors.ForEachTerm(ctx, addresses, maxResults, s.limiter, s.reports)
	if err != nil {
		if errors.Is(err, domain.ErrNoSearchTerms) {
			return domain.Errorf("No wallet addresses in query.")
		}
		return domain.Errorf("Error querying the Bitcoin Abuse API.")
	}
	return domain.Results(results)
}

func (s *Searcher) reports(ctx context.Context, address string) ([]domain.SearchResult, error) {
	data, err := s.client.GetJSON(ctx, "/api/reports/check", url.Values{
		"address":   {address},
		"api_token": {s.apiKey},
	})
	if err != nil {
		return nil, err
	}

	var results []domain.SearchResult
	for _, report := range data.Get("recent").Array() {
		results = append(results, reportResult(address, data, report))
	}
	return results, nil
}

// reportResult maps one abuse report to a result: the wallet as an Asset
// linked to its report page and to a blockchain explorer summary.
func reportResult(address string, data, report gjson.Result) domain.SearchResult {
	reportURL := "https://bitcoinabuse.com/reports/" + address
	explorerURL := "https://www.blockchain.com/btc/address/" + address

	wallet := domain.NewEntity(domain.TypeAsset, data.Get("address").String())
	wallet.Attributes.Set(domain.AttrName, data.Get("address").String())
	wallet.Attributes.Set(domain.AttrData, data.Get("address").String())

	b := graph.NewResult(wallet)

	reportPage := domain.NewEntity(domain.TypeWebPage, reportURL)
	reportPage.Attributes.Set(domain.AttrURL, reportURL)
	reportPage.Attributes.Set(domain.AttrData, reportURL)
	b.Attach(reportPage, "Abuse Report")

	explorer := domain.NewEntity(domain.TypeWebPage, explorerURL)
	explorer.Attributes.Set(domain.AttrURL, explorerURL)
	explorer.Attributes.Set(domain.AttrData, explorerURL)
	b.Attach(explorer, "Wallet Summary")

	return domain.SearchResult{
		Key:   domain.ResultKey(),
		Title: data.Get("address").String(),
		SubTitle: "First seen: " + data.Get("first_seen").String() +
			" & Last seen: " + data.Get("last_seen").String(),
		Summary: graph.JoinPresent(report, ", ",
			"abuse_type.label", "description", "created_at"),
		Source:   SourceName,
		URL:      reportURL,
		Entities: b.Entities(),
	}
}
