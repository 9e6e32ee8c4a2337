// Package newscatcher searches news coverage through the NewsCatcher API.
package newscatcher

import (
	"context"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/trailstone/osgraph/internal/connectors"
	"github.com/trailstone/osgraph/internal/core/domain"
	"github.com/trailstone/osgraph/internal/core/ports/driven"
	"github.com/trailstone/osgraph/internal/graph"
	netURL "net/url"
)

// Ensure Searcher implements the interface.
var _ driven.Searcher = (*Searcher)(nil)

const (
	// SourceName labels results from this source.
	SourceName = "NewsCatcherAPI"

	// DefaultBaseURL is the NewsCatcher v2 API root.
	DefaultBaseURL = "https://api.newscatcherapi.com"

	// pageSize is the number of articles requested per page.
	pageSize = 25
)

// Searcher pages through the search endpoint until maxResults articles
// have been gathered or the source runs out of pages.
type Searcher struct {
	client *connectors.Client
}

// New creates a NewsCatcher searcher authenticated by API key.
func New(apiKey string) *Searcher {
	return NewWithBase(DefaultBaseURL, apiKey)
}

// NewWithBase creates a searcher against a specific base URL.
func NewWithBase(base, apiKey string) *Searcher {
	return &Searcher{
		client: connectors.NewClient(base, connectors.DefaultTimeout, map[string]string{
			"x-api-key": apiKey,
		}),
	}
}

// ID returns the searcher identifier.
func (s *Searcher) ID() string {
	return "newscatcher"
}

// Search returns one result per article, paginating within the page
// ceiling.
func (s *Searcher) Search(ctx context.Context, query string, maxResults int) domain.SearchResponse {
	if query == "" {
		return domain.Errorf("No query provided.")
	}

	var upstreamMsg string
	articles, err := connectors.Paginate(ctx, maxResults, connectors.DefaultPageCeiling,
		func(ctx context.Context, page int) ([]gjson.Result, bool, error) {
			blob, err := s.client.GetJSON(ctx, "/v2/search", netURL.Values{
				"q":         {query},
				"lang":      {"en"},
				"sort_by":   {"relevancy"},
				"page":      {strconv.Itoa(page)},
				"page_size": {strconv.Itoa(pageSize)},
			})
			if err != nil {
				return nil, false, err
			}
			if blob.Get("status").String() != "ok" {
				upstreamMsg = blob.Get("message").String()
				return nil, false, domain.ErrUpstreamStatus
			}
			hasMore := page < int(blob.Get("total_pages").Int())
			return blob.Get("articles").Array(), hasMore, nil
		})
	if err != nil {
		if upstreamMsg != "" {
			return domain.Errorf("%s", upstreamMsg)
		}
		return domain.Errorf("Error querying the NewsCatcher API.")
	}

	results := make([]domain.SearchResult, 0, len(articles))
	for _, article := range articles {
		results = append(results, articleResult(article))
	}
	return domain.Results(results)
}

// articleResult maps one article to a result with a single WebPage entity
// keyed by the article link.
func articleResult(article gjson.Result) domain.SearchResult {
	link := article.Get("link").String()

	page := graph.Build(article, graph.Mapping{
		Type: domain.TypeWebPage,
		Key:  "link",
		Attrs: map[domain.Attribute]string{
			domain.AttrURL:         "link",
			domain.AttrDescription: "title",
		},
	})

	return domain.SearchResult{
		Key:      domain.ResultKey(),
		Title:    article.Get("title").String(),
		SubTitle: subtitle(article),
		Summary:  article.Get("summary").String(),
		Source:   SourceName,
		URL:      link,
		Entities: []domain.Entity{page},
	}
}

func subtitle(article gjson.Result) string {
	date := article.Get("published_date").String()
	if len(date) > 10 {
		date = date[:10]
	}
	parts := []string{
		"Domain: " + article.Get("clean_url").String(),
		"Topic: " + titleCase(article.Get("topic").String()),
		"Author: " + article.Get("author").String(),
		"Date: " + date,
	}
	return strings.Join(parts, "   ")
}

// titleCase upper-cases the first letter of a topic tag ("finance" ->
// "Finance"); topics are single ASCII words.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
