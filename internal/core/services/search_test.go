package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailstone/osgraph/internal/core/domain"
)

type fakeSearcher struct {
	id         string
	query      string
	maxResults int
	response   domain.SearchResponse
}

func (f *fakeSearcher) ID() string { return f.id }

func (f *fakeSearcher) Search(_ context.Context, query string, maxResults int) domain.SearchResponse {
	f.query = query
	f.maxResults = maxResults
	return f.response
}

type fakeConfigStore struct {
	configs map[string]domain.SearcherConfig
}

func (f *fakeConfigStore) Lookup(id string) (domain.SearcherConfig, bool) {
	cfg, ok := f.configs[id]
	return cfg, ok
}

func (f *fakeConfigStore) Enabled() []domain.Searcher {
	var out []domain.Searcher
	for _, cfg := range f.configs {
		if cfg.Enabled {
			out = append(out, cfg.Searcher)
		}
	}
	return out
}

func newService(searchers []domain.SearcherConfig, connectors ...*fakeSearcher) *SearchService {
	configs := &fakeConfigStore{configs: make(map[string]domain.SearcherConfig)}
	for _, cfg := range searchers {
		configs.configs[cfg.ID] = cfg
	}
	reg := NewRegistry()
	for _, c := range connectors {
		reg.searchers[c.ID()] = c
	}
	return NewSearchService(reg, configs)
}

func enabled(id string) domain.SearcherConfig {
	return domain.SearcherConfig{
		Searcher: domain.Searcher{ID: id, Name: id},
		Enabled:  true,
	}
}

func TestSearchDispatchesToConnector(t *testing.T) {
	connector := &fakeSearcher{
		id:       "chainalysis",
		response: domain.Results([]domain.SearchResult{{Key: "K", Title: "hit"}}),
	}
	svc := newService([]domain.SearcherConfig{enabled("chainalysis")}, connector)

	resp := svc.Search(context.Background(), "chainalysis", "0xABC", 25)
	require.False(t, resp.IsError())
	assert.Equal(t, "hit", resp.SearchResults[0].Title)
	assert.Equal(t, "0xABC", connector.query)
	assert.Equal(t, 25, connector.maxResults)
}

func TestSearchDefaultsMaxResults(t *testing.T) {
	connector := &fakeSearcher{id: "chainalysis", response: domain.Results(nil)}
	svc := newService([]domain.SearcherConfig{enabled("chainalysis")}, connector)

	svc.Search(context.Background(), "chainalysis", "q", 0)
	assert.Equal(t, 50, connector.maxResults)
}

func TestSearchUnknownSearcher(t *testing.T) {
	svc := newService(nil)

	resp := svc.Search(context.Background(), "nonsense", "q", 10)
	require.True(t, resp.IsError())
	assert.Equal(t, "Unrecognised searcher", resp.Errors[0].Message)
}

func TestSearchDisabledSearcher(t *testing.T) {
	cfg := enabled("grid_people")
	cfg.Enabled = false
	svc := newService([]domain.SearcherConfig{cfg}, &fakeSearcher{id: "grid_people"})

	resp := svc.Search(context.Background(), "grid_people", "q", 10)
	require.True(t, resp.IsError())
	assert.Equal(t, "Searcher not enabled.", resp.Errors[0].Message)
}

func TestSearchEnabledButUnregistered(t *testing.T) {
	svc := newService([]domain.SearcherConfig{enabled("pipl")})

	resp := svc.Search(context.Background(), "pipl", "q", 10)
	require.True(t, resp.IsError())
	assert.Equal(t, "Searcher not enabled.", resp.Errors[0].Message)
}

func TestSearchRedirectProxiesQuery(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "jane doe", r.URL.Query().Get("query"))
		assert.Equal(t, "15", r.URL.Query().Get("maxResults"))
		w.Write([]byte(`{"searchResults": [{"key": "K", "title": "remote hit", "source": "Remote"}]}`))
	}))
	defer upstream.Close()

	cfg := enabled("remote")
	cfg.Redirect = upstream.URL
	svc := newService([]domain.SearcherConfig{cfg})

	resp := svc.Search(context.Background(), "remote", "jane doe", 15)
	require.False(t, resp.IsError())
	require.Len(t, resp.SearchResults, 1)
	assert.Equal(t, "remote hit", resp.SearchResults[0].Title)
}

func TestSearchRedirectRelaysUpstreamErrors(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors": [{"message": "remote failure"}]}`))
	}))
	defer upstream.Close()

	cfg := enabled("remote")
	cfg.Redirect = upstream.URL
	svc := newService([]domain.SearcherConfig{cfg})

	resp := svc.Search(context.Background(), "remote", "q", 15)
	require.True(t, resp.IsError())
	assert.Equal(t, "remote failure", resp.Errors[0].Message)
}

func TestSearchRedirectFailure(t *testing.T) {
	cfg := enabled("remote")
	cfg.Redirect = "http://127.0.0.1:1"
	svc := newService([]domain.SearcherConfig{cfg})

	resp := svc.Search(context.Background(), "remote", "q", 15)
	require.True(t, resp.IsError())
	assert.Equal(t, "Error querying the redirected searcher.", resp.Errors[0].Message)
}

func TestRegistryIDsSorted(t *testing.T) {
	reg := NewRegistry(&fakeSearcher{id: "pipl"}, &fakeSearcher{id: "chainalysis"})
	assert.Equal(t, []string{"chainalysis", "pipl"}, reg.IDs())

	_, ok := reg.Lookup("pipl")
	assert.True(t, ok)
	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}
