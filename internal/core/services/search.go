package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/trailstone/osgraph/internal/core/domain"
	"github.com/trailstone/osgraph/internal/core/ports/driven"
	"github.com/trailstone/osgraph/internal/core/ports/driving"
	"github.com/trailstone/osgraph/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

const (
	// defaultMaxResults bounds a search that did not ask for a cap.
	defaultMaxResults = 50

	// redirectTimeout bounds a proxied call to an externally-hosted
	// connector. Redirect targets run their own source calls, so this is
	// deliberately longer than any single connector timeout.
	redirectTimeout = 30 * time.Second
)

// SearchService dispatches searches to connectors by searcher id, honoring
// the enable/redirect configuration.
type SearchService struct {
	registry *Registry
	configs  driven.SearcherConfigStore
	redirect *http.Client
}

// NewSearchService creates the dispatch service.
func NewSearchService(registry *Registry, configs driven.SearcherConfigStore) *SearchService {
	return &SearchService{
		registry: registry,
		configs:  configs,
		redirect: &http.Client{Timeout: redirectTimeout},
	}
}

// Searchers returns the catalogue of enabled searchers.
func (s *SearchService) Searchers() []domain.Searcher {
	return s.configs.Enabled()
}

// Search dispatches a query. Unknown ids, disabled searchers, and every
// connector failure come back as an error response; the transport layer
// only serializes what it gets.
func (s *SearchService) Search(ctx context.Context, id, query string, maxResults int) domain.SearchResponse {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	cfg, known := s.configs.Lookup(id)
	if !known {
		return dispatchError(domain.ErrUnknownSearcher)
	}
	if !cfg.Enabled {
		return dispatchError(domain.ErrSearcherDisabled)
	}
	if cfg.Redirect != "" {
		return s.proxy(ctx, id, cfg.Redirect, query, maxResults)
	}

	searcher, registered := s.registry.Lookup(id)
	if !registered {
		// Enabled in configuration but no connector was wired at startup,
		// typically a missing credential.
		logger.Warn("searcher %q enabled but not registered: %v", id, domain.ErrSearcherDisabled)
		return dispatchError(domain.ErrSearcherDisabled)
	}

	logger.Debug("dispatching %q to %s (maxResults=%d)", query, id, maxResults)
	return searcher.Search(ctx, query, maxResults)
}

// dispatchError maps a dispatch sentinel to its wire message. The literal
// strings are part of the downstream contract and must not drift.
func dispatchError(err error) domain.SearchResponse {
	switch {
	case errors.Is(err, domain.ErrSearcherDisabled):
		return domain.Errorf("Searcher not enabled.")
	case errors.Is(err, domain.ErrUnknownSearcher):
		return domain.Errorf("Unrecognised searcher")
	default:
		return domain.Errorf("%s", err.Error())
	}
}

// proxy forwards the search to an externally-hosted connector and relays
// its response.
func (s *SearchService) proxy(ctx context.Context, id, target, query string, maxResults int) domain.SearchResponse {
	u := target + "?" + url.Values{
		"query":      {query},
		"maxResults": {strconv.Itoa(maxResults)},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Errorf("Error querying the redirected searcher.")
	}

	logger.Debug("redirecting %s search to %s", id, target)
	resp, err := s.redirect.Do(req)
	if err != nil {
		logger.Warn("redirect for %q failed: %v", id, err)
		return domain.Errorf("Error querying the redirected searcher.")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warn("redirect for %q failed reading body: %v", id, err)
		return domain.Errorf("Error querying the redirected searcher.")
	}

	var relayed domain.SearchResponse
	if err := json.Unmarshal(body, &relayed); err != nil {
		logger.Warn("redirect for %q returned malformed JSON: %v", id, err)
		return domain.Errorf("Error querying the redirected searcher.")
	}
	return relayed
}
