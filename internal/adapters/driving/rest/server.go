// Package rest exposes the searcher catalogue and search dispatch over
// HTTP, plus health and metrics endpoints.
package rest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/trailstone/osgraph/internal/core/ports/driving"
	"github.com/trailstone/osgraph/internal/logger"
)

// defaultMaxResults applies when the caller does not pass maxResults.
const defaultMaxResults = 50

// Server routes HTTP requests to the search service.
type Server struct {
	service driving.SearchService
	metrics *Metrics
	router  *mux.Router
}

// NewServer creates the HTTP surface over the given service.
func NewServer(service driving.SearchService, metrics *Metrics) *Server {
	s := &Server{service: service, metrics: metrics}

	r := mux.NewRouter()
	r.HandleFunc("/searchers/", s.handleSearchers).Methods(http.MethodGet)
	r.HandleFunc("/searchers/{id}/results", s.handleResults).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router = r
	return s
}

// Router returns the handler for mounting on an http.Server.
func (s *Server) Router() http.Handler {
	return s.router
}

// handleSearchers serves the catalogue of enabled searchers. Config-only
// fields (enabled, redirect, settings) never serialize.
func (s *Server) handleSearchers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Searchers())
}

// handleResults dispatches one search. Searcher failures are part of the
// response contract and serialize with status 200; only a missing query is
// a client error at the HTTP level.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	query := r.URL.Query().Get("query")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"errors": []map[string]string{{"message": "Query parameter is required."}},
		})
		return
	}

	maxResults := defaultMaxResults
	if raw := r.URL.Query().Get("maxResults"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			maxResults = n
		}
	}

	start := time.Now()
	resp := s.service.Search(r.Context(), id, query, maxResults)
	s.metrics.Observe(id, resp.IsError(), time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warn("failed to write response: %v", err)
	}
}
