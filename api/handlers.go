package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dshills/searchcache/core"
)

// SearchRequestBody is the JSON body accepted by POST /search.
type SearchRequestBody struct {
	Query  []float32         `json:"query"`
	K      int               `json:"k,omitempty"`
	Filter map[string]string `json:"filter,omitempty"`
	Probes int               `json:"probes,omitempty"`
}

// SearchResponse wraps the matched results.
type SearchResponse struct {
	Results []core.SearchResult `json:"results"`
	Count   int                 `json:"count"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body SearchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(body.Query) == 0 {
		s.respondWithError(w, http.StatusBadRequest, "Query vector cannot be empty")
		return
	}

	results, err := s.searcher.FindNearest(r.Context(), body.Query, body.K, core.SearchOptions{
		Filter: body.Filter,
		Probes: body.Probes,
	})
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, core.ErrEmptyQuery) || errors.Is(err, core.ErrInvalidQuery) {
			status = http.StatusBadRequest
		}
		s.respondWithError(w, status, "Search failed: "+err.Error())
		return
	}

	s.respondWithJSON(w, http.StatusOK, SearchResponse{
		Results: results,
		Count:   len(results),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, s.searcher.Stats())
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.searcher.ClearCache()
	s.respondWithJSON(w, http.StatusOK, map[string]string{"status": "cache cleared"})
}
