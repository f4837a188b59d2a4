package core

import (
	"time"
)

// DefaultTopK is the neighbor count used when a caller does not specify k.
const DefaultTopK = 10

// DefaultCacheCapacity is the default bound on cached result sets.
const DefaultCacheCapacity = 1000

// SearchResult represents a single matched item returned by the backend.
// The facade never inspects or re-ranks results - it stores and returns
// them verbatim.
type SearchResult struct {
	ID       string            `json:"id"`
	Score    float32           `json:"score"` // Distance score - lower values indicate higher similarity, except for dot product which uses negative values
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SearchRequest is the delegated call to the vector search backend.
type SearchRequest struct {
	Query          []float32         `json:"query"`
	TopK           int               `json:"top_k"`
	DistanceMetric DistanceMetric    `json:"distance_metric"`
	Filter         map[string]string `json:"filter,omitempty"`
	Probes         int               `json:"probes,omitempty"`
}

// SearchOptions carries per-call knobs passed through to the backend.
// The distance metric is always taken from SearcherOptions, never from here.
type SearchOptions struct {
	Filter map[string]string `json:"filter,omitempty"`
	Probes int               `json:"probes,omitempty"`
}

// SearcherOptions configures a CachedSearcher. Constructed once at creation
// and immutable thereafter.
type SearcherOptions struct {
	DistanceMetric DistanceMetric `json:"distance_metric"`
	CacheResults   bool           `json:"cache_results"`
	CacheCapacity  int            `json:"cache_capacity"`
}

// DefaultSearcherOptions returns the default searcher configuration.
func DefaultSearcherOptions() SearcherOptions {
	return SearcherOptions{
		DistanceMetric: DistanceEuclidean,
		CacheResults:   true,
		CacheCapacity:  DefaultCacheCapacity,
	}
}

// SearchStats is a point-in-time snapshot of searcher performance counters.
type SearchStats struct {
	Calls          int64           `json:"calls"`
	TotalTime      time.Duration   `json:"total_time"`
	LastSearchTime time.Duration   `json:"last_search_time"`
	AvgTime        time.Duration   `json:"avg_time"`
	CacheHits      int64           `json:"cache_hits"`
	CacheMisses    int64           `json:"cache_misses"`
	CachedResults  int             `json:"cached_results"`
	Options        SearcherOptions `json:"options"`
}
