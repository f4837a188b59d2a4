package search

import (
	"context"
	"time"

	"github.com/dshills/searchcache/core"
	"github.com/dshills/searchcache/core/cache"
)

// CachedSearcher fronts an external vector search backend with a bounded
// LRU result cache and running performance statistics. It owns the cache
// and the statistics exclusively; the backend is referenced, never owned,
// so Close never touches the backend's lifecycle.
//
// Safe for concurrent use. Two concurrent identical misses both reach the
// backend and both populate the cache; last write wins.
type CachedSearcher struct {
	backend core.VectorSearcher
	cache   *cache.ResultCache
	stats   statsTracker
	opts    core.SearcherOptions
}

// NewCachedSearcher creates a searcher delegating to backend. Zero-valued
// option fields fall back to defaults; the metric defaults to euclidean.
func NewCachedSearcher(backend core.VectorSearcher, opts core.SearcherOptions) *CachedSearcher {
	if opts.DistanceMetric == "" {
		opts.DistanceMetric = core.DistanceEuclidean
	}
	if opts.CacheCapacity <= 0 {
		opts.CacheCapacity = core.DefaultCacheCapacity
	}

	return &CachedSearcher{
		backend: backend,
		cache:   cache.NewResultCache(opts.CacheCapacity),
		opts:    opts,
	}
}

// FindNearest returns the k nearest neighbors of query. A cache hit
// short-circuits the backend call entirely and returns a copy of the
// cached results. On a miss the backend is invoked with the configured
// distance metric plus the per-call filter and probes; successful results
// are cached under the request fingerprint. Backend failures propagate
// unchanged - no retry, no fallback to stale cache entries - after the
// timing bookkeeping is finalized.
//
// The caller's query slice is never mutated; k defaults to DefaultTopK
// when non-positive.
func (s *CachedSearcher) FindNearest(ctx context.Context, query []float32, k int, opts core.SearchOptions) ([]core.SearchResult, error) {
	start := time.Now()

	if k <= 0 {
		k = core.DefaultTopK
	}

	q := normalizeQuery(query)

	var key string
	if s.opts.CacheResults {
		key = cache.SearchCacheKey{
			QueryVector:    q,
			TopK:           k,
			DistanceMetric: s.opts.DistanceMetric,
			Filter:         opts.Filter,
			Probes:         opts.Probes,
		}.Fingerprint()

		if results, found := s.cache.Get(key); found {
			s.stats.record(time.Since(start), outcomeHit)
			return results, nil
		}
	}

	results, err := s.backend.FindNearest(ctx, core.SearchRequest{
		Query:          q,
		TopK:           k,
		DistanceMetric: s.opts.DistanceMetric,
		Filter:         opts.Filter,
		Probes:         opts.Probes,
	})
	if err != nil {
		s.stats.record(time.Since(start), outcomeFailed)
		return nil, err
	}

	if s.opts.CacheResults {
		s.cache.Set(key, results)
	}

	s.stats.record(time.Since(start), outcomeMiss)
	return results, nil
}

// Stats returns a snapshot of the running statistics, including the
// current cache size and a copy of the active configuration.
func (s *CachedSearcher) Stats() core.SearchStats {
	return s.stats.snapshot(s.cache.Len(), s.opts)
}

// ClearCache empties the result cache. Statistics are unaffected.
func (s *CachedSearcher) ClearCache() {
	s.cache.Clear()
}

// Close clears the cache. It deliberately does not close the backend;
// the backend's lifecycle is owned elsewhere.
func (s *CachedSearcher) Close() {
	s.cache.Clear()
}

// normalizeQuery copies the caller's vector into an owned canonical buffer
// so later caller mutation cannot leak into cache keys or in-flight
// backend requests.
func normalizeQuery(query []float32) []float32 {
	q := make([]float32, len(query))
	copy(q, query)
	return q
}
