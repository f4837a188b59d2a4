package search

import (
	"sync"
	"time"

	"github.com/dshills/searchcache/core"
)

// callOutcome classifies a finished findNearest call for accounting.
type callOutcome int

const (
	outcomeHit callOutcome = iota
	outcomeMiss
	outcomeFailed
)

// statsTracker accumulates call counts and timing. Counters only grow;
// resets happen by constructing a new tracker. All mutation goes through
// record, serialized by the mutex.
type statsTracker struct {
	mu             sync.Mutex
	calls          int64
	totalTime      time.Duration
	lastSearchTime time.Duration
	cacheHits      int64
	cacheMisses    int64
}

// record finalizes the bookkeeping for one call. Failed calls count toward
// calls and totalTime so AvgTime reflects every backend round-trip, but
// they move neither the hit nor the miss counter.
func (t *statsTracker) record(elapsed time.Duration, outcome callOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls++
	t.totalTime += elapsed
	t.lastSearchTime = elapsed

	switch outcome {
	case outcomeHit:
		t.cacheHits++
	case outcomeMiss:
		t.cacheMisses++
	}
}

// snapshot returns an immutable copy of the counters. AvgTime is derived
// here, 0 when no calls have been made.
func (t *statsTracker) snapshot(cachedResults int, opts core.SearcherOptions) core.SearchStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := core.SearchStats{
		Calls:          t.calls,
		TotalTime:      t.totalTime,
		LastSearchTime: t.lastSearchTime,
		CacheHits:      t.cacheHits,
		CacheMisses:    t.cacheMisses,
		CachedResults:  cachedResults,
		Options:        opts,
	}

	if t.calls > 0 {
		stats.AvgTime = t.totalTime / time.Duration(t.calls)
	}

	return stats
}
