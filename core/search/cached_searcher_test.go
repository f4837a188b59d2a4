package search

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/searchcache/core"
)

// mockBackend counts delegated calls and returns canned results or a fixed
// error.
type mockBackend struct {
	mu      sync.Mutex
	calls   int
	lastReq core.SearchRequest
	results []core.SearchResult
	err     error
}

func (m *mockBackend) FindNearest(ctx context.Context, req core.SearchRequest) ([]core.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}

	results := make([]core.SearchResult, len(m.results))
	copy(results, m.results)
	return results, nil
}

func (m *mockBackend) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var testResults = []core.SearchResult{
	{ID: "vec1", Score: 0.12, Metadata: map[string]string{"category": "news"}},
	{ID: "vec2", Score: 0.34},
	{ID: "vec3", Score: 0.56},
}

func TestCachedSearcherMissThenHit(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{results: testResults}
	searcher := NewCachedSearcher(backend, core.DefaultSearcherOptions())
	defer searcher.Close()

	query := []float32{1.0, 2.0, 3.0}

	first, err := searcher.FindNearest(ctx, query, 5, core.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, testResults, first)
	assert.Equal(t, 1, backend.callCount())

	second, err := searcher.FindNearest(ctx, query, 5, core.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.callCount(), "second call must not reach the backend")

	stats := searcher.Stats()
	assert.Equal(t, int64(2), stats.Calls)
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(1), stats.CacheMisses)
	assert.Equal(t, 1, stats.CachedResults)
}

func TestCachedSearcherKeySensitivity(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{results: testResults}
	searcher := NewCachedSearcher(backend, core.DefaultSearcherOptions())
	defer searcher.Close()

	query := []float32{1.0, 2.0, 3.0}

	_, err := searcher.FindNearest(ctx, query, 5, core.SearchOptions{})
	require.NoError(t, err)

	t.Run("different k misses", func(t *testing.T) {
		before := backend.callCount()
		_, err := searcher.FindNearest(ctx, query, 7, core.SearchOptions{})
		require.NoError(t, err)
		assert.Equal(t, before+1, backend.callCount())
	})

	t.Run("different probes misses", func(t *testing.T) {
		before := backend.callCount()
		_, err := searcher.FindNearest(ctx, query, 5, core.SearchOptions{Probes: 16})
		require.NoError(t, err)
		assert.Equal(t, before+1, backend.callCount())
	})

	t.Run("different filter misses", func(t *testing.T) {
		before := backend.callCount()
		_, err := searcher.FindNearest(ctx, query, 5, core.SearchOptions{
			Filter: map[string]string{"category": "news"},
		})
		require.NoError(t, err)
		assert.Equal(t, before+1, backend.callCount())
	})

	t.Run("equivalent query hits", func(t *testing.T) {
		before := backend.callCount()
		_, err := searcher.FindNearest(ctx, []float32{1.00001, 2.0, 3.0}, 5, core.SearchOptions{})
		require.NoError(t, err)
		assert.Equal(t, before, backend.callCount(), "sub-precision noise should hit the cache")
	})
}

func TestCachedSearcherDelegation(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{results: testResults}
	opts := core.SearcherOptions{
		DistanceMetric: core.DistanceCosine,
		CacheResults:   true,
	}
	searcher := NewCachedSearcher(backend, opts)
	defer searcher.Close()

	filter := map[string]string{"lang": "en"}
	_, err := searcher.FindNearest(ctx, []float32{0.5, 0.5}, 3, core.SearchOptions{Filter: filter, Probes: 8})
	require.NoError(t, err)

	req := backend.lastReq
	assert.Equal(t, []float32{0.5, 0.5}, req.Query)
	assert.Equal(t, 3, req.TopK)
	assert.Equal(t, core.DistanceCosine, req.DistanceMetric, "metric comes from configuration")
	assert.Equal(t, filter, req.Filter)
	assert.Equal(t, 8, req.Probes)
}

func TestCachedSearcherDefaultK(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{results: testResults}
	searcher := NewCachedSearcher(backend, core.DefaultSearcherOptions())
	defer searcher.Close()

	_, err := searcher.FindNearest(ctx, []float32{1.0}, 0, core.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, core.DefaultTopK, backend.lastReq.TopK)
}

func TestCachedSearcherQueryNotMutated(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{results: testResults}
	searcher := NewCachedSearcher(backend, core.DefaultSearcherOptions())
	defer searcher.Close()

	query := []float32{1.0, 2.0, 3.0}
	_, err := searcher.FindNearest(ctx, query, 5, core.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, []float32{1.0, 2.0, 3.0}, query)

	// Mutating the caller's buffer after the call must not affect cached
	// lookups for the original vector.
	query[0] = 99.0
	before := backend.callCount()
	_, err = searcher.FindNearest(ctx, []float32{1.0, 2.0, 3.0}, 5, core.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, before, backend.callCount())
}

func TestCachedSearcherCopyIsolation(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{results: testResults}
	searcher := NewCachedSearcher(backend, core.DefaultSearcherOptions())
	defer searcher.Close()

	query := []float32{1.0, 2.0, 3.0}

	first, err := searcher.FindNearest(ctx, query, 5, core.SearchOptions{})
	require.NoError(t, err)
	first[0].ID = "mutated"

	second, err := searcher.FindNearest(ctx, query, 5, core.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, "vec1", second[0].ID)
}

func TestCachedSearcherDisabledCaching(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{results: testResults}
	opts := core.DefaultSearcherOptions()
	opts.CacheResults = false
	searcher := NewCachedSearcher(backend, opts)
	defer searcher.Close()

	query := []float32{1.0, 2.0, 3.0}
	for i := 0; i < 3; i++ {
		_, err := searcher.FindNearest(ctx, query, 5, core.SearchOptions{})
		require.NoError(t, err)
	}

	assert.Equal(t, 3, backend.callCount(), "every call must reach the backend")

	stats := searcher.Stats()
	assert.Equal(t, int64(3), stats.Calls)
	assert.Equal(t, int64(0), stats.CacheHits)
	assert.Equal(t, 0, stats.CachedResults)
}

func TestCachedSearcherBackendFailure(t *testing.T) {
	ctx := context.Background()
	backendErr := errors.New("partition unavailable")
	backend := &mockBackend{err: backendErr}
	searcher := NewCachedSearcher(backend, core.DefaultSearcherOptions())
	defer searcher.Close()

	_, err := searcher.FindNearest(ctx, []float32{1.0, 2.0}, 5, core.SearchOptions{})
	assert.ErrorIs(t, err, backendErr, "backend failures propagate unchanged")

	stats := searcher.Stats()
	assert.Equal(t, int64(1), stats.Calls, "failed calls still count toward calls")
	assert.Equal(t, int64(0), stats.CacheHits)
	assert.Equal(t, int64(0), stats.CacheMisses)
	assert.Equal(t, 0, stats.CachedResults, "failures are never cached")

	// Once the backend recovers the same request must go through again.
	backend.mu.Lock()
	backend.err = nil
	backend.results = testResults
	backend.mu.Unlock()

	results, err := searcher.FindNearest(ctx, []float32{1.0, 2.0}, 5, core.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, testResults, results)
}

func TestCachedSearcherStatsMonotonicity(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{results: testResults}
	searcher := NewCachedSearcher(backend, core.DefaultSearcherOptions())
	defer searcher.Close()

	var prev core.SearchStats
	for i := 0; i < 10; i++ {
		query := []float32{float32(i % 3), 1.0}
		_, err := searcher.FindNearest(ctx, query, 5, core.SearchOptions{})
		require.NoError(t, err)

		stats := searcher.Stats()
		assert.GreaterOrEqual(t, stats.Calls, prev.Calls)
		assert.GreaterOrEqual(t, stats.TotalTime, prev.TotalTime)
		assert.GreaterOrEqual(t, stats.CacheHits, prev.CacheHits)
		assert.GreaterOrEqual(t, stats.CacheMisses, prev.CacheMisses)
		assert.Equal(t, stats.Calls, stats.CacheHits+stats.CacheMisses)
		prev = stats
	}

	stats := searcher.Stats()
	assert.Equal(t, int64(10), stats.Calls)
	assert.Equal(t, int64(3), stats.CacheMisses, "three distinct queries")
	assert.Equal(t, int64(7), stats.CacheHits)
	assert.Equal(t, stats.TotalTime/10, stats.AvgTime)
	assert.Equal(t, core.DefaultSearcherOptions(), stats.Options)
}

func TestCachedSearcherEmptyStats(t *testing.T) {
	backend := &mockBackend{}
	searcher := NewCachedSearcher(backend, core.DefaultSearcherOptions())
	defer searcher.Close()

	stats := searcher.Stats()
	assert.Equal(t, int64(0), stats.Calls)
	assert.Equal(t, int64(0), stats.AvgTime.Nanoseconds(), "no division by zero")
}

func TestCachedSearcherClearCache(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{results: testResults}
	searcher := NewCachedSearcher(backend, core.DefaultSearcherOptions())
	defer searcher.Close()

	query := []float32{1.0, 2.0, 3.0}
	_, err := searcher.FindNearest(ctx, query, 5, core.SearchOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, searcher.Stats().CachedResults)

	searcher.ClearCache()

	assert.Equal(t, 0, searcher.Stats().CachedResults)

	_, err = searcher.FindNearest(ctx, query, 5, core.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, backend.callCount(), "identical call misses after clear")
}

func TestCachedSearcherEvictionBound(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{results: testResults}
	opts := core.DefaultSearcherOptions()
	opts.CacheCapacity = 4
	searcher := NewCachedSearcher(backend, opts)
	defer searcher.Close()

	for i := 0; i < 12; i++ {
		_, err := searcher.FindNearest(ctx, []float32{float32(i)}, 5, core.SearchOptions{})
		require.NoError(t, err)
	}

	assert.Equal(t, 4, searcher.Stats().CachedResults)
}

func TestCachedSearcherConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{results: testResults}
	searcher := NewCachedSearcher(backend, core.DefaultSearcherOptions())
	defer searcher.Close()

	const goroutines = 16
	const iterations = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(g int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				query := []float32{float32((g + i) % 5), 1.0}
				if _, err := searcher.FindNearest(ctx, query, 5, core.SearchOptions{}); err != nil {
					t.Error(err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	stats := searcher.Stats()
	assert.Equal(t, int64(goroutines*iterations), stats.Calls)
	assert.Equal(t, stats.Calls, stats.CacheHits+stats.CacheMisses)
	assert.LessOrEqual(t, stats.CachedResults, 5)
}
