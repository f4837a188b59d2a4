package cache

import (
	"container/list"
	"sync"

	"github.com/dshills/searchcache/core"
)

// ResultCache is a thread-safe, capacity-bounded LRU store mapping request
// fingerprints to result sets. It holds no search logic: insertion and
// access update recency, and exceeding capacity silently evicts the least
// recently used entry. Entries never expire on their own.
type ResultCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	lruList  *list.List
}

type cacheEntry struct {
	key     string
	results []core.SearchResult
}

// NewResultCache creates a result cache bounded to capacity entries.
// A non-positive capacity falls back to the default.
func NewResultCache(capacity int) *ResultCache {
	if capacity <= 0 {
		capacity = core.DefaultCacheCapacity
	}
	return &ResultCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		lruList:  list.New(),
	}
}

// Get returns a defensive copy of the results stored under key and marks
// the entry most recently used. Callers cannot mutate cached state through
// the returned slice.
func (rc *ResultCache) Get(key string) ([]core.SearchResult, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	elem, exists := rc.items[key]
	if !exists {
		return nil, false
	}

	rc.lruList.MoveToFront(elem)
	return copyResults(elem.Value.(*cacheEntry).results), true
}

// Set stores a defensive copy of results under key. If the cache is at
// capacity and the key is new, the least recently used entry is evicted
// first.
func (rc *ResultCache) Set(key string, results []core.SearchResult) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if elem, exists := rc.items[key]; exists {
		elem.Value.(*cacheEntry).results = copyResults(results)
		rc.lruList.MoveToFront(elem)
		return
	}

	for rc.lruList.Len() >= rc.capacity {
		rc.evictLocked()
	}

	entry := &cacheEntry{key: key, results: copyResults(results)}
	rc.items[key] = rc.lruList.PushFront(entry)
}

// Clear empties all entries.
func (rc *ResultCache) Clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.items = make(map[string]*list.Element)
	rc.lruList = list.New()
}

// Len returns the current entry count.
func (rc *ResultCache) Len() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	return rc.lruList.Len()
}

// evictLocked removes the least recently used entry (must be called with
// the lock held).
func (rc *ResultCache) evictLocked() {
	elem := rc.lruList.Back()
	if elem == nil {
		return
	}

	rc.lruList.Remove(elem)
	delete(rc.items, elem.Value.(*cacheEntry).key)
}

// copyResults deep-copies a result set so cached state and caller-held
// slices never alias, including the metadata maps.
func copyResults(results []core.SearchResult) []core.SearchResult {
	if results == nil {
		return nil
	}

	copied := make([]core.SearchResult, len(results))
	copy(copied, results)
	for i, r := range results {
		if r.Metadata != nil {
			meta := make(map[string]string, len(r.Metadata))
			for k, v := range r.Metadata {
				meta[k] = v
			}
			copied[i].Metadata = meta
		}
	}

	return copied
}
