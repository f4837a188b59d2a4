package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/searchcache/core"
)

// noFilterSentinel marks requests that carry no filter in the fingerprint.
const noFilterSentinel = "no filter"

// SearchCacheKey identifies one nearest-neighbor request for caching
// purposes. Two keys with observably equivalent inputs produce the same
// fingerprint; changing k, metric, filter, or probes changes it.
type SearchCacheKey struct {
	QueryVector    []float32
	TopK           int
	DistanceMetric core.DistanceMetric
	Filter         map[string]string
	Probes         int
}

// Fingerprint derives the deterministic cache key string.
//
// Each query component is formatted at a fixed 4-decimal precision, so
// representation noise below 1e-4 maps to the same key. Genuinely distinct
// vectors whose components agree to 4 decimals share a key; that is an
// accepted approximation of this cache, not a bug.
func (k SearchCacheKey) Fingerprint() string {
	var b strings.Builder

	for i, val := range k.QueryVector {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%.4f", val)
	}

	fmt.Fprintf(&b, "|k:%d|%s|%s|", k.TopK, k.DistanceMetric, k.filterFingerprint())

	if k.Probes > 0 {
		fmt.Fprintf(&b, "probes:%d", k.Probes)
	}

	return b.String()
}

// filterFingerprint hashes the filter content. Sorting the keys makes the
// hash independent of map iteration order, so two filters with the same
// conditions always fingerprint identically and different conditions
// (almost surely) do not.
func (k SearchCacheKey) filterFingerprint() string {
	if len(k.Filter) == 0 {
		return noFilterSentinel
	}

	keys := make([]string, 0, len(k.Filter))
	for key := range k.Filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, key := range keys {
		fmt.Fprintf(h, "%s=%s;", key, k.Filter[key])
	}

	return hex.EncodeToString(h.Sum(nil))[:16]
}
