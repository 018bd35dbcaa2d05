// Package querycache implements the Query Cache: an LRU cache over
// github.com/hashicorp/golang-lru/v2 with a per-entry TTL layered on top,
// keyed by a fingerprint of the search request that produced the value.
package querycache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Key builds the deterministic cache key for a search request: a
// sha256 fingerprint of the normalized query string, limit, and an
// optional forced intent.
func Key(query string, limit int, forcedIntent string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	combined := fmt.Sprintf("%s\x00%d\x00%s", normalized, limit, forcedIntent)
	sum := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(sum[:])
}

// DefaultMaxEntries and DefaultTTL are the cache's default policy.
const (
	DefaultMaxEntries = 1000
	DefaultTTL        = 5 * time.Minute
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Stats is a point-in-time snapshot of the cache's counters.
type Stats struct {
	Size      int
	MaxSize   int
	Hits      int64
	Misses    int64
	HitRate   float64
	Evictions int64
}

// Cache is a thread-safe LRU cache with per-entry expiry. All methods
// are guarded by a single mutex so the counters stay consistent.
type Cache[V any] struct {
	mu       sync.Mutex
	lru      *lru.Cache[string, entry[V]]
	ttl      time.Duration
	maxSize  int
	hits     int64
	misses   int64
	evicted  int64
}

// New builds a Cache bounded by maxEntries with the given per-entry TTL.
// maxEntries <= 0 and ttl <= 0 fall back to the package defaults.
func New[V any](maxEntries int, ttl time.Duration) *Cache[V] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &Cache[V]{ttl: ttl, maxSize: maxEntries}
	inner, _ := lru.New[string, entry[V]](maxEntries)
	c.lru = inner
	return c
}

// Get returns the cached value for key, or (zero, false) on a miss or an
// expired entry (which is treated as absent and removed).
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.lru.Get(key)
	if !ok {
		c.misses++
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		c.lru.Remove(key)
		c.misses++
		return zero, false
	}
	c.hits++
	return e.value, true
}

// Put inserts or overwrites the cached value for key, resetting its TTL.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Add reports whether it displaced the LRU entry to make room; only
	// those capacity evictions count toward the stat — TTL removals and
	// whole-cache invalidations do not.
	if evicted := c.lru.Add(key, entry[V]{value: value, expiresAt: time.Now().Add(c.ttl)}); evicted {
		c.evicted++
	}
}

// Invalidate drops every cached entry. Called on any ingest write;
// invalidation is deliberately whole-cache, not per-query.
func (c *Cache[V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Purge()
}

// Stats returns a snapshot of the cache's counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return Stats{
		Size:      c.lru.Len(),
		MaxSize:   c.maxSize,
		Hits:      c.hits,
		Misses:    c.misses,
		HitRate:   hitRate,
		Evictions: c.evicted,
	}
}
