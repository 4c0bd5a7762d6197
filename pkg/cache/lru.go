package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// keySep separates the algorithm and word parts of a key. Neither part can
// contain it after normalization.
const keySep = "\x00"

// entry represents a cached stem
type entry struct {
	key       string
	stem      string
	expiresAt time.Time // zero when the cache has no TTL
	element   *list.Element
}

// Stats is a snapshot of cache counters
type Stats struct {
	Capacity   int     `json:"capacity"`
	Size       int     `json:"size"`
	Hits       uint64  `json:"hits"`
	Misses     uint64  `json:"misses"`
	Evictions  uint64  `json:"evictions"`
	HitRate    float64 `json:"hit_rate"` // percent
	TTLSeconds float64 `json:"ttl_seconds"`
}

// LRUCache is a thread-safe LRU cache of stems with optional TTL
type LRUCache struct {
	mu        sync.Mutex
	capacity  int
	ttl       time.Duration
	items     map[string]*entry
	lruList   *list.List
	hits      uint64
	misses    uint64
	evictions uint64
	now       func() time.Time
}

// NewLRUCache creates a new LRU cache holding at most capacity stems.
// A ttl of 0 keeps entries until they are evicted.
func NewLRUCache(capacity int, ttl time.Duration) *LRUCache {
	if capacity < 1 {
		capacity = 1
	}
	return &LRUCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*entry),
		lruList:  list.New(),
		now:      time.Now,
	}
}

// Key builds the cache key for a word stemmed by algorithm
func Key(algorithm, word string) string {
	return algorithm + keySep + word
}

// Get retrieves a stem from the cache
func (c *LRUCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.items[key]
	if !exists {
		c.misses++
		return "", false
	}

	if c.expired(e, c.now()) {
		c.remove(e)
		c.misses++
		return "", false
	}

	// Move to front (most recently used)
	c.lruList.MoveToFront(e.element)
	c.hits++
	return e.stem, true
}

// Put adds a stem to the cache
func (c *LRUCache) Put(key, stem string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Time{}
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	if e, exists := c.items[key]; exists {
		e.stem = stem
		e.expiresAt = expiresAt
		c.lruList.MoveToFront(e.element)
		return
	}

	e := &entry{
		key:       key,
		stem:      stem,
		expiresAt: expiresAt,
	}
	e.element = c.lruList.PushFront(e)
	c.items[key] = e

	if c.lruList.Len() > c.capacity {
		c.evictOldest()
	}
}

func (c *LRUCache) expired(e *entry, now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// evictOldest removes the least recently used item
func (c *LRUCache) evictOldest() {
	oldest := c.lruList.Back()
	if oldest != nil {
		c.remove(oldest.Value.(*entry))
		c.evictions++
	}
}

func (c *LRUCache) remove(e *entry) {
	c.lruList.Remove(e.element)
	delete(c.items, e.key)
}

// Purge removes every stem cached for algorithm and returns how many were dropped
func (c *LRUCache) Purge(algorithm string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := algorithm + keySep
	removed := 0
	for key, e := range c.items {
		if strings.HasPrefix(key, prefix) {
			c.remove(e)
			removed++
		}
	}
	return removed
}

// Clear removes all entries from the cache
func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*entry)
	c.lruList = list.New()
}

// Size returns the current number of items in the cache
func (c *LRUCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}

// Stats returns cache statistics
func (c *LRUCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(c.hits) / float64(total) * 100
	}

	return Stats{
		Capacity:   c.capacity,
		Size:       len(c.items),
		Hits:       c.hits,
		Misses:     c.misses,
		Evictions:  c.evictions,
		HitRate:    hitRate,
		TTLSeconds: c.ttl.Seconds(),
	}
}

// CleanupExpired removes all expired entries (should be called periodically)
func (c *LRUCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ttl <= 0 {
		return 0
	}

	now := c.now()
	removed := 0
	for _, e := range c.items {
		if c.expired(e, now) {
			c.remove(e)
			removed++
		}
	}

	return removed
}
