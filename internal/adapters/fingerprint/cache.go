package fingerprint

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// VendorCache is an LRU cache in front of the OUI registry database.
type VendorCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	key   string
	value string
}

// NewVendorCache creates an LRU cache with the given capacity.
func NewVendorCache(capacity int) *VendorCache {
	if capacity < 1 {
		capacity = 1
	}
	return &VendorCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get retrieves a cached vendor, promoting the entry to most recent.
func (c *VendorCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		c.hits.Add(1)
		return elem.Value.(*cacheEntry).value, true
	}
	c.misses.Add(1)
	return "", false
}

// Set stores a vendor, evicting the oldest entry when over capacity.
func (c *VendorCache) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	elem := c.lru.PushFront(&cacheEntry{key: key, value: value})
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Len returns the number of cached entries.
func (c *VendorCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns hit/miss counters accumulated since creation.
func (c *VendorCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Clear drops all entries.
func (c *VendorCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*list.Element)
	c.lru = list.New()
}
