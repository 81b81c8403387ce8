package advisor

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache holds recent recommendations keyed by Signature. Entries expire after
// ttl and the least recently used entry is evicted once maxSize is reached.
type Cache struct {
	lru *expirable.LRU[string, Recommendation]
}

// NewCache creates a recommendation cache.
func NewCache(maxSize int, ttl time.Duration) *Cache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Cache{lru: expirable.NewLRU[string, Recommendation](maxSize, nil, ttl)}
}

// Get returns a copy of the cached recommendation marked FromCache.
func (c *Cache) Get(signature string) (*Recommendation, bool) {
	rec, ok := c.lru.Get(signature)
	if !ok {
		return nil, false
	}
	rec.FromCache = true
	return &rec, true
}

// Put stores rec under signature, replacing any earlier entry.
func (c *Cache) Put(signature string, rec *Recommendation) {
	c.lru.Add(signature, *rec)
}

// Size returns the number of cached entries. Expired entries count until the
// background sweep drops them.
func (c *Cache) Size() int {
	return c.lru.Len()
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.lru.Purge()
}
