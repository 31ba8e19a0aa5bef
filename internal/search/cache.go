package search

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

const DefaultCacheTTL = 3600 * time.Second

// CacheStore is the key-value collaborator behind ResultCache.
// Get reports found=false on a miss.
type CacheStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
}

// ResultCache short-circuits repeated identical searches. Entries only leave
// through TTL expiry. Store failures are logged and reported as a miss, never
// as an error: a broken cache must not fail the search itself.
type ResultCache struct {
	store CacheStore
	ttl   time.Duration
}

// NewResultCache returns a cache over store; a nil store disables caching.
func NewResultCache(store CacheStore, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResultCache{store: store, ttl: ttl}
}

// Get decodes a cached payload into dest and reports whether it was a hit.
func (c *ResultCache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil || c.store == nil {
		return false
	}
	raw, found, err := c.store.Get(ctx, key)
	if err != nil {
		log.Printf("[search][cache] get failed key=%q: %v", key, err)
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		log.Printf("[search][cache] corrupt entry key=%q: %v", key, err)
		return false
	}
	return true
}

// Set stores value under key for the configured TTL; last writer wins.
func (c *ResultCache) Set(ctx context.Context, key string, value any) {
	if c == nil || c.store == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		log.Printf("[search][cache] encode failed key=%q: %v", key, err)
		return
	}
	if err := c.store.SetWithTTL(ctx, key, string(payload), c.ttl); err != nil {
		log.Printf("[search][cache] set failed key=%q: %v", key, err)
	}
}

func (c *ResultCache) TTL() time.Duration {
	if c == nil {
		return 0
	}
	return c.ttl
}
