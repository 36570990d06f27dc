// Copyright Precisionmatics Inc., 2026. All rights reserved.

// Package cache provides a bounded in-memory cache with per-entry TTL,
// used to memoize network-dependent lookups for the duration of a session.
package cache

import (
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is a size-bounded LRU with TTL expiry. The zero value is not
// usable; construct with New.
type Cache[K comparable, V any] struct {
	lru    *lru.LRU[K, V]
	hits   atomic.Int64
	misses atomic.Int64
}

// New returns a cache holding at most size entries, each valid for ttl.
// A size below 1 is raised to 1; a zero ttl means entries never expire.
func New[K comparable, V any](size int, ttl time.Duration) *Cache[K, V] {
	if size < 1 {
		size = 1
	}
	return &Cache[K, V]{
		lru: lru.NewLRU[K, V](size, nil, ttl),
	}
}

// Get returns the cached value for key and whether it was present.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Set stores value under key, evicting the least recently used entry
// when the cache is full.
func (c *Cache[K, V]) Set(key K, value V) {
	c.lru.Add(key, value)
}

// Len returns the number of live entries.
func (c *Cache[K, V]) Len() int {
	return c.lru.Len()
}

// Stats returns the hit and miss counts since construction.
func (c *Cache[K, V]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
