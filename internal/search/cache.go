// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"sync"
	"time"

	"github.com/jeranaias/opschat/internal/model"
)

// =============================================================================
// SEARCH RESULT
// =============================================================================

// Result is a matched message denormalized with its thread title and an
// optional relevance score. Score is zero for remote results unless the
// backend supplies one.
type Result struct {
	model.Message

	ThreadTitle string  `json:"thread_title"`
	Score       float64 `json:"score,omitempty"`
}

// =============================================================================
// TTL CACHE
// =============================================================================

// DefaultCacheTTL is how long a cached result set stays usable.
const DefaultCacheTTL = 5 * time.Minute

// cacheEntry is one memoized result set with its insertion time and
// eviction timer.
type cacheEntry struct {
	results    []Result
	insertedAt time.Time
	timer      *time.Timer
}

// Cache memoizes search results by (query, filters) key for a fixed
// TTL. Each entry schedules its own eviction, but expiry is re-checked
// at the moment of every read: an expired entry is never returned even
// if its timer has not fired yet.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	ttl     time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewCache creates a cache with the given TTL (<= 0 uses the default).
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// TTL returns the configured entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached results for key if present and not expired.
func (c *Cache) Get(key string) ([]Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.insertedAt) >= c.ttl {
		c.removeLocked(key)
		return nil, false
	}
	return entry.results, true
}

// Put stores results under key and schedules their eviction.
func (c *Cache) Put(key string, results []Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeLocked(key)
	c.entries[key] = &cacheEntry{
		results:    results,
		insertedAt: c.now(),
		timer: time.AfterFunc(c.ttl, func() {
			c.Invalidate(key)
		}),
	}
}

// Invalidate drops one entry.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

// Clear drops every entry and stops their eviction timers. Teardown
// hook for the hosting application and for tests.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		c.removeLocked(key)
	}
}

// Len returns the number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// removeLocked drops an entry and stops its timer (must hold mu).
func (c *Cache) removeLocked(key string) {
	if entry, ok := c.entries[key]; ok {
		if entry.timer != nil {
			entry.timer.Stop()
		}
		delete(c.entries, key)
	}
}
