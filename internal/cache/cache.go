// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

// Package cache provides a thread-safe in-memory result cache with TTL
// expiration. Statistics queries are expensive aggregations over the
// scrobble store, so computed results are cached for a short window and
// invalidated wholesale whenever an import changes the underlying data.
package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// entry is a cached value with its expiration deadline.
type entry struct {
	data      interface{}
	expiresAt time.Time
}

// Cache is a thread-safe in-memory cache with per-entry TTL.
//
// Entries expire lazily on read and are swept periodically by a
// background goroutine. Close stops the sweeper; the cache remains
// usable afterwards but expired entries are then only removed on read.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration

	stats Stats

	stopOnce sync.Once
	stop     chan struct{}
}

// Stats tracks cache effectiveness counters.
type Stats struct {
	mu          sync.RWMutex
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

// sweepInterval is how often the background sweeper scans for expired
// entries. Kept independent of the entry TTL so short-lived caches do
// not spin a hot loop.
const sweepInterval = 5 * time.Minute

// New creates a cache whose entries expire after ttl and starts the
// background sweeper. Call Close when the cache is no longer needed.
func New(ttl time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		stop:    make(chan struct{}),
		stats: Stats{
			LastCleanup: time.Now(),
		},
	}

	go c.sweepLoop()

	return c
}

// Close stops the background sweeper. Safe to call more than once.
func (c *Cache) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// Get returns the cached value for key, or (nil, false) if the key is
// absent or expired. Expired entries are removed on access.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}

	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		c.recordMiss()
		c.recordEviction()
		return nil, false
	}

	c.recordHit()
	return e.data, true
}

// Set stores value under key with the cache's default TTL.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with a custom TTL, overwriting any
// existing entry.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	}
	total := int64(len(c.entries))
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.TotalKeys = total
	c.stats.mu.Unlock()
}

// Delete removes the entry for key. No-op if the key is absent.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	c.recordEviction()
}

// Clear removes every entry in a single atomic operation. Called after
// an import completes so subsequent queries see the new data.
func (c *Cache) Clear() {
	c.mu.Lock()
	evicted := int64(len(c.entries))
	c.entries = make(map[string]entry)
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.Evictions += evicted
	c.stats.TotalKeys = 0
	c.stats.mu.Unlock()
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache) GetStats() Stats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()

	return Stats{
		Hits:        c.stats.Hits,
		Misses:      c.stats.Misses,
		Evictions:   c.stats.Evictions,
		TotalKeys:   c.stats.TotalKeys,
		LastCleanup: c.stats.LastCleanup,
	}
}

// HitRate returns the hit rate as a percentage, 0 when no lookups have
// happened yet.
func (c *Cache) HitRate() float64 {
	s := c.GetStats()
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}
	return float64(s.Hits) / float64(total) * 100.0
}

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

// sweep removes all expired entries.
func (c *Cache) sweep() {
	now := time.Now()
	c.mu.Lock()
	evicted := int64(0)
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	total := int64(len(c.entries))
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.Evictions += evicted
	c.stats.TotalKeys = total
	c.stats.LastCleanup = now
	c.stats.mu.Unlock()
}

func (c *Cache) recordHit() {
	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
}

func (c *Cache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
}

func (c *Cache) recordEviction() {
	c.stats.mu.Lock()
	c.stats.Evictions++
	c.stats.mu.Unlock()
}

// GenerateKey builds a cache key from an operation name and its
// parameters. Parameters are serialized to JSON and hashed so that
// structurally identical requests map to the same key. Callers that
// embed a current-time value in params should truncate it first (see
// TruncateNow) so keys remain stable within a short interval.
func GenerateKey(op string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Fallback to a best-effort string key.
		return fmt.Sprintf("%s:%v", op, params)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", op, hash[:16])
}

// TruncateNow rounds a reference time down to the minute in UTC.
// Using the truncated value in cache keys lets requests arriving within
// the same minute share an entry even though their exact "now" differs.
func TruncateNow(now time.Time) time.Time {
	return now.UTC().Truncate(time.Minute)
}
