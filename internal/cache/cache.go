// Package cache holds query results (reminder ranges, aggregates) keyed by a
// prefix per record kind so a write can drop everything derived from it.
package cache

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jmhodges/clock"
)

// Key prefixes used by the planner.
const (
	PrefixReminders = "reminders:"
	PrefixInsights  = "insights:"
	PrefixGroups    = "groups:"
)

// Entry represents a cached query result
type Entry struct {
	Value      any
	ExpiresAt  time.Time
	AccessedAt time.Time
}

// Config holds configuration for the query cache
type Config struct {
	TTL             time.Duration // How long entries stay valid
	MaxEntries      int           // Maximum number of entries before eviction
	CleanupInterval time.Duration // How often to run cleanup, 0 disables the loop
}

// DefaultConfig provides sensible defaults
var DefaultConfig = Config{
	TTL:             5 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: time.Minute,
}

// Cache is a TTL cache with prefix invalidation and snapshots.
type Cache struct {
	entries     map[string]*Entry
	mutex       sync.RWMutex
	ttl         time.Duration
	maxEntries  int
	clk         clock.Clock
	stopCleanup chan struct{}
	closeOnce   sync.Once
}

// New creates a cache. A cleanup goroutine runs when CleanupInterval is set;
// call Close to stop it.
func New(config Config, clk clock.Clock) *Cache {
	c := &Cache{
		entries:     make(map[string]*Entry),
		ttl:         config.TTL,
		maxEntries:  config.MaxEntries,
		clk:         clk,
		stopCleanup: make(chan struct{}),
	}
	if config.CleanupInterval > 0 {
		go c.cleanupLoop(config.CleanupInterval)
	}
	return c
}

// Key builds a cache key under prefix from the query parameters.
func Key(prefix string, parts ...string) string {
	hasher := sha256.New()
	for _, p := range parts {
		hasher.Write([]byte(p))
		hasher.Write([]byte{0})
	}
	return fmt.Sprintf("%s%x", prefix, hasher.Sum(nil)[:12])
}

// Get retrieves a cached value if it exists and hasn't expired
func (c *Cache) Get(key string) (any, bool) {
	now := c.clk.Now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if now.After(entry.ExpiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	entry.AccessedAt = now
	return entry.Value, true
}

// Set stores a value in the cache
func (c *Cache) Set(key string, value any) {
	now := c.clk.Now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = &Entry{Value: value, ExpiresAt: now.Add(c.ttl), AccessedAt: now}
	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.cleanup(now)
	}
}

// InvalidatePrefix drops every entry whose key starts with one of the
// prefixes and returns how many were removed.
func (c *Cache) InvalidatePrefix(prefixes ...string) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	n := 0
	for key := range c.entries {
		if hasAnyPrefix(key, prefixes) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

// Snapshot is a point-in-time copy of the entries under a prefix.
type Snapshot struct {
	prefix  string
	entries map[string]Entry
}

// Snapshot copies the entries under prefix so they can be restored later.
// Values are not deep-copied; callers replace values instead of mutating
// them.
func (c *Cache) Snapshot(prefix string) Snapshot {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	snap := Snapshot{prefix: prefix, entries: make(map[string]Entry)}
	for key, entry := range c.entries {
		if strings.HasPrefix(key, prefix) {
			snap.entries[key] = *entry
		}
	}
	return snap
}

// Restore puts the cache back to the snapshot state for its prefix.
func (c *Cache) Restore(snap Snapshot) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for key := range c.entries {
		if strings.HasPrefix(key, snap.prefix) {
			delete(c.entries, key)
		}
	}
	for key, entry := range snap.entries {
		e := entry
		c.entries[key] = &e
	}
}

// Update replaces every value under prefix with apply(value). Expiry is
// left unchanged.
func (c *Cache) Update(prefix string, apply func(any) any) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for key, entry := range c.entries {
		if strings.HasPrefix(key, prefix) {
			entry.Value = apply(entry.Value)
		}
	}
}

// cleanup removes expired entries and the least recently accessed ones while
// over the limit. Callers hold the write lock.
func (c *Cache) cleanup(now time.Time) {
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
		}
	}
	if c.maxEntries <= 0 || len(c.entries) <= c.maxEntries {
		return
	}

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.entries[keys[i]].AccessedAt.Before(c.entries[keys[j]].AccessedAt)
	})
	for _, key := range keys[:len(c.entries)-c.maxEntries] {
		delete(c.entries, key)
	}
}

func (c *Cache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			c.cleanup(c.clk.Now())
			c.mutex.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// Close stops the cleanup goroutine and clears the cache
func (c *Cache) Close() {
	c.closeOnce.Do(func() { close(c.stopCleanup) })
	c.mutex.Lock()
	c.entries = make(map[string]*Entry)
	c.mutex.Unlock()
}

// Stats provides information about cache contents
type Stats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
}

// Stats returns cache statistics
func (c *Cache) Stats() Stats {
	now := c.clk.Now()

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	expired := 0
	for _, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			expired++
		}
	}
	return Stats{
		TotalEntries:   len(c.entries),
		ExpiredEntries: expired,
		ActiveEntries:  len(c.entries) - expired,
	}
}

func hasAnyPrefix(key string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}
