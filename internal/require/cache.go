package require

import (
	"sync"
	"time"
)

// CacheEntry records metadata about a fetched (non-file://) module,
// mirroring the connection-info-per-entry shape the teacher's MCP client
// registry uses (map[string]*entry guarded by a mutex).
type CacheEntry struct {
	Source    string
	Scheme    string
	FetchedAt time.Time
	LastError string
}

// Cache is the process-wide remote-module cache (spec.md §4.6, §5:
// "process-wide; concurrent mutations must be serialised by the host" —
// here, by this type's mutex). It persists across invocations; Clear
// implements the mandated cache-clear operation.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
}

// NewCache constructs an empty remote-module cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]CacheEntry)}
}

// Get returns the cached source for spec, if present.
func (c *Cache) Get(spec string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[spec]
	if !ok || e.LastError != "" {
		return "", false
	}
	return e.Source, true
}

// Put records a successful fetch.
func (c *Cache) Put(spec, scheme, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[spec] = CacheEntry{Source: source, Scheme: scheme, FetchedAt: time.Now()}
}

// PutError records a failed fetch's error message without caching a
// (nonexistent) source, so repeated failures don't look like cache hits.
func (c *Cache) PutError(spec, scheme, errMsg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[spec] = CacheEntry{Scheme: scheme, FetchedAt: time.Now(), LastError: errMsg}
}

// Clear empties the cache. The host MUST have a way to do this
// (spec.md §4.6).
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]CacheEntry)
}

// Entries returns a snapshot of the cache, for diagnostics.
func (c *Cache) Entries() map[string]CacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]CacheEntry, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}
