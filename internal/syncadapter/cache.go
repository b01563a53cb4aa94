package syncadapter

import (
	"sync"

	"github.com/pubwiki/luavm/internal/rdfmodel"
)

// cache is the adapter's in-memory RDF index: an unordered multiset of
// triples supporting the pattern filter of spec.md §3. It is deliberately
// simple — a guarded slice — because the adapter's authoritative view is
// expected to be small relative to a backing store and because pattern
// matching has no index structure mandated by the spec.
type cache struct {
	mu      sync.RWMutex
	triples []rdfmodel.StoredTriple
}

func newCache() *cache {
	return &cache{}
}

func (c *cache) insert(t rdfmodel.StoredTriple) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.triples = append(c.triples, t)
}

// deleteMatching removes every triple matching pattern and returns the
// removed triples, so callers can enqueue a precise background delete.
func (c *cache) deleteMatching(pattern rdfmodel.Pattern) []rdfmodel.StoredTriple {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.triples[:0:0]
	var removed []rdfmodel.StoredTriple
	for _, t := range c.triples {
		if pattern.Matches(t) {
			removed = append(removed, t)
		} else {
			kept = append(kept, t)
		}
	}
	c.triples = kept
	return removed
}

func (c *cache) query(pattern rdfmodel.Pattern) []rdfmodel.StoredTriple {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []rdfmodel.StoredTriple
	for _, t := range c.triples {
		if pattern.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

func (c *cache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.triples)
}
