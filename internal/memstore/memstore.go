// Package memstore is a minimal synchronous rdfstore.Store used as a test
// fixture and worked example. The concrete backend is explicitly out of
// scope for the core (spec.md §1); this exists only so the rest of the
// tree has something synchronous to exercise against in tests.
package memstore

import (
	"context"
	"sync"

	"github.com/pubwiki/luavm/internal/rdfmodel"
	"github.com/pubwiki/luavm/internal/rdfstore"
)

// Store is a mutex-guarded in-memory multiset of triples.
type Store struct {
	mu      sync.RWMutex
	triples []rdfmodel.StoredTriple
}

// New constructs an empty Store.
func New() *Store {
	return &Store{}
}

func (s *Store) Insert(_ context.Context, t rdfmodel.StoredTriple) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triples = append(s.triples, t)
	return nil
}

func (s *Store) Delete(_ context.Context, subject, predicate string, obj *rdfmodel.Term) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pattern := rdfmodel.Pattern{Subject: &subject, Predicate: &predicate, Object: obj}
	kept := s.triples[:0:0]
	for _, t := range s.triples {
		if !pattern.Matches(t) {
			kept = append(kept, t)
		}
	}
	s.triples = kept
	return nil
}

func (s *Store) Query(_ context.Context, pattern rdfmodel.Pattern) ([]rdfmodel.StoredTriple, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []rdfmodel.StoredTriple
	for _, t := range s.triples {
		if pattern.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// BatchInsert implements rdfstore.BatchInserter.
func (s *Store) BatchInsert(_ context.Context, ts []rdfmodel.StoredTriple) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triples = append(s.triples, ts...)
	return nil
}

// Len reports how many triples the store currently holds.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.triples)
}

var _ rdfstore.Store = (*Store)(nil)
var _ rdfstore.BatchInserter = (*Store)(nil)
