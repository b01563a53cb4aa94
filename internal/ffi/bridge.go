// Package ffi implements the FFI Bridge (C4): the marshalling layer
// between the embedded VM's synchronous C-ABI imports and a host
// rdfstore.Store, keyed by an opaque per-invocation handle so that
// overlapping host calls never cross-route State.* operations
// (spec.md §4.4, §5).
package ffi

import (
	"context"
	"sync"

	"github.com/pubwiki/luavm/internal/rdferr"
	"github.com/pubwiki/luavm/internal/rdfmodel"
	"github.com/pubwiki/luavm/internal/rdfstore"
)

// Bridge holds the active-store slot: a map from invocation handle to the
// store that invocation was constructed with. This is the "per-invocation
// slots keyed by an opaque invocation handle" strategy spec.md §5 lists as
// sufficient to satisfy the concurrency contract, chosen over a single
// global slot so the bridge itself is safe under concurrent lua_run calls
// regardless of how the host schedules them.
type Bridge struct {
	mu     sync.RWMutex
	stores map[string]rdfstore.Store
}

// NewBridge constructs an empty Bridge.
func NewBridge() *Bridge {
	return &Bridge{stores: make(map[string]rdfstore.Store)}
}

// Acquire populates the slot for handle before the VM starts executing
// Lua code. The orchestrator must pair every Acquire with a Release.
func (b *Bridge) Acquire(handle string, store rdfstore.Store) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stores[handle] = store
}

// Release clears the slot for handle. It is a no-op if the slot was
// already cleared, so it is safe to call from a defer on every exit path
// (success, error, or panic recovery).
func (b *Bridge) Release(handle string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.stores, handle)
}

func (b *Bridge) lookup(handle string) (rdfstore.Store, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.stores[handle]
	return s, ok
}

// reply formats the "OK"/"ERROR:<msg>" shape every rdf_* import returns.
func reply(err error) string {
	if err == nil {
		return "OK"
	}
	return "ERROR:" + err.Error()
}

// Insert implements the rdf_insert import: objJSON is the JSON encoding
// of the object value. An empty objJSON inserts a null object; only
// delete treats an empty objJSON as a wildcard.
func (b *Bridge) Insert(handle, subject, predicate, objJSON string) string {
	store, ok := b.lookup(handle)
	if !ok {
		return reply(rdferr.New(rdferr.KindStoreUninitialised, "RDFStore not initialized"))
	}
	triple, err := decodeWireTriple(subject, predicate, objJSON)
	if err != nil {
		return reply(err)
	}
	stored, err := rdfmodel.FromWire(triple)
	if err != nil {
		return reply(err)
	}
	if err := store.Insert(context.Background(), stored); err != nil {
		return reply(rdferr.Wrap(rdferr.KindStoreBackendError, err, "insert"))
	}
	return "OK"
}

// Delete implements the rdf_delete import. An empty objJSON means
// "delete everything matching (subject, predicate, *)".
func (b *Bridge) Delete(handle, subject, predicate, objJSON string) string {
	store, ok := b.lookup(handle)
	if !ok {
		return reply(rdferr.New(rdferr.KindStoreUninitialised, "RDFStore not initialized"))
	}
	var objTerm *rdfmodel.Term
	if objJSON != "" {
		var obj any
		if err := unmarshalJSON(objJSON, &obj); err != nil {
			return reply(rdferr.Wrap(rdferr.KindMalformedPayload, err, "decode object"))
		}
		term, err := rdfmodel.EncodeTerm(obj)
		if err != nil {
			return reply(err)
		}
		objTerm = &term
	}
	if err := store.Delete(context.Background(), subject, predicate, objTerm); err != nil {
		return reply(rdferr.Wrap(rdferr.KindStoreBackendError, err, "delete"))
	}
	return "OK"
}

// Query implements the rdf_query import, returning a JSON array of
// triples or an "ERROR:<msg>" string.
func (b *Bridge) Query(handle, patternJSON string) string {
	store, ok := b.lookup(handle)
	if !ok {
		return reply(rdferr.New(rdferr.KindStoreUninitialised, "RDFStore not initialized"))
	}
	pattern, err := rdfmodel.DecodePattern([]byte(patternJSON))
	if err != nil {
		return reply(err)
	}
	results, err := store.Query(context.Background(), pattern)
	if err != nil {
		return reply(rdferr.Wrap(rdferr.KindStoreBackendError, err, "query"))
	}
	wire := make([]rdfmodel.Triple, len(results))
	for i, t := range results {
		wire[i] = t.ToWire()
	}
	data, err := rdfmodel.EncodeTriples(wire)
	if err != nil {
		return reply(err)
	}
	return string(data)
}

// BatchInsert implements the rdf_batch_insert import. It uses the
// store's BatchInserter capability when available, and falls back to
// sequential inserts otherwise (spec.md §4.2).
func (b *Bridge) BatchInsert(handle, triplesJSON string) string {
	store, ok := b.lookup(handle)
	if !ok {
		return reply(rdferr.New(rdferr.KindStoreUninitialised, "RDFStore not initialized"))
	}
	wire, err := rdfmodel.DecodeTriples([]byte(triplesJSON))
	if err != nil {
		return reply(err)
	}
	stored := make([]rdfmodel.StoredTriple, len(wire))
	for i, t := range wire {
		st, err := rdfmodel.FromWire(t)
		if err != nil {
			return reply(err)
		}
		stored[i] = st
	}
	if batcher, ok := store.(rdfstore.BatchInserter); ok {
		if err := batcher.BatchInsert(context.Background(), stored); err != nil {
			return reply(rdferr.Wrap(rdferr.KindStoreBackendError, err, "batch insert"))
		}
		return "OK"
	}
	for _, t := range stored {
		if err := store.Insert(context.Background(), t); err != nil {
			return reply(rdferr.Wrap(rdferr.KindStoreBackendError, err, "batch insert (sequential fallback)"))
		}
	}
	return "OK"
}

func decodeWireTriple(subject, predicate, objJSON string) (rdfmodel.Triple, error) {
	if subject == "" {
		return rdfmodel.Triple{}, rdferr.New(rdferr.KindBadArgument, "subject must be a non-empty string")
	}
	if predicate == "" {
		return rdfmodel.Triple{}, rdferr.New(rdferr.KindBadArgument, "predicate must be a non-empty string")
	}
	var obj any
	if objJSON != "" {
		if err := unmarshalJSON(objJSON, &obj); err != nil {
			return rdfmodel.Triple{}, rdferr.Wrap(rdferr.KindMalformedPayload, err, "decode object")
		}
	}
	return rdfmodel.Triple{Subject: subject, Predicate: predicate, Object: obj}, nil
}
