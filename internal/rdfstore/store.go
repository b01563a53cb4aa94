// Package rdfstore defines the host-provided triple store contract (C2):
// the abstract interface a host embedder implements to back Lua's
// State.* calls, independent of whether the backend answers synchronously
// or asynchronously.
package rdfstore

import (
	"context"

	"github.com/pubwiki/luavm/internal/rdfmodel"
)

// Store is the synchronous capability set every backend must provide.
// Implementations are free to be in-memory, persistent, or networked; the
// core only depends on this interface.
type Store interface {
	// Insert appends one triple. It must not fail for well-formed input;
	// backend errors propagate as-is.
	Insert(ctx context.Context, t rdfmodel.StoredTriple) error
	// Delete removes triples matching (subject, predicate, *) when obj is
	// nil, or only exact matches when obj is non-nil.
	Delete(ctx context.Context, subject, predicate string, obj *rdfmodel.Term) error
	// Query returns all triples matching pattern, in unspecified order.
	Query(ctx context.Context, pattern rdfmodel.Pattern) ([]rdfmodel.StoredTriple, error)
}

// BatchInserter is an optional capability: inserting many triples at once,
// semantically equivalent to (but potentially more efficient than)
// inserting each in sequence. Callers that need it must use a capability
// check and fall back to per-triple Insert when absent.
type BatchInserter interface {
	BatchInsert(ctx context.Context, ts []rdfmodel.StoredTriple) error
}

// Transactor is an optional capability: running a body function with
// all-or-nothing semantics. Its absence means callers must not assume
// atomicity across multiple Store calls.
type Transactor interface {
	Transaction(ctx context.Context, body func(Store) error) error
}

// AsyncResult is returned by AsyncStore operations in place of an
// immediate error: Err blocks (respecting ctx) until the deferred
// operation completes or fails.
type AsyncResult interface {
	Err(ctx context.Context) error
}

// AsyncStore is the potentially-asynchronous variant of the same
// operation contract: every call may return a deferred result instead of
// completing immediately. The Sync Adapter (package syncadapter) bridges
// an AsyncStore to the Store interface the rest of the runtime expects.
type AsyncStore interface {
	InsertAsync(ctx context.Context, t rdfmodel.StoredTriple) AsyncResult
	DeleteAsync(ctx context.Context, subject, predicate string, obj *rdfmodel.Term) AsyncResult
	QueryAsync(ctx context.Context, pattern rdfmodel.Pattern) (AsyncQueryResult, error)
}

// AsyncQueryResult is the deferred counterpart to a Query call.
type AsyncQueryResult interface {
	Result(ctx context.Context) ([]rdfmodel.StoredTriple, error)
}

// AsyncBatchInserter is AsyncStore's optional batch-insert capability.
type AsyncBatchInserter interface {
	BatchInsertAsync(ctx context.Context, ts []rdfmodel.StoredTriple) AsyncResult
}

// IsAsync performs the one-shot capability check the orchestrator (C7,
// step 1) uses to decide whether a store needs wrapping in the Sync
// Adapter: a backend declares itself asynchronous by implementing
// AsyncStore, rather than the orchestrator sniffing language-level
// introspection (spec.md §9 Open Questions flags exactly this as the
// source's weak point; this is the redesigned, explicit contract).
func IsAsync(s any) (AsyncStore, bool) {
	as, ok := s.(AsyncStore)
	return as, ok
}
