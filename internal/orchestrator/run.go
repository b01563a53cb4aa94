// Package orchestrator implements the Invocation Orchestrator (C7): the
// per-call sequence that ties the host store, Sync Adapter, FFI Bridge,
// and Lua Embedding together into one Run, guaranteeing bridge slot
// cleanup on every exit path including panics (spec.md §4.7, §5).
package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"github.com/pubwiki/luavm/internal/ffi"
	"github.com/pubwiki/luavm/internal/luavm"
	"github.com/pubwiki/luavm/internal/rdferr"
	"github.com/pubwiki/luavm/internal/rdfstore"
	"github.com/pubwiki/luavm/internal/require"
	"github.com/pubwiki/luavm/internal/syncadapter"
	"github.com/pubwiki/luavm/pkg/logging"
)

// Orchestrator owns the process-lifetime collaborators a Run needs: the
// FFI bridge's active-store-slot map, the require resolver (and its
// process-wide cache), a logger, and VM churn stats. None of these carry
// per-invocation state between Run calls.
type Orchestrator struct {
	bridge   *ffi.Bridge
	resolver *require.Resolver
	logger   logging.Logger
	stats    *luavm.Stats
}

// Deps configures an Orchestrator. Logger defaults to a no-op.
type Deps struct {
	Resolver *require.Resolver
	Logger   logging.Logger
}

// New constructs an Orchestrator.
func New(deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	return &Orchestrator{
		bridge:   ffi.NewBridge(),
		resolver: deps.Resolver,
		logger:   deps.Logger,
		stats:    &luavm.Stats{},
	}
}

// Stats reports VM construction/teardown counters accumulated across all
// Run calls on this Orchestrator.
func (o *Orchestrator) Stats() luavm.Snapshot {
	return o.stats.Read()
}

// Run executes one invocation of source against store: it performs the
// one-shot asynchrony capability check (wrapping store in a fresh Sync
// Adapter when it implements rdfstore.AsyncStore), acquires an FFI bridge
// slot under a fresh per-invocation handle, constructs a VM, executes
// source, and releases the slot before returning — regardless of whether
// the run succeeded, errored, or panicked.
func (o *Orchestrator) Run(ctx context.Context, source string, store rdfstore.Store) (*Response, error) {
	if store == nil {
		return nil, rdferr.New(rdferr.KindStoreUninitialised, "RDFStore not initialized")
	}

	effectiveStore, cleanup := o.adaptStore(store)
	defer cleanup()

	handle := uuid.NewString()
	o.bridge.Acquire(handle, effectiveStore)
	defer o.bridge.Release(handle)

	vm := luavm.New(luavm.Options{
		Host:     boundHost{bridge: o.bridge, handle: handle},
		Resolver: o.resolver,
		Logger:   o.logger,
		Stats:    o.stats,
	})
	defer vm.Close()

	result, output, err := vm.Run(source)
	if err != nil {
		o.logger.Warn("invocation failed", logging.F("handle", handle), logging.F("error", err.Error()))
		return &Response{Output: output, Result: nil, Error: errString(err.Error())}, err
	}
	return &Response{Output: output, Result: result, Error: nil}, nil
}

// adaptStore performs the spec.md §9 capability check: an rdfstore.Store
// that also implements rdfstore.AsyncStore is wrapped in a fresh Sync
// Adapter scoped to this one invocation, so its read-your-writes cache
// never leaks state into a later Run. The returned cleanup stops the
// adapter's background worker after it has run the writes still queued at
// that point; their failures are only logged (spec.md §4.3).
func (o *Orchestrator) adaptStore(store rdfstore.Store) (rdfstore.Store, func()) {
	if asyncStore, ok := rdfstore.IsAsync(store); ok {
		adapter := syncadapter.New(asyncStore, o.logger)
		return adapter, adapter.Close
	}
	return store, func() {}
}

// boundHost adapts ffi.Bridge to luavm.HostFuncs for one fixed handle, so
// the VM never sees the bridge's handle map directly.
type boundHost struct {
	bridge *ffi.Bridge
	handle string
}

func (h boundHost) Insert(subject, predicate, objJSON string) string {
	return h.bridge.Insert(h.handle, subject, predicate, objJSON)
}

func (h boundHost) Delete(subject, predicate, objJSON string) string {
	return h.bridge.Delete(h.handle, subject, predicate, objJSON)
}

func (h boundHost) Query(patternJSON string) string {
	return h.bridge.Query(h.handle, patternJSON)
}

func (h boundHost) BatchInsert(triplesJSON string) string {
	return h.bridge.BatchInsert(h.handle, triplesJSON)
}
