// Package syncadapter implements the Sync Adapter (C3): a host-side
// facade that turns a potentially-asynchronous triple store into the
// synchronous Store contract the FFI bridge requires, by keeping an
// in-memory cache and performing backing-store writes through in the
// background. See spec.md §4.3.
package syncadapter

import (
	"context"

	"github.com/pubwiki/luavm/internal/rdferr"
	"github.com/pubwiki/luavm/internal/rdfmodel"
	"github.com/pubwiki/luavm/internal/rdfstore"
	"github.com/pubwiki/luavm/pkg/logging"
)

// job is one deferred write-through operation.
type job func()

// defaultQueueDepth bounds how many background jobs may be buffered
// before Adapter starts spawning a goroutine per job instead of queuing.
// Either way the foreground call never blocks on it.
const defaultQueueDepth = 256

// Adapter wraps an rdfstore.AsyncStore and exposes rdfstore.Store. Its
// cache is authoritative for Query within the lifetime of one invocation;
// the backing store may lag. Background failures are reported to logger
// and never surfaced synchronously, per spec.md §4.3's failure policy.
type Adapter struct {
	backing rdfstore.AsyncStore
	cache   *cache
	logger  logging.Logger

	jobs chan job
	done chan struct{}
}

// New constructs a Sync Adapter around backing. The cache starts empty
// (spec.md §4.3 "cold start"); call Warm to seed it from existing store
// state.
func New(backing rdfstore.AsyncStore, logger logging.Logger) *Adapter {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	a := &Adapter{
		backing: backing,
		cache:   newCache(),
		logger:  logger,
		jobs:    make(chan job, defaultQueueDepth),
		done:    make(chan struct{}),
	}
	go a.drain()
	return a
}

// Close stops the background worker. Jobs already enqueued are allowed to
// finish; writes made after Close are not guaranteed to reach the backing
// store.
func (a *Adapter) Close() {
	close(a.done)
}

func (a *Adapter) drain() {
	for {
		select {
		case j := <-a.jobs:
			j()
		case <-a.done:
			for {
				select {
				case j := <-a.jobs:
					j()
				default:
					return
				}
			}
		}
	}
}

// enqueue never blocks the foreground caller: when the queue is full, the
// job runs on its own goroutine instead of waiting for a slot.
func (a *Adapter) enqueue(j job) {
	select {
	case a.jobs <- j:
	default:
		go j()
	}
}

// Insert implements rdfstore.Store.
func (a *Adapter) Insert(_ context.Context, t rdfmodel.StoredTriple) error {
	a.cache.insert(t)
	a.enqueue(func() {
		res := a.backing.InsertAsync(context.Background(), t)
		if err := res.Err(context.Background()); err != nil {
			a.logger.Error("background insert failed", err,
				logging.F("subject", t.Subject), logging.F("predicate", t.Predicate))
		}
	})
	return nil
}

// Delete implements rdfstore.Store.
func (a *Adapter) Delete(_ context.Context, subject, predicate string, obj *rdfmodel.Term) error {
	pattern := rdfmodel.Pattern{Subject: &subject, Predicate: &predicate, Object: obj}
	a.cache.deleteMatching(pattern)
	a.enqueue(func() {
		res := a.backing.DeleteAsync(context.Background(), subject, predicate, obj)
		if err := res.Err(context.Background()); err != nil {
			a.logger.Error("background delete failed", err,
				logging.F("subject", subject), logging.F("predicate", predicate))
		}
	})
	return nil
}

// Query implements rdfstore.Store. It is answered entirely from the
// cache and never blocks on outstanding background writes.
func (a *Adapter) Query(_ context.Context, pattern rdfmodel.Pattern) ([]rdfmodel.StoredTriple, error) {
	return a.cache.query(pattern), nil
}

// BatchInsert implements rdfstore.BatchInserter. It updates the cache for
// every triple, then enqueues one batch operation if the backing store
// supports AsyncBatchInserter, or falls back to N individual inserts.
func (a *Adapter) BatchInsert(_ context.Context, ts []rdfmodel.StoredTriple) error {
	for _, t := range ts {
		a.cache.insert(t)
	}
	if batcher, ok := a.backing.(rdfstore.AsyncBatchInserter); ok {
		a.enqueue(func() {
			res := batcher.BatchInsertAsync(context.Background(), ts)
			if err := res.Err(context.Background()); err != nil {
				a.logger.Error("background batch insert failed", err, logging.F("count", len(ts)))
			}
		})
		return nil
	}
	for _, t := range ts {
		t := t
		a.enqueue(func() {
			res := a.backing.InsertAsync(context.Background(), t)
			if err := res.Err(context.Background()); err != nil {
				a.logger.Error("background insert failed (batch fallback)", err,
					logging.F("subject", t.Subject), logging.F("predicate", t.Predicate))
			}
		})
	}
	return nil
}

// Warm queries the backing store once and seeds the cache with the
// result. The core does not mandate calling this (spec.md §4.3 "cold
// start"); it exists for hosts that want a warm cache before serving
// invocations against a store with prior state.
func (a *Adapter) Warm(ctx context.Context, pattern rdfmodel.Pattern) error {
	aq, err := a.backing.QueryAsync(ctx, pattern)
	if err != nil {
		return rdferr.Wrap(rdferr.KindStoreBackendError, err, "warm up query")
	}
	triples, err := aq.Result(ctx)
	if err != nil {
		return rdferr.Wrap(rdferr.KindStoreBackendError, err, "warm up query result")
	}
	for _, t := range triples {
		a.cache.insert(t)
	}
	return nil
}

// CacheSize reports how many triples the cache currently holds; mostly
// useful for tests and diagnostics.
func (a *Adapter) CacheSize() int {
	return a.cache.size()
}

var _ rdfstore.Store = (*Adapter)(nil)
var _ rdfstore.BatchInserter = (*Adapter)(nil)
