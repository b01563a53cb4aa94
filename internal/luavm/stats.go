package luavm

import "sync/atomic"

// Stats tracks VM construction/teardown counters, adapted from the
// teacher's core/pool instrumentation. Unlike a real object pool, VMs
// here are never reused across invocations (spec.md is explicit that a
// VM owns no cross-invocation state) — this only gives a host visibility
// into VM churn without changing the construct-once-per-invocation
// contract.
type Stats struct {
	created int64
	active  int64
	closed  int64
}

// Snapshot is the point-in-time read of a Stats counter set.
type Snapshot struct {
	Created int64
	Active  int64
	Closed  int64
}

func (s *Stats) onCreate() {
	atomic.AddInt64(&s.created, 1)
	atomic.AddInt64(&s.active, 1)
}

func (s *Stats) onClose() {
	atomic.AddInt64(&s.active, -1)
	atomic.AddInt64(&s.closed, 1)
}

// Read returns the current counters.
func (s *Stats) Read() Snapshot {
	return Snapshot{
		Created: atomic.LoadInt64(&s.created),
		Active:  atomic.LoadInt64(&s.active),
		Closed:  atomic.LoadInt64(&s.closed),
	}
}
