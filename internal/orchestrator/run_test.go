package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pubwiki/luavm/internal/memstore"
	"github.com/pubwiki/luavm/internal/rdfmodel"
	"github.com/pubwiki/luavm/internal/rdfstore"
	luarequire "github.com/pubwiki/luavm/internal/require"
)

func TestRunInsertThenQuery(t *testing.T) {
	o := New(Deps{})
	store := memstore.New()

	resp, err := o.Run(context.Background(), `
		State.insert("resource://Paris", "resource://population", 2161000)
		local rows = State.query({ subject = "resource://Paris" })
		return #rows
	`, store)

	require.NoError(t, err)
	assert.Empty(t, resp.Error)
	assert.Equal(t, float64(1), resp.Result)
	assert.Equal(t, 1, store.Len())
}

func TestRunDeleteAllBySubjectPredicate(t *testing.T) {
	o := New(Deps{})
	store := memstore.New()
	require.NoError(t, store.Insert(context.Background(), mustTriple(t, "resource://Paris", "resource://alias", "Paname")))
	require.NoError(t, store.Insert(context.Background(), mustTriple(t, "resource://Paris", "resource://alias", "City of Light")))

	resp, err := o.Run(context.Background(), `
		State.delete("resource://Paris", "resource://alias")
		return #State.query({ subject = "resource://Paris" })
	`, store)

	require.NoError(t, err)
	assert.Equal(t, float64(0), resp.Result)
	assert.Equal(t, 0, store.Len())
}

func TestRunNamedNodeRoundTrip(t *testing.T) {
	o := New(Deps{})
	store := memstore.New()

	resp, err := o.Run(context.Background(), `
		State.insert("resource://Paris", "resource://capitalOf", "resource://France")
		local rows = State.query({ subject = "resource://Paris", predicate = "resource://capitalOf" })
		return rows[1].object
	`, store)

	require.NoError(t, err)
	assert.Equal(t, "resource://France", resp.Result)
}

func TestRunTypedLiteralDecoding(t *testing.T) {
	o := New(Deps{})
	store := memstore.New()

	resp, err := o.Run(context.Background(), `
		State.insert("resource://Paris", "resource://population", 2161000)
		State.insert("resource://Paris", "resource://area", 105.4)
		State.insert("resource://Paris", "resource://isCapital", true)
		local rows = State.query({ subject = "resource://Paris" })
		local byPred = {}
		for _, r in ipairs(rows) do byPred[r.predicate] = r.object end
		return {
			population = byPred["resource://population"],
			area = byPred["resource://area"],
			isCapital = byPred["resource://isCapital"],
		}
	`, store)

	require.NoError(t, err)
	m, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2161000), m["population"])
	assert.Equal(t, 105.4, m["area"])
	assert.Equal(t, true, m["isCapital"])
}

func TestRunLoadsFileModule(t *testing.T) {
	reg := luarequire.NewRegistry()
	reg.Register("Greeter", "return { greet = function(n) return 'hi '..n end }")
	resolver := luarequire.NewResolver(reg, nil, nil)

	o := New(Deps{Resolver: resolver})
	store := memstore.New()

	resp, err := o.Run(context.Background(), `
		local greeter = require("file://Greeter")
		return greeter.greet("world")
	`, store)

	require.NoError(t, err)
	assert.Equal(t, "hi world", resp.Result)
}

func TestRunUninitializedStoreErrors(t *testing.T) {
	o := New(Deps{})
	_, err := o.Run(context.Background(), `return 1`, nil)
	require.Error(t, err)
}

func TestRunAsyncStoreGoesThroughSyncAdapter(t *testing.T) {
	o := New(Deps{})
	store := &fakeAsyncStore{}

	resp, err := o.Run(context.Background(), `
		State.insert("resource://Paris", "resource://population", 2161000)
		local rows = State.query({ subject = "resource://Paris" })
		return #rows
	`, store)

	require.NoError(t, err)
	assert.Equal(t, float64(1), resp.Result)
}

func TestRunConcurrentInvocationsDoNotLeakStores(t *testing.T) {
	o := New(Deps{})
	storeA := memstore.New()
	storeB := memstore.New()

	doneA := make(chan *Response, 1)
	doneB := make(chan *Response, 1)

	go func() {
		resp, err := o.Run(context.Background(), `
			State.insert("resource://A", "resource://p", 1)
			return #State.query({ subject = "resource://A" })
		`, storeA)
		require.NoError(t, err)
		doneA <- resp
	}()
	go func() {
		resp, err := o.Run(context.Background(), `
			State.insert("resource://B", "resource://p", 2)
			return #State.query({ subject = "resource://B" })
		`, storeB)
		require.NoError(t, err)
		doneB <- resp
	}()

	respA := <-doneA
	respB := <-doneB
	assert.Equal(t, float64(1), respA.Result)
	assert.Equal(t, float64(1), respB.Result)
	assert.Equal(t, 1, storeA.Len())
	assert.Equal(t, 1, storeB.Len())
}

func mustTriple(t *testing.T, subject, predicate string, obj any) rdfmodel.StoredTriple {
	t.Helper()
	term, err := rdfmodel.EncodeTerm(obj)
	require.NoError(t, err)
	return rdfmodel.StoredTriple{Subject: subject, Predicate: predicate, Object: term}
}

// fakeAsyncStore is a minimal rdfstore.AsyncStore backed by a plain slice,
// used to exercise the orchestrator's Sync Adapter wrapping path.
type fakeAsyncStore struct {
	triples []rdfmodel.StoredTriple
}

type immediateResult struct{ err error }

func (r immediateResult) Err(context.Context) error { return r.err }

type immediateQueryResult struct {
	triples []rdfmodel.StoredTriple
	err     error
}

func (r immediateQueryResult) Result(context.Context) ([]rdfmodel.StoredTriple, error) {
	return r.triples, r.err
}

func (s *fakeAsyncStore) InsertAsync(_ context.Context, t rdfmodel.StoredTriple) rdfstore.AsyncResult {
	s.triples = append(s.triples, t)
	return immediateResult{}
}

func (s *fakeAsyncStore) DeleteAsync(_ context.Context, subject, predicate string, obj *rdfmodel.Term) rdfstore.AsyncResult {
	pattern := rdfmodel.Pattern{Subject: &subject, Predicate: &predicate, Object: obj}
	kept := s.triples[:0:0]
	for _, t := range s.triples {
		if !pattern.Matches(t) {
			kept = append(kept, t)
		}
	}
	s.triples = kept
	return immediateResult{}
}

func (s *fakeAsyncStore) QueryAsync(_ context.Context, pattern rdfmodel.Pattern) (rdfstore.AsyncQueryResult, error) {
	var out []rdfmodel.StoredTriple
	for _, t := range s.triples {
		if pattern.Matches(t) {
			out = append(out, t)
		}
	}
	return immediateQueryResult{triples: out}, nil
}
