package ffi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pubwiki/luavm/internal/memstore"
)

func TestInsertThenQuery(t *testing.T) {
	b := NewBridge()
	store := memstore.New()
	b.Acquire("inv-1", store)
	defer b.Release("inv-1")

	require.Equal(t, "OK", b.Insert("inv-1", "user:alice", "name", `"Alice"`))
	require.Equal(t, "OK", b.Insert("inv-1", "user:alice", "age", "30"))

	out := b.Query("inv-1", `{"subject":"user:alice"}`)
	require.False(t, strings.HasPrefix(out, "ERROR"))
	require.Contains(t, out, "Alice")
	require.Contains(t, out, "30")
}

func TestDeleteWildcard(t *testing.T) {
	b := NewBridge()
	store := memstore.New()
	b.Acquire("inv-1", store)
	defer b.Release("inv-1")

	require.Equal(t, "OK", b.Insert("inv-1", "x", "tag", `"a"`))
	require.Equal(t, "OK", b.Insert("inv-1", "x", "tag", `"b"`))
	require.Equal(t, "OK", b.Delete("inv-1", "x", "tag", ""))

	out := b.Query("inv-1", `{"subject":"x"}`)
	require.Equal(t, "[]", out)
}

func TestUninitializedStore(t *testing.T) {
	b := NewBridge()
	out := b.Insert("missing", "s", "p", `"o"`)
	require.Equal(t, "ERROR:StoreUninitialised: RDFStore not initialized", out)
}

func TestMalformedJSONIsStructuredError(t *testing.T) {
	b := NewBridge()
	store := memstore.New()
	b.Acquire("inv-1", store)
	defer b.Release("inv-1")

	out := b.Query("inv-1", `{not-json`)
	require.True(t, strings.HasPrefix(out, "ERROR:"))
}

func TestNamedNodeRoundTrip(t *testing.T) {
	b := NewBridge()
	store := memstore.New()
	b.Acquire("inv-1", store)
	defer b.Release("inv-1")

	require.Equal(t, "OK", b.Insert("inv-1", "post:1", "author", `"resource://user:alice"`))
	out := b.Query("inv-1", `{"predicate":"author"}`)
	require.Contains(t, out, `"resource://user:alice"`)
}

func TestBatchInsertObservableAsNTriples(t *testing.T) {
	b := NewBridge()
	store := memstore.New()
	b.Acquire("inv-1", store)
	defer b.Release("inv-1")

	require.Equal(t, "OK", b.BatchInsert("inv-1", `[{"subject":"a","predicate":"p","object":1},{"subject":"b","predicate":"p","object":2}]`))
	require.Equal(t, 2, store.Len())
}

func TestConcurrentInvocationsDoNotCrossPollinate(t *testing.T) {
	b := NewBridge()
	storeA := memstore.New()
	storeB := memstore.New()
	b.Acquire("a", storeA)
	b.Acquire("b", storeB)
	defer b.Release("a")
	defer b.Release("b")

	require.Equal(t, "OK", b.Insert("a", "s", "p", `"only-a"`))
	require.Equal(t, "OK", b.Insert("b", "s", "p", `"only-b"`))

	require.Equal(t, 1, storeA.Len())
	require.Equal(t, 1, storeB.Len())
	require.Contains(t, b.Query("a", "{}"), "only-a")
	require.NotContains(t, b.Query("a", "{}"), "only-b")
}
