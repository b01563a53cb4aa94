package luavm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	luarequire "github.com/pubwiki/luavm/internal/require"
)

type fakeHost struct {
	insertCalls []string
	queryReply  string
	failQuery   bool
}

func (f *fakeHost) Insert(subject, predicate, objJSON string) string {
	f.insertCalls = append(f.insertCalls, subject+"|"+predicate+"|"+objJSON)
	return "OK"
}

func (f *fakeHost) Delete(subject, predicate, objJSON string) string {
	return "OK"
}

func (f *fakeHost) Query(patternJSON string) string {
	if f.failQuery {
		return "ERROR:boom"
	}
	if f.queryReply != "" {
		return f.queryReply
	}
	return "[]"
}

func (f *fakeHost) BatchInsert(triplesJSON string) string {
	return "OK"
}

func TestRunReturnsJSONEncodedResult(t *testing.T) {
	vm := New(Options{Host: &fakeHost{}})
	defer vm.Close()

	result, _, err := vm.Run(`return 1 + 1`)
	require.NoError(t, err)
	assert.Equal(t, float64(2), result)
}

func TestRunCapturesPrintOutput(t *testing.T) {
	vm := New(Options{Host: &fakeHost{}})
	defer vm.Close()

	_, output, err := vm.Run(`print("hello", "world")`)
	require.NoError(t, err)
	assert.Equal(t, "hello\tworld\n", output)
}

func TestStateInsertReachesHost(t *testing.T) {
	host := &fakeHost{}
	vm := New(Options{Host: host})
	defer vm.Close()

	_, _, err := vm.Run(`State.insert("s", "p", "o")`)
	require.NoError(t, err)
	require.Len(t, host.insertCalls, 1)
	assert.Equal(t, `s|p|"o"`, host.insertCalls[0])
}

func TestStateQueryDecodesResultIntoLuaTable(t *testing.T) {
	host := &fakeHost{queryReply: `[{"subject":"s","predicate":"p","object":"o"}]`}
	vm := New(Options{Host: host})
	defer vm.Close()

	result, _, err := vm.Run(`
		local rows = State.query({ subject = "s" })
		return #rows
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(1), result)
}

func TestStateQueryErrorRaisesLuaError(t *testing.T) {
	host := &fakeHost{failQuery: true}
	vm := New(Options{Host: host})
	defer vm.Close()

	_, _, err := vm.Run(`State.query({})`)
	require.Error(t, err)
}

func TestStateIsReadOnly(t *testing.T) {
	vm := New(Options{Host: &fakeHost{}})
	defer vm.Close()

	_, _, err := vm.Run(`State.insert = function() end`)
	require.Error(t, err)
}

func TestRequireLoadsFileModule(t *testing.T) {
	reg := requireTestRegistry()
	resolver := requireTestResolver(reg)

	vm := New(Options{Host: &fakeHost{}, Resolver: resolver})
	defer vm.Close()

	result, _, err := vm.Run(`
		local mod = require("file://Greeter")
		return mod.greet("world")
	`)
	require.NoError(t, err)
	assert.Equal(t, "hi world", result)
}

func TestRequireCachesWithinOneVM(t *testing.T) {
	calls := 0
	resolver := requireTestResolverWithFetch(func(spec string) (string, error) {
		calls++
		return "return { n = 1 }", nil
	})

	vm := New(Options{Host: &fakeHost{}, Resolver: resolver})
	defer vm.Close()

	_, _, err := vm.Run(`
		local a = require("https://example.org/mod.lua")
		local b = require("https://example.org/mod.lua")
		return a.n + b.n
	`)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRequireDoesNotCollideAcrossMediaWikiBases(t *testing.T) {
	fetch := func(spec string) (string, error) {
		switch spec {
		case "mediawiki://en.wikipedia.org/Module:Main":
			return `return { n = require("Module:Bar").n }`, nil
		case "mediawiki://fr.wikipedia.org/Module:Main":
			return `return { n = require("Module:Bar").n }`, nil
		case "mediawiki://en.wikipedia.org/Module:Bar":
			return `return { n = 1 }`, nil
		case "mediawiki://fr.wikipedia.org/Module:Bar":
			return `return { n = 2 }`, nil
		}
		return "", assertUnknownSpec(spec)
	}
	resolver := luarequire.NewResolver(nil, nil, fetch)

	vm := New(Options{Host: &fakeHost{}, Resolver: resolver})
	defer vm.Close()

	result, _, err := vm.Run(`
		local en = require("mediawiki://en.wikipedia.org/Module:Main")
		local fr = require("mediawiki://fr.wikipedia.org/Module:Main")
		return en.n + fr.n
	`)
	require.NoError(t, err)
	assert.Equal(t, float64(3), result,
		"Module:Bar required under two different mediawiki bases must resolve to each base's own body, not a cached value from the other")
}

type assertUnknownSpec string

func (s assertUnknownSpec) Error() string { return "unexpected fetch spec: " + string(s) }

func requireTestRegistry() *luarequire.Registry {
	reg := luarequire.NewRegistry()
	reg.Register("Greeter", "return { greet = function(n) return 'hi '..n end }")
	return reg
}

func requireTestResolver(reg *luarequire.Registry) *luarequire.Resolver {
	return luarequire.NewResolver(reg, nil, nil)
}

func requireTestResolverWithFetch(fetch luarequire.FetchFunc) *luarequire.Resolver {
	return luarequire.NewResolver(nil, nil, fetch)
}
