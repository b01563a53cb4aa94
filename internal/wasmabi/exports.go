//go:build wasip1

// Package wasmabi wires the Invocation Orchestrator to the C ABI the
// wasip1/wasm build target exposes to its host: lua_run/lua_free_result
// as exports, rdf_*/fetch_module/free_module/get_last_fetch_error as
// imports (spec.md §6). It is the only package in this module that knows
// it is running as a wasm guest; everything it calls into is ordinary Go.
package wasmabi

import (
	"context"

	"github.com/pubwiki/luavm/internal/orchestrator"
	"github.com/pubwiki/luavm/internal/require"
	"github.com/pubwiki/luavm/pkg/logging"
)

var engine *orchestrator.Orchestrator

func init() {
	engine = orchestrator.New(orchestrator.Deps{
		Resolver: require.NewResolver(require.NewRegistry(), require.NewCache(), hostFetch),
		Logger:   logging.NewDefaultLogger(nil),
	})
}

// lua_run executes one invocation's Lua source and returns a pointer to
// the null-terminated UTF-8 JSON response {output, result, error}
// (spec.md §4.5, §6). Ownership of the returned buffer transfers to the
// caller, who must release it through lua_free_result.
//
//go:wasmexport lua_run
func luaRun(codePtr uint32) uint32 {
	source := goString(codePtr)

	resp, _ := engine.Run(context.Background(), source, hostStore{})
	// Run's error return duplicates resp.Error; the response body is
	// always well-formed even on failure (spec.md §7 "every invocation
	// returns a well-formed JSON response").

	data, err := marshalJSON(resp)
	if err != nil {
		// Encoding the response itself failed: fall back to a minimal,
		// hand-built object rather than propagate a Go error across an
		// export boundary that has no channel for one.
		data = []byte(`{"output":"","result":null,"error":"internal: failed to encode response"}`)
	}

	buf := cString(string(data))
	return registerResult(buf)
}

// lua_free_result releases a buffer returned by lua_run. Idempotent on a
// null or already-freed pointer.
//
//go:wasmexport lua_free_result
func luaFreeResult(ptr uint32) {
	releaseResult(ptr)
}
