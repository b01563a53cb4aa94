//go:build wasip1

// Command luavm builds the wasip1/wasm reactor module: a host embeds the
// compiled binary and drives it entirely through the lua_run/lua_free_result
// exports (see internal/wasmabi). main never runs its own loop — it only
// exists because a wasm binary needs one, and the reactor model calls
// exported functions instead of letting _start block.
package main

import _ "github.com/pubwiki/luavm/internal/wasmabi"

func main() {}
