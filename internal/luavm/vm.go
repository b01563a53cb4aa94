// Package luavm implements the Lua Embedding (C5): a fresh gopher-lua
// state per invocation, with the State global wired to the FFI Bridge and
// a require() global wired to the Require Resolver. No state persists
// across VMs; the only cross-invocation object is the Stats counter set
// (spec.md §4.3, §4.5, §5).
package luavm

import (
	"context"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/pubwiki/luavm/internal/rdferr"
	"github.com/pubwiki/luavm/internal/require"
	"github.com/pubwiki/luavm/pkg/logging"
)

// defaultCallDepth bounds gopher-lua's call/require recursion, mirroring
// the teacher's practice of capping script execution resources rather
// than trusting untrusted script input to behave.
const defaultCallDepth = 220

// defaultTimeout is the wall-clock budget for one Run call. gopher-lua has
// no preemptive interrupt of its own, but it polls ctx.Done() between
// instructions when a context is attached via SetContext, so Run wires a
// deadline context around the chunk's PCall to bound untrusted scripts
// (e.g. an infinite loop) instead of letting them run the host forever.
const defaultTimeout = 5 * time.Second

// VM is a single-invocation Lua interpreter instance.
type VM struct {
	L        *lua.LState
	logger   logging.Logger
	resolver *require.Resolver
	stack    *require.Stack
	output   *strings.Builder
	loaded   map[string]lua.LValue
	stats    *Stats
}

// Options configures VM construction. Without a Host no State global is
// installed; without a Resolver every require call raises ModuleLoadError.
// Logger and Stats default to no-ops when nil.
type Options struct {
	Host     HostFuncs
	Resolver *require.Resolver
	Logger   logging.Logger
	Stats    *Stats
}

// New constructs a fresh VM: a new gopher-lua state, the State global
// table bound to host, output capture for print/io.write, and a require()
// global bound to resolver. Callers must call Close when done.
func New(opts Options) *VM {
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Stats != nil {
		opts.Stats.onCreate()
	}

	L := lua.NewState(lua.Options{
		CallStackSize:       defaultCallDepth,
		RegistrySize:        1024 * 20,
		SkipOpenLibs:        false,
		IncludeGoStackTrace: false,
	})

	vm := &VM{
		L:        L,
		logger:   opts.Logger,
		resolver: opts.Resolver,
		stack:    require.NewStack(),
		output:   &strings.Builder{},
		loaded:   make(map[string]lua.LValue),
		stats:    opts.Stats,
	}

	if opts.Host != nil {
		installState(L, opts.Host)
	}
	vm.installOutputCapture()
	vm.installRequire()

	return vm
}

// installOutputCapture overrides print and io.write so script output is
// captured into a buffer instead of going to a real stdout, which does
// not exist in the wasip1 guest (spec.md §4.5: invocation responses
// carry captured output alongside the return value).
func (vm *VM) installOutputCapture() {
	L := vm.L
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, n)
		for i := 1; i <= n; i++ {
			parts[i-1] = lua.LVAsString(L.Get(i))
		}
		vm.output.WriteString(strings.Join(parts, "\t"))
		vm.output.WriteByte('\n')
		return 0
	}))

	ioTbl := L.NewTable()
	L.SetFuncs(ioTbl, map[string]lua.LGFunction{
		"write": func(L *lua.LState) int {
			n := L.GetTop()
			for i := 1; i <= n; i++ {
				vm.output.WriteString(lua.LVAsString(L.Get(i)))
			}
			return 0
		},
	})
	L.SetGlobal("io", ioTbl)
}

// installRequire registers a require() global dispatching to the Require
// Resolver. Relative "Module:X" specifiers and absolute mediawiki://
// specifiers push/pop the VM's own require Stack around execution of the
// fetched source, so nested relative requires resolve against the right
// base (spec.md §4.6).
func (vm *VM) installRequire() {
	L := vm.L
	L.SetGlobal("require", L.NewFunction(func(L *lua.LState) int {
		spec, err := argString(L, 1, "require specifier")
		if err != nil {
			return raiseFromErr(L, err)
		}

		if vm.resolver == nil {
			return raiseFromErr(L, rdferr.New(rdferr.KindModuleLoadError, "no require resolver configured"))
		}

		resolved, err := vm.resolver.Resolve(spec, vm.stack)
		if err != nil {
			return raiseFromErr(L, err)
		}

		// Cache loaded module values by the resolved absolute specifier,
		// not the raw spec: a relative "Module:X" resolves to a different
		// module depending on which mediawiki base is on top of the stack,
		// so the raw spec alone is not a safe cache key.
		cacheKey := resolved.Specifier
		if cacheKey == "" {
			cacheKey = spec
		}
		if cached, ok := vm.loaded[cacheKey]; ok {
			L.Push(cached)
			return 1
		}

		if resolved.MediaWikiBase != "" {
			vm.stack.Push(resolved.MediaWikiBase)
			defer vm.stack.Pop()
		}

		fn, loadErr := L.LoadString(resolved.Source)
		if loadErr != nil {
			return raiseFromErr(L, rdferr.Wrap(rdferr.KindModuleLoadError, loadErr, "compile module %s", spec))
		}

		L.Push(fn)
		if callErr := L.PCall(0, 1, nil); callErr != nil {
			return raiseFromErr(L, rdferr.Wrap(rdferr.KindModuleLoadError, callErr, "execute module %s", spec))
		}

		result := L.Get(-1)
		L.Pop(1)
		vm.loaded[cacheKey] = result
		L.Push(result)
		return 1
	}))
}

// Run compiles and executes source as the invocation's top-level chunk,
// returning its last return value (converted to a JSON-encodable Go
// value) and the captured print/io.write output.
func (vm *VM) Run(source string) (result any, output string, err error) {
	L := vm.L
	defer func() {
		if r := recover(); r != nil {
			err = rdferr.New(rdferr.KindLuaRuntimeError, "panic during execution: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	L.SetContext(ctx)

	fn, loadErr := L.LoadString(source)
	if loadErr != nil {
		return nil, vm.output.String(), rdferr.Wrap(rdferr.KindLuaRuntimeError, loadErr, "compile")
	}

	L.Push(fn)
	top := L.GetTop()
	if callErr := L.PCall(0, lua.MultRet, nil); callErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, vm.output.String(), rdferr.New(rdferr.KindLuaRuntimeError, "execution exceeded timeout of %s", defaultTimeout)
		}
		return nil, vm.output.String(), rdferr.Wrap(rdferr.KindLuaRuntimeError, callErr, "execute")
	}

	var ret lua.LValue = lua.LNil
	if L.GetTop() >= top {
		ret = L.Get(-1)
	}

	return resultToJSON(ret), vm.output.String(), nil
}

// Close releases the underlying Lua state. It is safe to call exactly
// once per VM, after which the VM must not be used again.
func (vm *VM) Close() {
	vm.L.Close()
	if vm.stats != nil {
		vm.stats.onClose()
	}
}
