package luavm

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/pubwiki/luavm/internal/rdferr"
)

const stateGlobalName = "State"

// HostFuncs is the set of FFI Bridge operations State needs, scoped to a
// single invocation handle. ffi.Bridge satisfies this with its handle
// parameter bound, so the VM never sees the bridge's handle map directly
// (spec.md §4.3, §4.4).
type HostFuncs interface {
	Insert(subject, predicate, objJSON string) string
	Delete(subject, predicate, objJSON string) string
	Query(patternJSON string) string
	BatchInsert(triplesJSON string) string
}

// installState registers the read-only State global table with insert,
// delete, query, and batchInsert methods, each validating its Lua
// arguments before crossing into host.
func installState(L *lua.LState, host HostFuncs) {
	tbl := L.NewTable()
	L.SetFuncs(tbl, map[string]lua.LGFunction{
		"insert":      stateInsert(host),
		"delete":      stateDelete(host),
		"query":       stateQuery(host),
		"batchInsert": stateBatchInsert(host),
	})
	L.SetGlobal(stateGlobalName, makeReadOnly(L, tbl))
}

// makeReadOnly returns an empty proxy table whose metatable reads fields
// through to t and raises a Lua error on every assignment, so Lua code
// cannot shadow or repoint State.insert etc (spec.md §4.5).
func makeReadOnly(L *lua.LState, t *lua.LTable) *lua.LTable {
	proxy := L.NewTable()
	mt := L.NewTable()
	L.SetField(mt, "__index", t)
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("State is read-only")
		return 0
	}))
	L.SetMetatable(proxy, mt)
	return proxy
}

func argString(L *lua.LState, pos int, what string) (string, error) {
	v := L.Get(pos)
	s, ok := v.(lua.LString)
	if !ok {
		return "", rdferr.New(rdferr.KindBadArgument, "%s must be a string, got %s", what, v.Type().String())
	}
	return string(s), nil
}

func raiseFromErr(L *lua.LState, err error) int {
	L.RaiseError("%s", err.Error())
	return 0
}

func stateInsert(host HostFuncs) lua.LGFunction {
	return func(L *lua.LState) int {
		subject, err := argString(L, 1, "subject")
		if err != nil {
			return raiseFromErr(L, err)
		}
		predicate, err := argString(L, 2, "predicate")
		if err != nil {
			return raiseFromErr(L, err)
		}
		objJSON := ""
		if L.GetTop() >= 3 {
			obj, err := argToJSON(L.Get(3))
			if err != nil {
				return raiseFromErr(L, err)
			}
			data, err := marshalJSON(obj)
			if err != nil {
				return raiseFromErr(L, err)
			}
			objJSON = string(data)
		} else {
			return raiseFromErr(L, rdferr.New(rdferr.KindBadArgument, "insert requires a subject, predicate, and object"))
		}
		reply := host.Insert(subject, predicate, objJSON)
		return pushReply(L, reply)
	}
}

func stateDelete(host HostFuncs) lua.LGFunction {
	return func(L *lua.LState) int {
		subject, err := argString(L, 1, "subject")
		if err != nil {
			return raiseFromErr(L, err)
		}
		predicate, err := argString(L, 2, "predicate")
		if err != nil {
			return raiseFromErr(L, err)
		}
		objJSON := ""
		if L.GetTop() >= 3 && L.Get(3) != lua.LNil {
			obj, err := argToJSON(L.Get(3))
			if err != nil {
				return raiseFromErr(L, err)
			}
			data, err := marshalJSON(obj)
			if err != nil {
				return raiseFromErr(L, err)
			}
			objJSON = string(data)
		}
		reply := host.Delete(subject, predicate, objJSON)
		return pushReply(L, reply)
	}
}

func stateQuery(host HostFuncs) lua.LGFunction {
	return func(L *lua.LState) int {
		var patternArg any
		if L.GetTop() >= 1 && L.Get(1) != lua.LNil {
			v, err := argToJSON(L.Get(1))
			if err != nil {
				return raiseFromErr(L, err)
			}
			patternArg = v
		} else {
			patternArg = map[string]any{}
		}
		data, err := marshalJSON(patternArg)
		if err != nil {
			return raiseFromErr(L, err)
		}
		reply := host.Query(string(data))
		if isErrorReply(reply) {
			return raiseFromErr(L, rdferr.New(rdferr.KindStoreBackendError, "%s", stripErrorPrefix(reply)))
		}
		var decoded any
		if err := unmarshalJSON(reply, &decoded); err != nil {
			return raiseFromErr(L, rdferr.Wrap(rdferr.KindMalformedPayload, err, "decode query result"))
		}
		L.Push(jsonToLua(L, decoded))
		return 1
	}
}

func stateBatchInsert(host HostFuncs) lua.LGFunction {
	return func(L *lua.LState) int {
		if L.GetTop() < 1 {
			return raiseFromErr(L, rdferr.New(rdferr.KindBadArgument, "batchInsert requires an array of triples"))
		}
		triples, err := argToJSON(L.Get(1))
		if err != nil {
			return raiseFromErr(L, err)
		}
		data, err := marshalJSON(triples)
		if err != nil {
			return raiseFromErr(L, err)
		}
		reply := host.BatchInsert(string(data))
		return pushReply(L, reply)
	}
}

// pushReply turns an "OK"/"ERROR:<msg>" bridge reply into either a single
// `true` return value or a raised Lua error.
func pushReply(L *lua.LState, reply string) int {
	if isErrorReply(reply) {
		return raiseFromErr(L, rdferr.New(rdferr.KindStoreBackendError, "%s", stripErrorPrefix(reply)))
	}
	L.Push(lua.LTrue)
	return 1
}

func isErrorReply(reply string) bool {
	return len(reply) >= 6 && reply[:6] == "ERROR:"
}

func stripErrorPrefix(reply string) string {
	return reply[6:]
}
