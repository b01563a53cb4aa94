package luavm

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/pubwiki/luavm/internal/rdferr"
)

// argToJSON converts a Lua value found at an argument position (e.g. the
// `object` parameter of State.insert/State.delete/State.batchInsert) to a
// JSON-encodable Go value. Functions, userdata, and threads are not valid
// argument shapes and raise BadArgument (spec.md §4.5).
func argToJSON(lv lua.LValue) (any, error) {
	switch v := lv.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LBool:
		return bool(v), nil
	case lua.LNumber:
		return float64(v), nil
	case lua.LString:
		return string(v), nil
	case *lua.LTable:
		return tableArgToJSON(v)
	default:
		return nil, rdferr.New(rdferr.KindBadArgument, "value must be JSON-encodable, got %s", lv.Type().String())
	}
}

func tableArgToJSON(t *lua.LTable) (any, error) {
	n := t.Len()
	if n > 0 && isSequence(t, n) {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			v, err := argToJSON(t.RawGetInt(i))
			if err != nil {
				return nil, err
			}
			arr[i-1] = v
		}
		return arr, nil
	}

	obj := map[string]any{}
	var outerErr error
	t.ForEach(func(k, v lua.LValue) {
		if outerErr != nil {
			return
		}
		ks, ok := k.(lua.LString)
		if !ok {
			outerErr = rdferr.New(rdferr.KindBadArgument, "table keys must be strings for JSON encoding")
			return
		}
		val, err := argToJSON(v)
		if err != nil {
			outerErr = err
			return
		}
		obj[string(ks)] = val
	})
	if outerErr != nil {
		return nil, outerErr
	}
	return obj, nil
}

// isSequence reports whether t looks like a 1-indexed array with no
// holes: exactly n entries total, all of them at integer keys 1..n.
func isSequence(t *lua.LTable, n int) bool {
	count := 0
	ok := true
	t.ForEach(func(k, _ lua.LValue) {
		count++
		idx, isNum := k.(lua.LNumber)
		if !isNum || float64(int(idx)) != float64(idx) || int(idx) < 1 || int(idx) > n {
			ok = false
		}
	})
	return ok && count == n
}

// resultToJSON converts a Lua return value to JSON per spec.md §4.5:
// nil -> null, numbers -> number, booleans -> boolean, strings -> string,
// sequences -> array, other tables -> object. Functions, userdata, and
// threads are not representable and become a string placeholder instead
// of failing the invocation.
func resultToJSON(lv lua.LValue) any {
	switch v := lv.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		n := v.Len()
		if n > 0 && isSequence(v, n) {
			arr := make([]any, n)
			for i := 1; i <= n; i++ {
				arr[i-1] = resultToJSON(v.RawGetInt(i))
			}
			return arr
		}
		obj := map[string]any{}
		v.ForEach(func(k, val lua.LValue) {
			obj[k.String()] = resultToJSON(val)
		})
		return obj
	case *lua.LFunction:
		return "<function>"
	case *lua.LUserData:
		return "<userdata>"
	default:
		if lv.Type() == lua.LTThread {
			return "<thread>"
		}
		return lv.String()
	}
}

// jsonToLua converts a decoded JSON value (as produced by the rdf_query
// bridge response) into a Lua value for State.query's result table.
func jsonToLua(L *lua.LState, v any) lua.LValue {
	switch t := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(t)
	case string:
		return lua.LString(t)
	case float64:
		return lua.LNumber(t)
	case int64:
		return lua.LNumber(float64(t))
	case int:
		return lua.LNumber(float64(t))
	case []any:
		tbl := L.NewTable()
		for i, e := range t {
			tbl.RawSetInt(i+1, jsonToLua(L, e))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		for k, e := range t {
			tbl.RawSetString(k, jsonToLua(L, e))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprintf("%v", t))
	}
}
