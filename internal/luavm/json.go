package luavm

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON decodes s into v. Every call site here decodes the
// rdf_query reply into a *any (a Lua table is built from whatever shape
// comes back, not a fixed Go struct), so gjson's generic Value() replaces
// encoding/json's reflection-based decode for the same reason as the FFI
// bridge's package-local unmarshalJSON.
func unmarshalJSON(s string, v any) error {
	ptr, ok := v.(*any)
	if !ok {
		return json.Unmarshal([]byte(s), v)
	}
	if !gjson.Valid(s) {
		return fmt.Errorf("invalid JSON: %q", s)
	}
	*ptr = gjson.Parse(s).Value()
	return nil
}
