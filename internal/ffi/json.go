package ffi

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// unmarshalJSON decodes s into v. v is always a *any at every call site in
// this package (the bridge moves whole untyped JSON documents across the
// FFI, not typed structs), so this goes through gjson's generic Value()
// instead of encoding/json's reflection-based decode.
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
