package rdfmodel

import "testing"

func TestEncodeTermNamedNode(t *testing.T) {
	term, err := EncodeTerm("resource://user:alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if term.Kind != NamedNode || term.Value != "resource://user:alice" {
		t.Fatalf("got %+v", term)
	}
	if got := DecodeTerm(term); got != "resource://user:alice" {
		t.Fatalf("round trip got %v", got)
	}
}

func TestEncodeTermLiteralRoundTrip(t *testing.T) {
	cases := []any{
		"Alice",
		true,
		false,
		nil,
		int64(1949),
		3.5,
		map[string]any{"a": float64(1)},
		[]any{"x", "y"},
	}
	for _, v := range cases {
		term, err := EncodeTerm(v)
		if err != nil {
			t.Fatalf("encode %v: %v", v, err)
		}
		got := DecodeTerm(term)
		if !deepEqualJSON(got, v) {
			t.Fatalf("round trip mismatch: in=%#v (%T) out=%#v (%T)", v, v, got, got)
		}
	}
}

func TestDecodeLiteralLadder(t *testing.T) {
	cases := map[string]any{
		"true":       true,
		"false":      false,
		"null":       nil,
		"1949":       int64(1949),
		"-5":         int64(-5),
		"3.50":       3.50,
		`{"a":1}`:    map[string]any{"a": float64(1)},
		`[1,2]`:      []any{float64(1), float64(2)},
		"hello":      "hello",
		"{not-json}": "{not-json}",
	}
	for lex, want := range cases {
		got := DecodeLiteral(lex)
		if !deepEqualJSON(got, want) {
			t.Fatalf("decode %q: got %#v want %#v", lex, got, want)
		}
	}
}

func TestIsNamedNode(t *testing.T) {
	if !IsNamedNode("resource://x") {
		t.Fatal("expected named node")
	}
	if IsNamedNode("http://x") {
		t.Fatal("http should not be a named node per the spec's prefix rule")
	}
}

// deepEqualJSON compares two values the way a JSON round trip would: it
// normalizes numeric width (int64 vs float64) so encode/decode symmetry
// tests aren't sensitive to Go's numeric type zoo.
func deepEqualJSON(a, b any) bool {
	switch a.(type) {
	case map[string]any:
		return mapsEqual(a, b)
	case []any:
		return slicesEqual(a, b)
	}
	switch b.(type) {
	case map[string]any, []any:
		return false
	}
	return normalize(a) == normalize(b)
}

func normalize(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case float64:
		return t
	default:
		return v
	}
}

func mapsEqual(a, b any) bool {
	ma, ok1 := a.(map[string]any)
	mb, ok2 := b.(map[string]any)
	if !ok1 || !ok2 {
		return false
	}
	if len(ma) != len(mb) {
		return false
	}
	for k, v := range ma {
		if !deepEqualJSON(v, mb[k]) {
			return false
		}
	}
	return true
}

func slicesEqual(a, b any) bool {
	sa, ok1 := a.([]any)
	sb, ok2 := b.([]any)
	if !ok1 || !ok2 {
		return false
	}
	if len(sa) != len(sb) {
		return false
	}
	for i := range sa {
		if !deepEqualJSON(sa[i], sb[i]) {
			return false
		}
	}
	return true
}
