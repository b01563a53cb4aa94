package rdfmodel

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// NamedNodePrefix marks a string as a named-node reference rather than a
// literal when it appears in the object position of a triple (spec §3).
const NamedNodePrefix = "resource://"

// TermKind distinguishes a named-node reference from a literal value.
type TermKind int

const (
	// Literal is a primitive or structured data value.
	Literal TermKind = iota
	// NamedNode is a URI-like identity reference.
	NamedNode
)

func (k TermKind) String() string {
	if k == NamedNode {
		return "named-node"
	}
	return "literal"
}

// Term is the canonical, store-side representation of an object value: a
// lexical string plus whether that string denotes a named node or a
// literal. Triple stores that keep objects as plain strings can persist
// Term.Value directly and recover Term.Kind with IsNamedNode.
type Term struct {
	Kind  TermKind
	Value string
}

// IsNamedNode reports whether s would be classified as a named-node
// reference per the §3 prefix rule.
func IsNamedNode(s string) bool {
	return strings.HasPrefix(s, NamedNodePrefix)
}

var (
	intPattern   = regexp.MustCompile(`^-?\d+$`)
	floatPattern = regexp.MustCompile(`^-?\d+\.\d+$`)
)

// EncodeTerm converts an arbitrary JSON-compatible value (as produced by
// decoding the object position off the wire, or by the Lua embedding's
// argument validation) into its canonical store-side Term.
func EncodeTerm(v any) (Term, error) {
	if s, ok := v.(string); ok && IsNamedNode(s) {
		return Term{Kind: NamedNode, Value: s}, nil
	}
	lex, err := encodeLexical(v)
	if err != nil {
		return Term{}, err
	}
	return Term{Kind: Literal, Value: lex}, nil
}

// encodeLexical produces the canonical string form for a literal value,
// matching the shapes term.decode_literal must reverse.
func encodeLexical(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "null", nil
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	case string:
		return t, nil
	case int:
		return strconv.Itoa(t), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float32:
		return encodeFloat(float64(t)), nil
	case float64:
		return encodeFloat(t), nil
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return "", fmt.Errorf("encode structured literal: %w", err)
		}
		return string(b), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t), nil
		}
		return string(b), nil
	}
}

// encodeFloat renders a float64 as an integer lexical form when it has no
// fractional part (so int-valued Lua/JSON numbers round-trip as integers),
// and as a plain decimal form otherwise.
func encodeFloat(f float64) string {
	if !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f) &&
		math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// DecodeTerm converts a store-side Term back into a JSON-representable Go
// value, following the §3 decoding ladder for literals. Named nodes
// surface as their original "resource://" string, unchanged.
func DecodeTerm(t Term) any {
	if t.Kind == NamedNode {
		return t.Value
	}
	return DecodeLiteral(t.Value)
}

// DecodeLiteral applies the canonical decoding ladder to a lexical string:
// null, then boolean, then integer, then float, then a leading-brace/bracket
// structured value parsed as JSON, falling back to the raw string at every
// step that does not parse.
func DecodeLiteral(s string) any {
	switch s {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if intPattern.MatchString(s) {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	if floatPattern.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	if len(s) > 0 && (s[0] == '{' || s[0] == '[') && gjson.Valid(s) {
		return gjson.Parse(s).Value()
	}
	return s
}
