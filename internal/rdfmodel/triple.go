package rdfmodel

import (
	"encoding/json"
	"fmt"

	"github.com/pubwiki/luavm/internal/rdferr"
)

// Triple is the wire-level (subject, predicate, object) tuple exchanged
// across the FFI boundary and handed to Lua. Object already carries a
// decoded JSON value (string, number, bool, nil, or a nested structure);
// term typing has been resolved by the time a Triple reaches this shape.
type Triple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    any    `json:"object"`
}

// StoredTriple is the store-side representation: the object position is a
// canonical Term (lexical string + kind) rather than a typed JSON value.
// This is what the Sync Adapter's cache and a Host Store implementation
// hold internally.
type StoredTriple struct {
	Subject   string
	Predicate string
	Object    Term
}

// ToWire decodes a StoredTriple's Term back into a JSON-representable
// Triple for the bridge/State.query response.
func (s StoredTriple) ToWire() Triple {
	return Triple{Subject: s.Subject, Predicate: s.Predicate, Object: DecodeTerm(s.Object)}
}

// FromWire encodes a wire Triple's typed object into its canonical Term,
// applying the named-node/literal typing rule.
func FromWire(t Triple) (StoredTriple, error) {
	if t.Subject == "" {
		return StoredTriple{}, rdferr.New(rdferr.KindBadArgument, "triple subject must be a non-empty string")
	}
	if t.Predicate == "" {
		return StoredTriple{}, rdferr.New(rdferr.KindBadArgument, "triple predicate must be a non-empty string")
	}
	term, err := EncodeTerm(t.Object)
	if err != nil {
		return StoredTriple{}, rdferr.Wrap(rdferr.KindBadArgument, err, "encode object for %s %s", t.Subject, t.Predicate)
	}
	return StoredTriple{Subject: t.Subject, Predicate: t.Predicate, Object: term}, nil
}

// EncodeTriple marshals a Triple to its canonical JSON form.
func EncodeTriple(t Triple) ([]byte, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return nil, rdferr.Wrap(rdferr.KindMalformedPayload, err, "encode triple")
	}
	return b, nil
}

// DecodeTriple parses a JSON triple, failing with KindMalformedPayload on
// invalid input.
func DecodeTriple(data []byte) (Triple, error) {
	var t Triple
	if err := json.Unmarshal(data, &t); err != nil {
		return Triple{}, rdferr.Wrap(rdferr.KindMalformedPayload, err, "decode triple")
	}
	return t, nil
}

// EncodeTriples marshals a slice of Triples to a JSON array, as returned
// by rdf_query.
func EncodeTriples(ts []Triple) ([]byte, error) {
	if ts == nil {
		ts = []Triple{}
	}
	b, err := json.Marshal(ts)
	if err != nil {
		return nil, rdferr.Wrap(rdferr.KindMalformedPayload, err, "encode triples")
	}
	return b, nil
}

// DecodeTriples parses a JSON array of triples.
func DecodeTriples(data []byte) ([]Triple, error) {
	var ts []Triple
	if err := json.Unmarshal(data, &ts); err != nil {
		return nil, rdferr.Wrap(rdferr.KindMalformedPayload, err, "decode triples")
	}
	return ts, nil
}

// Pattern is a triple with any position left as a wildcard (nil/omitted).
// A zero-value Pattern matches every triple.
type Pattern struct {
	Subject   *string `json:"subject,omitempty"`
	Predicate *string `json:"predicate,omitempty"`
	Object    *Term   `json:"-"`
}

// patternWire is Pattern's JSON-facing shape: the object matcher travels
// as a typed JSON value, like Triple.Object, rather than as a Term.
type patternWire struct {
	Subject   *string `json:"subject,omitempty"`
	Predicate *string `json:"predicate,omitempty"`
	Object    any     `json:"object,omitempty"`
}

// EncodePattern marshals a Pattern to JSON, encoding the object matcher
// (if any) back to a typed JSON value.
func EncodePattern(p Pattern) ([]byte, error) {
	w := patternWire{Subject: p.Subject, Predicate: p.Predicate}
	if p.Object != nil {
		w.Object = DecodeTerm(*p.Object)
	}
	b, err := json.Marshal(w)
	if err != nil {
		return nil, rdferr.Wrap(rdferr.KindMalformedPayload, err, "encode pattern")
	}
	return b, nil
}

// DecodePattern parses a JSON pattern. Missing or null fields remain
// wildcards.
func DecodePattern(data []byte) (Pattern, error) {
	var w patternWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Pattern{}, rdferr.Wrap(rdferr.KindMalformedPayload, err, "decode pattern")
	}
	p := Pattern{Subject: w.Subject, Predicate: w.Predicate}
	if w.Object != nil {
		term, err := EncodeTerm(w.Object)
		if err != nil {
			return Pattern{}, rdferr.Wrap(rdferr.KindMalformedPayload, err, "decode pattern object")
		}
		p.Object = &term
	}
	return p, nil
}

// Matches reports whether t satisfies every non-wildcard field of p.
func (p Pattern) Matches(t StoredTriple) bool {
	if p.Subject != nil && *p.Subject != t.Subject {
		return false
	}
	if p.Predicate != nil && *p.Predicate != t.Predicate {
		return false
	}
	if p.Object != nil && (p.Object.Kind != t.Object.Kind || p.Object.Value != t.Object.Value) {
		return false
	}
	return true
}

func (p Pattern) String() string {
	s, pr, o := "*", "*", "*"
	if p.Subject != nil {
		s = *p.Subject
	}
	if p.Predicate != nil {
		pr = *p.Predicate
	}
	if p.Object != nil {
		o = p.Object.Value
	}
	return fmt.Sprintf("(%s, %s, %s)", s, pr, o)
}
