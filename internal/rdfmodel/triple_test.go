package rdfmodel

import (
	"testing"

	"github.com/pubwiki/luavm/internal/rdferr"
)

func TestTripleCodecRoundTrip(t *testing.T) {
	in := Triple{Subject: "post:1", Predicate: "author", Object: "resource://user:alice"}
	data, err := EncodeTriple(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := DecodeTriple(data)
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("got %+v want %+v", out, in)
	}
}

func TestDecodeTripleMalformed(t *testing.T) {
	_, err := DecodeTriple([]byte("{not json"))
	if err == nil {
		t.Fatal("expected error")
	}
	if kind, ok := rdferr.KindOf(err); !ok || kind != rdferr.KindMalformedPayload {
		t.Fatalf("expected MalformedPayload, got %v", err)
	}
}

func TestFromWireRejectsEmptySubject(t *testing.T) {
	_, err := FromWire(Triple{Subject: "", Predicate: "p", Object: "o"})
	if err == nil {
		t.Fatal("expected error for empty subject")
	}
}

func TestPatternWildcardMatchesEverything(t *testing.T) {
	p := Pattern{}
	tr, err := FromWire(Triple{Subject: "x", Predicate: "y", Object: "z"})
	if err != nil {
		t.Fatal(err)
	}
	if !p.Matches(tr) {
		t.Fatal("empty pattern should match everything")
	}
}

func TestPatternFieldMatch(t *testing.T) {
	s := "x"
	p := Pattern{Subject: &s}
	match, err := FromWire(Triple{Subject: "x", Predicate: "tag", Object: "a"})
	if err != nil {
		t.Fatal(err)
	}
	noMatch, err := FromWire(Triple{Subject: "other", Predicate: "tag", Object: "a"})
	if err != nil {
		t.Fatal(err)
	}
	if !p.Matches(match) {
		t.Fatal("expected match")
	}
	if p.Matches(noMatch) {
		t.Fatal("expected no match")
	}
}

func TestPatternCodecRoundTrip(t *testing.T) {
	s := "user:alice"
	p := Pattern{Subject: &s}
	data, err := EncodePattern(p)
	if err != nil {
		t.Fatal(err)
	}
	out, err := DecodePattern(data)
	if err != nil {
		t.Fatal(err)
	}
	if out.Subject == nil || *out.Subject != s {
		t.Fatalf("got %+v", out)
	}
	if out.Predicate != nil || out.Object != nil {
		t.Fatalf("expected wildcards, got %+v", out)
	}
}
