//go:build wasip1

package wasmabi

import (
	"context"

	"github.com/pubwiki/luavm/internal/rdferr"
	"github.com/pubwiki/luavm/internal/rdfmodel"
	"github.com/pubwiki/luavm/internal/rdfstore"
)

// hostStore is the guest-side rdfstore.Store: the concrete backend is
// deliberately out of scope for the core (spec.md §1), and in the wasm
// deployment it lives entirely outside the module, reached only through
// the rdf_* imports (§4.4, §6). Every call here crosses that boundary.
type hostStore struct{}

var _ rdfstore.Store = hostStore{}
var _ rdfstore.BatchInserter = hostStore{}

func (hostStore) Insert(_ context.Context, t rdfmodel.StoredTriple) error {
	wire := t.ToWire()
	objJSON, err := marshalObject(wire.Object)
	if err != nil {
		return err
	}
	reply := callRDFImport(rdfInsertImport, wire.Subject, wire.Predicate, objJSON)
	return replyToError(reply)
}

func (hostStore) Delete(_ context.Context, subject, predicate string, obj *rdfmodel.Term) error {
	objJSON := ""
	if obj != nil {
		j, err := marshalObject(rdfmodel.DecodeTerm(*obj))
		if err != nil {
			return err
		}
		objJSON = j
	}
	reply := callRDFImport(rdfDeleteImport, subject, predicate, objJSON)
	return replyToError(reply)
}

func (hostStore) Query(_ context.Context, pattern rdfmodel.Pattern) ([]rdfmodel.StoredTriple, error) {
	patJSON, err := rdfmodel.EncodePattern(pattern)
	if err != nil {
		return nil, err
	}
	reply := callSingleArgImport(rdfQueryImport, string(patJSON))
	if isErrorReply(reply) {
		return nil, rdferr.New(rdferr.KindStoreBackendError, "%s", stripErrorPrefix(reply))
	}
	wire, err := rdfmodel.DecodeTriples([]byte(reply))
	if err != nil {
		return nil, err
	}
	out := make([]rdfmodel.StoredTriple, len(wire))
	for i, t := range wire {
		st, err := rdfmodel.FromWire(t)
		if err != nil {
			return nil, err
		}
		out[i] = st
	}
	return out, nil
}

func (hostStore) BatchInsert(_ context.Context, ts []rdfmodel.StoredTriple) error {
	wire := make([]rdfmodel.Triple, len(ts))
	for i, t := range ts {
		wire[i] = t.ToWire()
	}
	data, err := rdfmodel.EncodeTriples(wire)
	if err != nil {
		return err
	}
	reply := callSingleArgImport(rdfBatchInsertImport, string(data))
	return replyToError(reply)
}

func marshalObject(v any) (string, error) {
	data, err := marshalJSON(v)
	if err != nil {
		return "", rdferr.Wrap(rdferr.KindMalformedPayload, err, "encode object")
	}
	return string(data), nil
}

func replyToError(reply string) error {
	if isErrorReply(reply) {
		return rdferr.New(rdferr.KindStoreBackendError, "%s", stripErrorPrefix(reply))
	}
	return nil
}

func isErrorReply(s string) bool {
	return len(s) >= 6 && s[:6] == "ERROR:"
}

func stripErrorPrefix(s string) string {
	return s[6:]
}

// callRDFImport marshals three strings into linear memory, invokes a
// three-argument rdf_* import, reads the reply, and releases the reply
// buffer through rdf_free before returning — the VM side owns releasing
// every buffer the host hands back (spec.md §4.4).
func callRDFImport(imp func(s, p, o uint32) uint32, subject, predicate, objJSON string) string {
	sBuf, pBuf, oBuf := cString(subject), cString(predicate), cString(objJSON)
	ptr := imp(ptrOf(sBuf), ptrOf(pBuf), ptrOf(oBuf))
	defer keepAlive(sBuf, pBuf, oBuf)
	return readAndFreeCString(ptr)
}

func callSingleArgImport(imp func(arg uint32) uint32, arg string) string {
	buf := cString(arg)
	ptr := imp(ptrOf(buf))
	defer keepAlive(buf)
	return readAndFreeCString(ptr)
}

func readAndFreeCString(ptr uint32) string {
	if ptr == 0 {
		return ""
	}
	s := goString(ptr)
	rdfFreeImport(ptr)
	return s
}
