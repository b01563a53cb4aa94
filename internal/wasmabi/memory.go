//go:build wasip1

package wasmabi

import (
	"encoding/json"
	"runtime"
	"sync"
	"unsafe"
)

// resultRegistry keeps Go-side references to buffers handed out across an
// export boundary alive until the host releases them via lua_free_result,
// so the garbage collector cannot reclaim memory the host is still
// reading (spec.md §3 "Memory ownership").
var (
	resultMu  sync.Mutex
	resultReg = make(map[uint32][]byte)
)

func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

// cString builds a null-terminated UTF-8 buffer for an import argument.
func cString(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	b[len(s)] = 0
	return b
}

// ptrOf returns the linear-memory address of b's first byte as a u32,
// the pointer width every wasm32 import/export in this module uses.
func ptrOf(b []byte) uint32 {
	if len(b) == 0 {
		return 0
	}
	return uint32(uintptr(unsafe.Pointer(&b[0])))
}

// goString reads a null-terminated UTF-8 string starting at ptr.
func goString(ptr uint32) string {
	if ptr == 0 {
		return ""
	}
	p := unsafe.Pointer(uintptr(ptr))
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	buf := unsafe.Slice((*byte)(p), n)
	return string(buf)
}

// goBytes reads n bytes starting at ptr, for host replies that carry an
// explicit length instead of a null terminator (fetch_module's source).
func goBytes(ptr, n uint32) []byte {
	if ptr == 0 || n == 0 {
		return nil
	}
	p := (*byte)(unsafe.Pointer(uintptr(ptr)))
	src := unsafe.Slice(p, int(n))
	out := make([]byte, n)
	copy(out, src)
	return out
}

// readU32 reads a little-endian u32 out-param written by the host at ptr.
func readU32(ptr uint32) uint32 {
	p := unsafe.Pointer(uintptr(ptr))
	b := unsafe.Slice((*byte)(p), 4)
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// keepAlive holds a reference to its arguments until after an import call
// returns, so the compiler cannot free the backing arrays before the host
// has read them.
func keepAlive(bufs ...[]byte) {
	for _, b := range bufs {
		runtime.KeepAlive(b)
	}
}

// registerResult stores buf under its own address so it survives until
// releaseResult is called, and returns that address as a u32 pointer.
func registerResult(buf []byte) uint32 {
	ptr := ptrOf(buf)
	resultMu.Lock()
	resultReg[ptr] = buf
	resultMu.Unlock()
	return ptr
}

// releaseResult drops the keepalive reference for ptr. Idempotent: an
// unknown or zero pointer is simply ignored (spec.md §6: "idempotent on
// null").
func releaseResult(ptr uint32) {
	if ptr == 0 {
		return
	}
	resultMu.Lock()
	delete(resultReg, ptr)
	resultMu.Unlock()
}
