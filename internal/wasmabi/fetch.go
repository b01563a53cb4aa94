//go:build wasip1

package wasmabi

import (
	"github.com/pubwiki/luavm/internal/rdferr"
)

// hostFetch implements require.FetchFunc over the fetch_module/free_module/
// get_last_fetch_error import trio (spec.md §4.6), for http(s):// and
// mediawiki:// require specifiers.
func hostFetch(spec string) (string, error) {
	urlBuf := cString(spec)
	lenBuf := make([]byte, 4)

	bytesPtr := fetchModuleImport(ptrOf(urlBuf), ptrOf(lenBuf))
	keepAlive(urlBuf, lenBuf)

	if bytesPtr == 0 {
		return "", fetchError(spec)
	}

	n := readU32(ptrOf(lenBuf))
	src := goBytes(bytesPtr, n)
	freeModuleImport(bytesPtr)
	return string(src), nil
}

func fetchError(spec string) error {
	lenBuf := make([]byte, 4)
	msgPtr := getLastFetchErrorImport(ptrOf(lenBuf))
	keepAlive(lenBuf)
	if msgPtr == 0 {
		return rdferr.New(rdferr.KindModuleLoadError, "fetch failed for %s (no error detail available)", spec)
	}
	n := readU32(ptrOf(lenBuf))
	msg := string(goBytes(msgPtr, n))
	// get_last_fetch_error has no dedicated free import in the external
	// interface table; free_module is the only buffer-release primitive
	// this subsystem exposes, and its contract ("release a buffer
	// previously returned by fetch_module") is read here as "release a
	// buffer from the fetch subsystem" rather than "exactly fetch_module".
	freeModuleImport(msgPtr)
	return rdferr.New(rdferr.KindModuleLoadError, "fetch %s: %s", spec, msg)
}
