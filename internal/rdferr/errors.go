// Package rdferr defines the error taxonomy shared by every layer of the
// runtime, from the JSON codec up through the invocation orchestrator.
package rdferr

import (
	"errors"
	"fmt"
)

// Kind classifies a runtime error into one of the named failure modes.
type Kind string

const (
	// KindMalformedPayload means JSON crossing the FFI boundary could not
	// be parsed.
	KindMalformedPayload Kind = "MalformedPayload"
	// KindBadArgument means a Lua call into State.* received the wrong
	// shape of argument.
	KindBadArgument Kind = "BadArgument"
	// KindStoreUninitialised means a State.* call arrived with no active
	// store slot populated.
	KindStoreUninitialised Kind = "StoreUninitialised"
	// KindStoreBackendError wraps a failure reported by the backing store.
	KindStoreBackendError Kind = "StoreBackendError"
	// KindModuleLoadError means require could not obtain source for a
	// specifier.
	KindModuleLoadError Kind = "ModuleLoadError"
	// KindLuaRuntimeError means user code raised an error or failed to
	// compile.
	KindLuaRuntimeError Kind = "LuaRuntimeError"
)

// Error is the runtime's typed error. Message is the human-readable text
// that is allowed to cross the FFI boundary (into a Lua error or the
// response's error field); Cause, if present, is never serialized but is
// available to Go callers via Unwrap.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind around an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the Kind from err if it is (or wraps) an *Error, and
// false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
