// Package balerr implements the discriminated error taxonomy of spec.md
// §7. A caller that needs to branch on error kind uses errors.As against
// *Error and switches on Kind; code that only needs to log or propagate
// treats it as a plain error.
package balerr

import "fmt"

// Kind discriminates the error taxonomy.
type Kind string

const (
	KindWasm            Kind = "wasm"
	KindStore           Kind = "store"
	KindWorkerNotFound  Kind = "worker_not_found"
	KindHandle          Kind = "handle"
	KindNoTarget        Kind = "no_target"
	KindAmbiguousTarget Kind = "ambiguous_target"
	KindBadAddress      Kind = "bad_address"
	KindLedger          Kind = "ledger"
	KindConfig          Kind = "config"
	KindDriver          Kind = "driver"
	KindObjectStore     Kind = "object_store"
	KindIO              Kind = "io"
	KindKV              Kind = "kv"
	KindKVNotFound      Kind = "kv_not_found"
)

// Error is the concrete type behind every error this module returns.
// Code is only populated for KindHandle, where Code and Message carry the
// worker-supplied HandleError{code, message} shape; other kinds use
// Message, when set, for a detail string such as the missing worker id
// or key.
type Error struct {
	Kind    Kind
	Code    uint32
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindHandle:
		return fmt.Sprintf("worker handle error (code %d): %s", e.Code, e.Message)
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, ignoring the
// wrapped cause and (for non-Handle kinds) the message. Handle errors
// compare Code and Message too, since those are the payload, not
// incidental context.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != other.Kind {
		return false
	}
	if e.Kind == KindHandle {
		return e.Code == other.Code && e.Message == other.Message
	}
	return true
}

func Wasm(err error) *Error           { return &Error{Kind: KindWasm, Err: err} }
func Store(err error) *Error          { return &Error{Kind: KindStore, Err: err} }
func WorkerNotFound(id string) *Error { return &Error{Kind: KindWorkerNotFound, Message: id} }
func Handle(code uint32, message string) *Error {
	return &Error{Kind: KindHandle, Code: code, Message: message}
}
func NoTarget() *Error        { return &Error{Kind: KindNoTarget} }
func AmbiguousTarget() *Error { return &Error{Kind: KindAmbiguousTarget} }
func BadAddress(err error) *Error { return &Error{Kind: KindBadAddress, Err: err} }
func Ledger(message string) *Error { return &Error{Kind: KindLedger, Message: message} }
func Config(message string) *Error { return &Error{Kind: KindConfig, Message: message} }
func Driver(message string) *Error { return &Error{Kind: KindDriver, Message: message} }
func ObjectStore(err error) *Error  { return &Error{Kind: KindObjectStore, Err: err} }
func IO(err error) *Error           { return &Error{Kind: KindIO, Err: err} }
func KV(message string) *Error      { return &Error{Kind: KindKV, Message: message} }

// KVNotFound reports that a kv key holds no value at all, as opposed to
// holding an empty one.
func KVNotFound(key string) *Error { return &Error{Kind: KindKVNotFound, Message: key} }

// IsNoTarget reports whether err is (or wraps) a NoTarget error.
func IsNoTarget(err error) bool { return hasKind(err, KindNoTarget) }

// IsAmbiguousTarget reports whether err is (or wraps) an AmbiguousTarget error.
func IsAmbiguousTarget(err error) bool { return hasKind(err, KindAmbiguousTarget) }

// IsWorkerNotFound reports whether err is (or wraps) a WorkerNotFound error.
func IsWorkerNotFound(err error) bool { return hasKind(err, KindWorkerNotFound) }

// IsKVNotFound reports whether err is (or wraps) a KVNotFound error.
func IsKVNotFound(err error) bool { return hasKind(err, KindKVNotFound) }

// AsHandle extracts the (code, message) pair from a Handle error, if err
// is one.
func AsHandle(err error) (code uint32, message string, ok bool) {
	var e *Error
	for err != nil {
		if as, isErr := err.(*Error); isErr {
			e = as
			break
		}
		u, unwraps := err.(interface{ Unwrap() error })
		if !unwraps {
			break
		}
		err = u.Unwrap()
	}
	if e == nil || e.Kind != KindHandle {
		return 0, "", false
	}
	return e.Code, e.Message, true
}

func hasKind(err error, k Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == k {
				return true
			}
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
