// Package sandboxhost names the boundary between the runtime and the
// sandbox engine that actually loads and runs a worker's compiled
// module. Per spec.md §1 this boundary is an assumed external
// collaborator — "any engine that can load a portable component, call
// two exports init/handle, and bind host imports by interface" — so
// this package is deliberately thin: an Engine/Instance abstraction plus
// exactly one illustrative adapter (sandboxhost/wasmer.go), not a
// general-purpose component runtime.
package sandboxhost

import "github.com/txpipe/balius/abi"

// ImportBinder exposes the capability hosts a worker's imports bind to.
// A concrete Engine asks for these by capability name when instantiating
// a module; which names are bound for a given worker is decided by the
// capability providers the Runtime was built with, not by this package.
type ImportBinder interface {
	// Bind returns the capability host registered under name, or nil if
	// the worker was not granted that capability.
	Bind(name string) interface{}
}

// Engine loads a compiled module's bytes into a runnable Instance.
type Engine interface {
	Load(code []byte, imports ImportBinder) (Instance, error)
}

// Instance is a single loaded worker module. Init is called once after
// loading, before any event is dispatched; Handle is called once per
// dispatched event.
type Instance interface {
	// Init runs the module's init export against its opaque
	// configuration (canonically JSON), during which the module is
	// expected to call the driver capability's RegisterChannel for
	// every event pattern it wants delivered.
	Init(config []byte) error
	// Handle runs the module's handle export for a single channel and
	// event, returning the worker's abi.Response or abi.HandleError.
	Handle(channel abi.ChannelID, event abi.Event) (abi.Response, error)
	// Close releases the instance's resources.
	Close() error
}
