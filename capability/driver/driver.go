// Package driver implements the driver capability: the one host import
// every worker gets regardless of which other capabilities it was
// granted, letting it declare its event subscriptions during init.
// Grounded on original_source/balius-runtime/src/lib.rs's
// "impl wit::balius::app::driver::Host for WorkerState".
package driver

import "github.com/txpipe/balius/abi"

// Router is the subset of router.Router this capability needs; kept as
// an interface here so the driver package doesn't import router (the
// dependency runs the other way: worker wires a *router.Router in).
type Router interface {
	RegisterChannel(workerID string, channel abi.ChannelID, pattern abi.Pattern) error
}

// Host binds a worker's driver import to its own router registrations
// and key material, both of which are declared during init rather than
// passed in at registration time.
type Host struct {
	workerID string
	router   Router
	keys     KeyAdder
}

// KeyAdder is the subset of signer.Provider a worker can reach through
// its driver import at init time.
type KeyAdder interface {
	AddKey(workerID, keyName, algorithm string) ([]byte, error)
}

func NewHost(workerID string, router Router, keys KeyAdder) *Host {
	return &Host{workerID: workerID, router: router, keys: keys}
}

// RegisterChannel declares that channel should receive events matching
// pattern.
func (h *Host) RegisterChannel(channel abi.ChannelID, pattern abi.Pattern) error {
	return h.router.RegisterChannel(h.workerID, channel, pattern)
}

// AddKey is also reachable from the driver import: a worker typically
// calls it once during init to provision its signing key before any
// event arrives.
func (h *Host) AddKey(keyName, algorithm string) ([]byte, error) {
	if h.keys == nil {
		return nil, nil
	}
	return h.keys.AddKey(h.workerID, keyName, algorithm)
}
