// Package router implements event-pattern matching: workers register
// channels against patterns at init time, and the chain/request engines
// ask which channels a given request, tx or utxo should be dispatched to.
//
// Grounded on original_source/balius-runtime/src/router.rs (MatchKey,
// infer_match_keys, register_channel, find_utxo_targets,
// find_request_target), extended to cover Tx/TxUndo match keys per
// spec.md §4.A — the Rust source only implements the Utxo half.
package router

import (
	"sync"

	"github.com/txpipe/balius/abi"
	"github.com/txpipe/balius/balerr"
)

// Target names a worker channel a match key resolves to.
type Target struct {
	WorkerID string
	Channel  abi.ChannelID
}

// matchKey is the normalized, comparable form of an abi.Pattern used as a
// map key. spec.md §3's match-key set is closed — RequestMethod,
// EveryUtxo/UtxoAddress, EveryTx/TxAddress — so matchKey only ever
// carries a method or an address, never a token: registration rejects
// token-narrowed patterns outright (see inferMatchKeys).
type matchKey struct {
	kind    abi.PatternKind
	method  string
	address string
}

// Router holds the registered (pattern -> targets) routes and answers
// lookups for incoming requests, txs and utxos. Safe for concurrent use.
type Router struct {
	mu sync.RWMutex
	// routes maps a normalized match key to the targets subscribed to
	// it. A single channel can appear under more than one key when it is
	// registered with more than one pattern (e.g. two address patterns).
	routes map[matchKey][]Target
	// byWorker tracks which keys a worker's channels occupy, so
	// RemoveWorker can clean up without a full scan.
	byWorker map[string][]matchKey
}

// New returns an empty Router.
func New() *Router {
	return &Router{
		routes:   make(map[matchKey][]Target),
		byWorker: make(map[string][]matchKey),
	}
}

// RegisterChannel subscribes a worker channel to pattern. Idempotent:
// re-registering an already-present (channel, pattern) pair changes
// nothing, so a worker's init can safely run twice against the same
// router. Any Utxo/Tx pattern that sets Token, alone or combined with
// Address, is rejected with a Config error: there is no token-based
// match key, so patterns narrow by address only.
func (r *Router) RegisterChannel(workerID string, channel abi.ChannelID, pattern abi.Pattern) error {
	keys, err := inferMatchKeys(pattern)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	target := Target{WorkerID: workerID, Channel: channel}
	for _, k := range keys {
		if containsTarget(r.routes[k], target) {
			continue
		}
		r.routes[k] = append(r.routes[k], target)
		r.byWorker[workerID] = append(r.byWorker[workerID], k)
	}
	return nil
}

func containsTarget(targets []Target, t Target) bool {
	for _, existing := range targets {
		if existing == t {
			return true
		}
	}
	return false
}

// RemoveWorker drops every route registered by workerID.
func (r *Router) RemoveWorker(workerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, k := range r.byWorker[workerID] {
		targets := r.routes[k]
		filtered := targets[:0]
		for _, t := range targets {
			if t.WorkerID != workerID {
				filtered = append(filtered, t)
			}
		}
		if len(filtered) == 0 {
			delete(r.routes, k)
		} else {
			r.routes[k] = filtered
		}
	}
	delete(r.byWorker, workerID)
}

// FindRequestTarget resolves the single channel registered for method.
// Zero matches is balerr.NoTarget; more than one is
// balerr.AmbiguousTarget — a request has exactly one recipient by
// definition (spec.md §4.A).
func (r *Router) FindRequestTarget(method string) (Target, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	targets := r.routes[matchKey{kind: abi.PatternRequest, method: method}]
	switch len(targets) {
	case 0:
		return Target{}, balerr.NoTarget()
	case 1:
		return targets[0], nil
	default:
		return Target{}, balerr.AmbiguousTarget()
	}
}

// FindUtxoTargets returns every channel subscribed to a utxo with the
// given address, including wildcard (EveryUtxo) subscribers. token is
// accepted for parity with the utxo view callers dispatch from, but
// spec.md §3 has no token-based match key — original_source's own
// find_utxo_targets carries a `// TODO: match by policy/asset` it never
// resolves — so token narrowing is rejected at registration instead
// (inferMatchKeys) and never consulted here. Duplicates (a channel
// matching on more than one key) are collapsed.
func (r *Router) FindUtxoTargets(address []byte, token *abi.AssetRef, undo bool) []Target {
	kind := abi.PatternUtxo
	if undo {
		kind = abi.PatternUtxoUndo
	}
	return r.findTargets(kind, [][]byte{address})
}

// FindTxTargets returns every channel subscribed to a tx touching any of
// addresses, or to EveryTx.
func (r *Router) FindTxTargets(addresses [][]byte, token *abi.AssetRef, undo bool) []Target {
	kind := abi.PatternTx
	if undo {
		kind = abi.PatternTxUndo
	}
	return r.findTargets(kind, addresses)
}

func (r *Router) findTargets(kind abi.PatternKind, addresses [][]byte) []Target {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[Target]struct{})
	var out []Target
	add := func(k matchKey) {
		for _, t := range r.routes[k] {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}

	add(matchKey{kind: kind}) // wildcard
	for _, addr := range addresses {
		if len(addr) == 0 {
			continue
		}
		add(matchKey{kind: kind, address: string(addr)})
	}
	return out
}

// inferMatchKeys expands a registered pattern into the set of match keys
// that should resolve to it. A wildcard pattern (no address) occupies
// exactly the wildcard key; an address-narrowed pattern occupies exactly
// that narrower key, never the wildcard. Token-narrowed patterns are
// rejected outright: spec.md §3's match-key set is closed and has no
// token entry, and original_source/.../router.rs's infer_match_keys
// treats every non-address-only pattern as `_ => todo!()` — the original
// never implements token matching either.
func inferMatchKeys(p abi.Pattern) ([]matchKey, error) {
	switch p.Kind {
	case abi.PatternRequest:
		return []matchKey{{kind: abi.PatternRequest, method: p.Method}}, nil

	case abi.PatternUtxo, abi.PatternUtxoUndo, abi.PatternTx, abi.PatternTxUndo:
		if p.Token != nil {
			return nil, balerr.Config("token-narrowed patterns are not supported")
		}
		switch {
		case len(p.Address) > 0:
			return []matchKey{{kind: p.Kind, address: string(p.Address)}}, nil
		default:
			return []matchKey{{kind: p.Kind}}, nil
		}

	default:
		return nil, balerr.Config("unsupported pattern kind: " + p.Kind.String())
	}
}
