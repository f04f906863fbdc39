// Package ledger implements the ledger capability: read-only chain
// queries a worker may need while handling a request, without being
// handed the whole chain view the driver holds.
//
// original_source/balius-runtime doesn't name this capability
// explicitly (its "ledger" is the Runtime's own chain_cursor/Store), but
// spec.md §4.C calls for query access distinct from the write side the
// chain engine drives — grounded on the same Provider/Host split the
// other capabilities use. Ledger state itself isn't worker-tenant data
// (there is one chain, not one per worker), so unlike kv.Provider the
// query methods below don't take a workerID; the Host still labels its
// metrics by workerID like every other capability (spec.md §4.G).
package ledger

import (
	"github.com/txpipe/balius/abi"
	"github.com/txpipe/balius/metrics"
)

// Utxo is a single unspent output as returned by a ledger query: its
// identity, the address it is locked to, the token it carries (if any),
// and its canonical body bytes.
type Utxo struct {
	Ref     abi.TxoRef
	Address []byte
	Token   *abi.AssetRef
	Body    []byte
}

// SearchPattern narrows SearchUtxos the same way a router Pattern narrows
// event delivery: an absent Address or Token matches every utxo on that
// axis.
type SearchPattern struct {
	Address []byte
	Token   *abi.AssetRef
}

// SearchResult is one page of a SearchUtxos query. NextToken is nil once
// the caller has reached the end of the result set.
type SearchResult struct {
	Utxos     []Utxo
	NextToken []byte
}

// Provider answers the three ledger queries spec.md §4.C names:
// read_utxos (batch lookup by ref), search_utxos (cursor-paged pattern
// search) and read_params (chain protocol parameters).
type Provider interface {
	ReadUtxos(refs []abi.TxoRef) ([]Utxo, error)
	SearchUtxos(pattern SearchPattern, startToken []byte, maxItems int) (SearchResult, error)
	ReadParams() ([]byte, error)
}

// Host is a worker's binding for the ledger capability: it labels a
// metric for every query before delegating to Provider.
type Host struct {
	workerID string
	provider Provider
	metrics  *metrics.Metrics
}

func NewHost(workerID string, provider Provider, m *metrics.Metrics) *Host {
	return &Host{workerID: workerID, provider: provider, metrics: m}
}

func (h *Host) ReadUtxos(refs []abi.TxoRef) ([]Utxo, error) {
	h.metrics.LedgerReadUtxos(h.workerID)
	return h.provider.ReadUtxos(refs)
}

func (h *Host) SearchUtxos(pattern SearchPattern, startToken []byte, maxItems int) (SearchResult, error) {
	h.metrics.LedgerSearchUtxos(h.workerID)
	return h.provider.SearchUtxos(pattern, startToken, maxItems)
}

func (h *Host) ReadParams() ([]byte, error) {
	h.metrics.LedgerReadParams(h.workerID)
	return h.provider.ReadParams()
}
