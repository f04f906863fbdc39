package ledger

import (
	"bytes"
	"fmt"
	"strconv"
	"sync"

	"github.com/txpipe/balius/abi"
)

// Mock is an in-memory Provider for tests and local development: a flat,
// insertion-ordered utxo set plus a canned params document.
type Mock struct {
	mu     sync.RWMutex
	utxos  []Utxo
	params []byte
}

func NewMock() *Mock {
	return &Mock{params: []byte("{}")}
}

// AddUtxo appends u to the mock's utxo set. Search results preserve
// insertion order, which keeps paging assertions in tests simple.
func (m *Mock) AddUtxo(u Utxo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.utxos = append(m.utxos, u)
}

// SetParams replaces the document ReadParams returns.
func (m *Mock) SetParams(params []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params = append([]byte(nil), params...)
}

func (m *Mock) ReadUtxos(refs []abi.TxoRef) ([]Utxo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Utxo
	for _, ref := range refs {
		for _, u := range m.utxos {
			if bytes.Equal(u.Ref.TxHash, ref.TxHash) && u.Ref.TxoIndex == ref.TxoIndex {
				out = append(out, u)
				break
			}
		}
	}
	return out, nil
}

// SearchUtxos pages through the utxo set with a decimal-offset token, the
// simplest cursor that satisfies §4.C's "paging is cursor-based".
func (m *Mock) SearchUtxos(pattern SearchPattern, startToken []byte, maxItems int) (SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	start := 0
	if len(startToken) > 0 {
		parsed, err := strconv.Atoi(string(startToken))
		if err != nil {
			return SearchResult{}, fmt.Errorf("bad search token %q: %w", startToken, err)
		}
		start = parsed
	}
	if maxItems <= 0 {
		maxItems = len(m.utxos)
	}

	var result SearchResult
	for i := start; i < len(m.utxos); i++ {
		if !matches(pattern, m.utxos[i]) {
			continue
		}
		if len(result.Utxos) == maxItems {
			result.NextToken = []byte(strconv.Itoa(i))
			return result, nil
		}
		result.Utxos = append(result.Utxos, m.utxos[i])
	}
	return result, nil
}

func (m *Mock) ReadParams() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]byte(nil), m.params...), nil
}

func matches(p SearchPattern, u Utxo) bool {
	if len(p.Address) > 0 && !bytes.Equal(p.Address, u.Address) {
		return false
	}
	if p.Token != nil {
		if u.Token == nil {
			return false
		}
		if !bytes.Equal(p.Token.PolicyID, u.Token.PolicyID) || !bytes.Equal(p.Token.AssetName, u.Token.AssetName) {
			return false
		}
	}
	return true
}
