package kv

import (
	"sort"
	"strings"
	"sync"

	"github.com/txpipe/balius/balerr"
)

// Memory is an in-process Provider, keyed first by worker then by key.
// Grounded on original_source/balius-runtime/src/kv/memory.rs.
type Memory struct {
	mu    sync.RWMutex
	store map[string]map[string][]byte
}

// NewMemory returns an empty Memory provider.
func NewMemory() *Memory {
	return &Memory{store: make(map[string]map[string][]byte)}
}

func (m *Memory) GetValue(workerID, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.store[workerID][key]
	if !ok {
		return nil, balerr.KVNotFound(key)
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) SetValue(workerID, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.store[workerID]
	if !ok {
		ns = make(map[string][]byte)
		m.store[workerID] = ns
	}
	ns[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) ListValues(workerID, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for k := range m.store[workerID] {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}
