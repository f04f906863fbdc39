package store

import (
	"sort"
	"sync"

	"github.com/akrylysov/pogreb"
)

// backend is the minimal key-value surface Store needs from its durable
// layer, narrow enough that an in-memory copy (IntoEphemeral) and the
// pogreb file share one code path.
type backend interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	// Keys returns a snapshot of every key currently present.
	Keys() ([][]byte, error)
	// Sync flushes pending writes to stable storage.
	Sync() error
	Close() error
}

type pogrebBackend struct {
	db *pogreb.DB
}

func openPogrebBackend(path string) (*pogrebBackend, error) {
	db, err := pogreb.Open(path, nil)
	if err != nil {
		return nil, err
	}
	return &pogrebBackend{db: db}, nil
}

func (b *pogrebBackend) Get(key []byte) ([]byte, error)   { return b.db.Get(key) }
func (b *pogrebBackend) Put(key, value []byte) error      { return b.db.Put(key, value) }
func (b *pogrebBackend) Delete(key []byte) error          { return b.db.Delete(key) }
func (b *pogrebBackend) Sync() error                      { return b.db.Sync() }
func (b *pogrebBackend) Close() error                     { return b.db.Close() }

func (b *pogrebBackend) Keys() ([][]byte, error) {
	it := b.db.Items()
	var keys [][]byte
	for {
		key, _, err := it.Next()
		if err == pogreb.ErrIterationDone {
			break
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, append([]byte(nil), key...))
	}
	return keys, nil
}

// memBackend backs the ephemeral copies IntoEphemeral hands out: same
// data, nothing touching disk.
type memBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string][]byte)}
}

func (b *memBackend) Get(key []byte) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[string(key)]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (b *memBackend) Put(key, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (b *memBackend) Delete(key []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, string(key))
	return nil
}

func (b *memBackend) Keys() ([][]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.data))
	for k := range b.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = []byte(k)
	}
	return out, nil
}

func (b *memBackend) Sync() error  { return nil }
func (b *memBackend) Close() error { return nil }
