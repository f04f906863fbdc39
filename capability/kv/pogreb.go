package kv

import (
	"sort"
	"strings"

	"github.com/akrylysov/pogreb"

	"github.com/txpipe/balius/balerr"
)

// Pogreb is a durable, single-file Provider. Tenant isolation is a key
// prefix (workerID + "/" + key) rather than a separate file per worker,
// matching the teacher's single-ledger-file-many-prefixes habit
// (core/storage.go's diskLRU).
type Pogreb struct {
	db *pogreb.DB
}

// OpenPogreb opens (creating if absent) the pogreb file at path.
func OpenPogreb(path string) (*Pogreb, error) {
	db, err := pogreb.Open(path, nil)
	if err != nil {
		return nil, balerr.KV(err.Error())
	}
	return &Pogreb{db: db}, nil
}

func (p *Pogreb) Close() error { return p.db.Close() }

func (p *Pogreb) GetValue(workerID, key string) ([]byte, error) {
	nsKey := []byte(namespacedKey(workerID, key))
	ok, err := p.db.Has(nsKey)
	if err != nil {
		return nil, balerr.KV(err.Error())
	}
	if !ok {
		return nil, balerr.KVNotFound(key)
	}
	v, err := p.db.Get(nsKey)
	if err != nil {
		return nil, balerr.KV(err.Error())
	}
	return v, nil
}

func (p *Pogreb) SetValue(workerID, key string, value []byte) error {
	if err := p.db.Put([]byte(namespacedKey(workerID, key)), value); err != nil {
		return balerr.KV(err.Error())
	}
	return nil
}

func (p *Pogreb) ListValues(workerID, prefix string) ([]string, error) {
	want := namespacedKey(workerID, prefix)
	it := p.db.Items()
	var out []string
	for {
		key, _, err := it.Next()
		if err == pogreb.ErrIterationDone {
			break
		}
		if err != nil {
			return nil, balerr.KV(err.Error())
		}
		if strings.HasPrefix(string(key), want) {
			out = append(out, strings.TrimPrefix(string(key), namespacedKey(workerID, "")))
		}
	}
	sort.Strings(out)
	return out, nil
}

func namespacedKey(workerID, key string) string { return workerID + "/" + key }
