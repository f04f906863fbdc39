// Package kv implements the key-value capability: a per-worker
// namespaced store a sandboxed module can read and write through its
// host imports. Grounded one-for-one on
// original_source/balius-runtime/src/kv/mod.rs: a Provider trait, a Host
// wrapper that records a metric before delegating, and a handful of
// concrete backends.
package kv

import (
	"errors"

	"github.com/txpipe/balius/balerr"
	"github.com/txpipe/balius/metrics"
)

// Provider is a tenant-aware key-value backend. Every call is scoped to
// workerID so a single backend instance can serve every loaded worker
// while keeping their keyspaces isolated. GetValue on an absent key
// returns balerr.KVNotFound — a missing key is distinct from a stored
// empty value.
type Provider interface {
	GetValue(workerID, key string) ([]byte, error)
	SetValue(workerID, key string, value []byte) error
	ListValues(workerID, prefix string) ([]string, error)
}

// Host is what a worker's kv host imports are actually bound to: it
// records a metric on every call, then delegates to Provider.
type Host struct {
	workerID string
	provider Provider
	metrics  *metrics.Metrics
}

// NewHost builds the Host a single worker's kv imports should bind to.
func NewHost(workerID string, provider Provider, m *metrics.Metrics) *Host {
	return &Host{workerID: workerID, provider: provider, metrics: m}
}

func (h *Host) GetValue(key string) ([]byte, error) {
	h.metrics.KvGet(h.workerID)
	v, err := h.provider.GetValue(h.workerID, key)
	if err != nil {
		return nil, wrapKV(err)
	}
	return v, nil
}

func (h *Host) SetValue(key string, value []byte) error {
	h.metrics.KvSet(h.workerID)
	if err := h.provider.SetValue(h.workerID, key, value); err != nil {
		return wrapKV(err)
	}
	return nil
}

func (h *Host) ListValues(prefix string) ([]string, error) {
	h.metrics.KvList(h.workerID)
	v, err := h.provider.ListValues(h.workerID, prefix)
	if err != nil {
		return nil, wrapKV(err)
	}
	return v, nil
}

// wrapKV coerces a provider error into the balerr taxonomy, passing
// already-typed errors (KVNotFound in particular) through untouched.
func wrapKV(err error) error {
	var be *balerr.Error
	if errors.As(err, &be) {
		return err
	}
	return balerr.KV(err.Error())
}
