// Package signer implements the signing capability: workers ask for a
// named key's public key (adding it on first use) and request signatures
// over arbitrary payloads, never seeing secret material themselves.
// Grounded on original_source/balius-runtime/src/sign/mod.rs.
package signer

import (
	"fmt"

	"github.com/txpipe/balius/metrics"
)

// ErrorCode mirrors the worker-facing signing error variants, distinct
// from the Go error any backend I/O may surface.
type ErrorCode int

const (
	ErrNone ErrorCode = iota
	ErrKeyNotFound
	ErrUnsupportedAlgorithm
)

// SignError carries an ErrorCode plus a detail message, the Go analogue
// of wit::SignError's KeyNotFound/UnsupportedAlgorithm payload variants.
type SignError struct {
	Code    ErrorCode
	Message string
}

func (e *SignError) Error() string {
	switch e.Code {
	case ErrKeyNotFound:
		return fmt.Sprintf("key not found: %s", e.Message)
	case ErrUnsupportedAlgorithm:
		return fmt.Sprintf("unsupported signing algorithm %q", e.Message)
	default:
		return fmt.Sprintf("sign error %d: %s", e.Code, e.Message)
	}
}

// Provider is a tenant-aware key store. AddKey is idempotent per
// (workerID, keyName): a second call returns the same public key rather
// than rotating it. AddKey fails with a SignError of
// ErrUnsupportedAlgorithm for anything but ed25519; SignPayload fails
// with ErrKeyNotFound when keyName was never added for that worker.
type Provider interface {
	AddKey(workerID, keyName, algorithm string) ([]byte, error)
	SignPayload(workerID, keyName string, payload []byte) ([]byte, error)
}

// Host records a signer_sign_payload metric on SignPayload, matching
// spec.md §4.G's required counter; AddKey stays unmetered, consistent
// with original_source/.../sign/mod.rs which only instruments signing.
type Host struct {
	workerID string
	provider Provider
	metrics  *metrics.Metrics
}

func NewHost(workerID string, provider Provider, m *metrics.Metrics) *Host {
	return &Host{workerID: workerID, provider: provider, metrics: m}
}

// AddKey delegates to Provider, keeping any *SignError intact so
// callers can discriminate the unsupported-algorithm case with
// errors.As.
func (h *Host) AddKey(keyName, algorithm string) ([]byte, error) {
	pub, err := h.provider.AddKey(h.workerID, keyName, algorithm)
	if err != nil {
		return nil, fmt.Errorf("add key %q: %w", keyName, err)
	}
	return pub, nil
}

// SignPayload delegates to Provider, keeping any *SignError (KeyNotFound
// in particular) intact through the wrap.
func (h *Host) SignPayload(keyName string, payload []byte) ([]byte, error) {
	h.metrics.SignerSignPayload(h.workerID)
	sig, err := h.provider.SignPayload(h.workerID, keyName, payload)
	if err != nil {
		return nil, fmt.Errorf("sign payload with key %q: %w", keyName, err)
	}
	return sig, nil
}
