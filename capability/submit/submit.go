// Package submit implements the transaction submission capability: a
// worker hands the host a signed, fully-built transaction and the host
// gets it onto the chain (or into a test fixture, for Mock). Grounded on
// original_source/balius-runtime/src/submit/mod.rs's
// Result<(), wit::SubmitError> shape — success carries no payload, and
// failures discriminate a rejected transaction (Invalid) from a broken
// submission path (Internal).
package submit

import (
	"fmt"

	"github.com/txpipe/balius/metrics"
)

// ErrorCode mirrors the worker-facing submission error variants.
type ErrorCode int

const (
	ErrNone ErrorCode = iota
	// ErrInvalid means the chain rejected the transaction itself.
	ErrInvalid
	// ErrInternal means the submission path failed before the chain
	// could judge the transaction.
	ErrInternal
)

// SubmitError carries an ErrorCode plus a detail message, the Go
// analogue of wit::SubmitError's Invalid(msg)/Internal(msg) variants.
type SubmitError struct {
	Code    ErrorCode
	Message string
}

func (e *SubmitError) Error() string {
	switch e.Code {
	case ErrInvalid:
		return fmt.Sprintf("invalid tx: %s", e.Message)
	case ErrInternal:
		return fmt.Sprintf("internal submit error: %s", e.Message)
	default:
		return fmt.Sprintf("submit error %d: %s", e.Code, e.Message)
	}
}

// Provider accepts a raw, already-signed transaction body for
// submission. Success carries no payload; failures are *SubmitError.
type Provider interface {
	SubmitTx(rawTx []byte) error
}

// Host records a submit_tx metric before delegating to Provider
// (spec.md §4.G).
type Host struct {
	workerID string
	provider Provider
	metrics  *metrics.Metrics
}

func NewHost(workerID string, provider Provider, m *metrics.Metrics) *Host {
	return &Host{workerID: workerID, provider: provider, metrics: m}
}

func (h *Host) SubmitTx(rawTx []byte) error {
	h.metrics.SubmitTx(h.workerID)
	return h.provider.SubmitTx(rawTx)
}
