package submit

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Mock records every submitted tx, for tests.
type Mock struct {
	mu  sync.Mutex
	txs [][]byte
}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) SubmitTx(rawTx []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs = append(m.txs, append([]byte(nil), rawTx...))
	return nil
}

func (m *Mock) Submitted() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.txs...)
}

// HTTP submits the raw tx body to a node's submit endpoint over HTTP,
// grounded on core/storage.go's IPFS-gateway HTTP client pattern
// generalized to a generic submission endpoint. A 4xx answer means the
// node judged the transaction and rejected it (Invalid); anything else
// that goes wrong is a fault of the submission path (Internal).
type HTTP struct {
	client   *http.Client
	endpoint string
}

func NewHTTP(client *http.Client, endpoint string) *HTTP {
	return &HTTP{client: client, endpoint: endpoint}
}

func (h *HTTP) SubmitTx(rawTx []byte) error {
	resp, err := h.client.Post(h.endpoint, "application/octet-stream", bytes.NewReader(rawTx))
	if err != nil {
		return &SubmitError{Code: ErrInternal, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = resp.Status
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return &SubmitError{Code: ErrInvalid, Message: msg}
		}
		return &SubmitError{Code: ErrInternal, Message: msg}
	}
	return nil
}
