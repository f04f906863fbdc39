package submit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/txpipe/balius/metrics"
)

func TestMock_SubmitTxRecords(t *testing.T) {
	m := NewMock()
	h := NewHost("w1", m, metrics.New())

	if err := h.SubmitTx([]byte("tx-body")); err != nil {
		t.Fatal(err)
	}
	if err := h.SubmitTx([]byte("tx-body")); err != nil {
		t.Fatal(err)
	}

	if len(m.Submitted()) != 2 {
		t.Fatalf("want 2 recorded submissions, got %d", len(m.Submitted()))
	}
	if string(m.Submitted()[0]) != "tx-body" {
		t.Fatalf("got %q", m.Submitted()[0])
	}
}

func TestHTTP_SubmitTxPostsBody(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		gotBody = buf[:n]
	}))
	defer srv.Close()

	h := NewHost("w1", NewHTTP(srv.Client(), srv.URL), metrics.New())
	if err := h.SubmitTx([]byte("signed-tx")); err != nil {
		t.Fatal(err)
	}
	if string(gotBody) != "signed-tx" {
		t.Fatalf("got body %q", gotBody)
	}
}

func TestHTTP_SubmitTxRejectionIsInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("fee too small"))
	}))
	defer srv.Close()

	h := NewHost("w1", NewHTTP(srv.Client(), srv.URL), metrics.New())
	err := h.SubmitTx([]byte("bad-tx"))
	var submitErr *SubmitError
	if !errors.As(err, &submitErr) {
		t.Fatalf("want *SubmitError, got %v", err)
	}
	if submitErr.Code != ErrInvalid {
		t.Fatalf("want ErrInvalid for a 4xx rejection, got %v", submitErr.Code)
	}
	if submitErr.Message != "fee too small" {
		t.Fatalf("want the node's rejection reason, got %q", submitErr.Message)
	}
}

func TestHTTP_SubmitTxServerFaultIsInternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	h := NewHost("w1", NewHTTP(srv.Client(), srv.URL), metrics.New())
	err := h.SubmitTx([]byte("tx"))
	var submitErr *SubmitError
	if !errors.As(err, &submitErr) {
		t.Fatalf("want *SubmitError, got %v", err)
	}
	if submitErr.Code != ErrInternal {
		t.Fatalf("want ErrInternal for a 5xx fault, got %v", submitErr.Code)
	}
}
