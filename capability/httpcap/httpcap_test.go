package httpcap

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMockHost_AlwaysReturns200(t *testing.T) {
	h := NewMockHost()
	resp, err := h.Request(OutgoingRequest{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != 200 {
		t.Fatalf("want 200, got %d", resp.Status)
	}
}

func TestHost_RequestURIInvalidWhenAuthorityAndPathEmpty(t *testing.T) {
	h := NewHost(http.DefaultClient)
	_, err := h.Request(OutgoingRequest{}, nil)
	capErr, ok := err.(*CapError)
	if !ok {
		t.Fatalf("want *CapError, got %T", err)
	}
	if capErr.Code != ErrRequestURIInvalid {
		t.Fatalf("want ErrRequestURIInvalid, got %v", capErr.Code)
	}
}

func TestHost_RequestDefaultsSchemeAndMethod(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Header().Set("X-Test", "yes")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	authority := srv.Listener.Addr().String()
	h := NewHost(srv.Client())
	resp, err := h.Request(OutgoingRequest{Authority: authority, PathAndQuery: "/hello"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if gotMethod != http.MethodGet {
		t.Fatalf("want default GET, got %s", gotMethod)
	}
	if gotPath != "/hello" {
		t.Fatalf("got path %q", gotPath)
	}
	if resp.Status != http.StatusOK || string(resp.Body) != "ok" {
		t.Fatalf("got %+v", resp)
	}
	if string(resp.Headers["X-Test"]) != "yes" {
		t.Fatalf("want X-Test header relayed, got %+v", resp.Headers)
	}
}

func TestHost_RequestTimeoutClassifiesAsResponseTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte("too slow"))
	}))
	defer srv.Close()

	h := NewHost(srv.Client())
	_, err := h.Request(
		OutgoingRequest{Authority: srv.Listener.Addr().String(), PathAndQuery: "/"},
		&RequestOptions{BetweenBytesTimeout: 1 * time.Millisecond},
	)
	capErr, ok := err.(*CapError)
	if !ok {
		t.Fatalf("want *CapError, got %T (%v)", err, err)
	}
	if capErr.Code != ErrResponseTimeout {
		t.Fatalf("want ErrResponseTimeout, got %v", capErr.Code)
	}
}
