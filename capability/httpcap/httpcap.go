// Package httpcap implements the outbound HTTP capability: a sandboxed
// worker can make requests out to the network only through this host
// import, never by opening its own sockets. Grounded on
// original_source/balius-runtime/src/http/mod.rs, reimplemented against
// net/http in place of reqwest.
package httpcap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode mirrors the worker-facing error codes a failed request can
// surface, distinct from the Go error net/http itself returns.
type ErrorCode int

const (
	ErrNone ErrorCode = iota
	ErrRequestURIInvalid
	ErrRequestMethodInvalid
	ErrResponseTimeout
	ErrInternal
)

// CapError carries an ErrorCode plus an optional detail message, the Go
// analogue of wit::ErrorCode's Some(String) payload variants.
type CapError struct {
	Code    ErrorCode
	Message string
}

func (e *CapError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http capability error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("http capability error %d", e.Code)
}

// Scheme is http or https; an empty Scheme defaults to http, matching
// the Rust source's None-means-http behavior.
type Scheme string

const (
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
)

// OutgoingRequest is what a worker builds and hands to Request.
type OutgoingRequest struct {
	Scheme        Scheme
	Authority     string
	PathAndQuery  string
	Method        string
	Headers       map[string][]byte
	Body          []byte
}

// RequestOptions carries the single timeout knob spec.md exposes.
type RequestOptions struct {
	BetweenBytesTimeout time.Duration
}

// IncomingResponse is what Request returns on success.
type IncomingResponse struct {
	Status  int
	Headers map[string][]byte
	Body    []byte
}

// Host performs outgoing requests through a real net/http.Client, or
// (Mock) returns a canned 200 without touching the network — the Go
// analogue of the Rust Http::Mock/Http::Reqwest split.
type Host struct {
	client *http.Client
	mock   bool
}

// NewHost builds a Host backed by client.
func NewHost(client *http.Client) *Host { return &Host{client: client} }

// NewMockHost builds a Host that answers every request with an empty 200,
// for tests and workers that shouldn't touch the network.
func NewMockHost() *Host { return &Host{mock: true} }

func (h *Host) Request(req OutgoingRequest, opts *RequestOptions) (IncomingResponse, error) {
	if h.mock {
		return IncomingResponse{Status: 200}, nil
	}

	if req.Authority == "" && req.PathAndQuery == "" {
		return IncomingResponse{}, &CapError{Code: ErrRequestURIInvalid}
	}
	scheme := req.Scheme
	if scheme == "" {
		scheme = SchemeHTTP
	}
	url := fmt.Sprintf("%s://%s%s", scheme, req.Authority, req.PathAndQuery)

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequest(method, url, bytes.NewReader(req.Body))
	if err != nil {
		return IncomingResponse{}, &CapError{Code: ErrRequestURIInvalid, Message: err.Error()}
	}
	for key, value := range req.Headers {
		httpReq.Header.Add(key, string(value))
	}

	client := h.client
	if opts != nil && opts.BetweenBytesTimeout > 0 {
		ctx, cancel := context.WithTimeout(httpReq.Context(), opts.BetweenBytesTimeout)
		defer cancel()
		httpReq = httpReq.WithContext(ctx)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return IncomingResponse{}, mapHTTPErr(err)
	}
	defer resp.Body.Close()

	var body bytes.Buffer
	if _, err := body.ReadFrom(resp.Body); err != nil {
		return IncomingResponse{}, mapHTTPErr(err)
	}

	headers := make(map[string][]byte, len(resp.Header))
	for key := range resp.Header {
		headers[key] = []byte(resp.Header.Get(key))
	}
	return IncomingResponse{Status: resp.StatusCode, Headers: headers, Body: body.Bytes()}, nil
}

func mapHTTPErr(err error) error {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &CapError{Code: ErrResponseTimeout}
	}
	return &CapError{Code: ErrInternal, Message: err.Error()}
}
