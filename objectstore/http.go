package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPBackend fetches http:// and https:// URLs, grounded on
// core/storage.go's Storage.client (a plain *http.Client with a fixed
// timeout) generalized from one gateway host to any URL.
type HTTPBackend struct {
	client *http.Client
}

// NewHTTPBackend builds an HTTPBackend with the given request timeout.
func NewHTTPBackend(timeout time.Duration) *HTTPBackend {
	return &HTTPBackend{client: &http.Client{Timeout: timeout}}
}

func (b *HTTPBackend) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", u, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
