// Package objectstore resolves a worker module's bytes from a URL, the
// fetch side of register_worker_from_url. Grounded on
// core/storage.go's Storage (a gateway-backed fetcher keyed by scheme),
// generalized from a single IPFS gateway to a scheme-keyed set of
// backends so file://, http(s):// and s3:// are all first-class.
package objectstore

import (
	"context"
	"fmt"
	"net/url"

	"github.com/txpipe/balius/balerr"
)

// Backend fetches the raw bytes addressed by a URL whose scheme it owns.
type Backend interface {
	Fetch(ctx context.Context, u *url.URL) ([]byte, error)
}

// Resolver dispatches a URL to the Backend registered for its scheme.
type Resolver struct {
	backends map[string]Backend
}

// NewResolver builds an empty Resolver; register backends with Register.
func NewResolver() *Resolver {
	return &Resolver{backends: make(map[string]Backend)}
}

// Register makes scheme resolvable. Registering an already-registered
// scheme replaces the prior backend.
func (r *Resolver) Register(scheme string, b Backend) {
	r.backends[scheme] = b
}

// Fetch parses rawURL and dispatches to the backend registered for its
// scheme, or fails with balerr.ObjectStore if no backend is registered.
func (r *Resolver) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, balerr.ObjectStore(fmt.Errorf("parse %q: %w", rawURL, err))
	}
	b, ok := r.backends[u.Scheme]
	if !ok {
		return nil, balerr.ObjectStore(fmt.Errorf("no backend registered for scheme %q", u.Scheme))
	}
	raw, err := b.Fetch(ctx, u)
	if err != nil {
		return nil, balerr.ObjectStore(err)
	}
	return raw, nil
}
