// Package runtime assembles the capability hosts, the sandbox engine,
// the chain engine and the store into the Runtime Facade spec.md §4.F
// describes, mirroring original_source/balius-runtime/src/lib.rs's
// Runtime/RuntimeBuilder split: a Builder with one With<Capability>
// method per capability slot, producing an immutable Runtime.
package runtime

import (
	"github.com/sirupsen/logrus"

	"github.com/txpipe/balius/capability/httpcap"
	"github.com/txpipe/balius/capability/kv"
	"github.com/txpipe/balius/capability/ledger"
	"github.com/txpipe/balius/capability/logger"
	"github.com/txpipe/balius/capability/signer"
	"github.com/txpipe/balius/capability/submit"
	"github.com/txpipe/balius/chainengine"
	"github.com/txpipe/balius/metrics"
	"github.com/txpipe/balius/objectstore"
	"github.com/txpipe/balius/sandboxhost"
	"github.com/txpipe/balius/store"
)

// Builder constructs a Runtime with an optional choice per capability
// slot. A slot left unset defaults to the safe no-op spec.md §4.F names:
// a silent logger, and no KV/signer/submit/HTTP/ledger import bound at
// all.
type Builder struct {
	store   *store.Store
	engine  sandboxhost.Engine
	metrics *metrics.Metrics
	log     *logrus.Logger

	kv      kv.Provider
	logger  logger.Provider
	signer  signer.Provider
	ledger  ledger.Provider
	submit  submit.Provider
	http    *httpcap.Host
	objects *objectstore.Resolver
}

// NewBuilder seeds a Builder with the infrastructure every Runtime
// needs regardless of capability choice: a durable store, a sandbox
// engine, a metrics registry and an operational logger.
func NewBuilder(s *store.Store, engine sandboxhost.Engine, m *metrics.Metrics, log *logrus.Logger) *Builder {
	return &Builder{
		store:   s,
		engine:  engine,
		metrics: m,
		log:     log,
		logger:  logger.Silent{},
		objects: objectstore.NewResolver(),
	}
}

func (b *Builder) WithKV(p kv.Provider) *Builder {
	b.kv = p
	return b
}

func (b *Builder) WithLogger(p logger.Provider) *Builder {
	b.logger = p
	return b
}

func (b *Builder) WithSigner(p signer.Provider) *Builder {
	b.signer = p
	return b
}

func (b *Builder) WithLedger(p ledger.Provider) *Builder {
	b.ledger = p
	return b
}

func (b *Builder) WithSubmit(p submit.Provider) *Builder {
	b.submit = p
	return b
}

func (b *Builder) WithHTTP(h *httpcap.Host) *Builder {
	b.http = h
	return b
}

// WithObjectStore registers the backend register_worker_from_url should
// use for the given URL scheme (spec.md §4.F).
func (b *Builder) WithObjectStore(scheme string, backend objectstore.Backend) *Builder {
	b.objects.Register(scheme, backend)
	return b
}

// Build assembles the configured capabilities into a Runtime. Capability
// choice is fixed from this point on: spec.md §4.F is explicit that
// slot choice is compile/build-time only, with no runtime swapping.
func (b *Builder) Build() *Runtime {
	return &Runtime{
		store:   b.store,
		engine:  chainengine.New(b.store, b.metrics),
		sandbox: b.engine,
		metrics: b.metrics,
		log:     b.log,
		objects: b.objects,

		kv:     b.kv,
		logger: b.logger,
		signer: b.signer,
		ledger: b.ledger,
		submit: b.submit,
		http:   b.http,

		workers: make(map[string]sandboxhost.Instance),
	}
}
