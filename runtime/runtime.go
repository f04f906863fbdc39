package runtime

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/txpipe/balius/abi"
	"github.com/txpipe/balius/balerr"
	"github.com/txpipe/balius/capability/driver"
	"github.com/txpipe/balius/capability/httpcap"
	"github.com/txpipe/balius/capability/kv"
	"github.com/txpipe/balius/capability/ledger"
	"github.com/txpipe/balius/capability/logger"
	"github.com/txpipe/balius/capability/signer"
	"github.com/txpipe/balius/capability/submit"
	"github.com/txpipe/balius/chain"
	"github.com/txpipe/balius/chainengine"
	"github.com/txpipe/balius/metrics"
	"github.com/txpipe/balius/objectstore"
	"github.com/txpipe/balius/router"
	"github.com/txpipe/balius/sandboxhost"
	"github.com/txpipe/balius/store"
	"github.com/txpipe/balius/worker"
)

// Runtime is the assembled facade spec.md §4.F describes: worker
// registration lifecycle, chain/request dispatch, and chain-cursor
// computation, over a fixed set of capability providers chosen at build
// time.
type Runtime struct {
	mu sync.Mutex

	store   *store.Store
	engine  *chainengine.Engine
	sandbox sandboxhost.Engine
	metrics *metrics.Metrics
	log     *logrus.Logger
	objects *objectstore.Resolver

	kv     kv.Provider
	logger logger.Provider
	signer signer.Provider
	ledger ledger.Provider
	submit submit.Provider
	http   *httpcap.Host

	// workers holds the loaded sandbox instances this Runtime owns, so
	// RemoveWorker and registering over an existing id can release the
	// prior instance's resources. The chain engine tracks dispatch state
	// (worker.Instance) separately.
	workers map[string]sandboxhost.Instance
}

// RegisterWorker instantiates module, binds every configured capability
// into its sandbox (each wrapped to carry id), runs init(configJSON),
// and loads it into the chain engine. Registering an id that already
// exists replaces the prior instance; the persisted cursor in the store
// is untouched either way (spec.md §9 Open Question (a)).
func (r *Runtime) RegisterWorker(id string, module []byte, configJSON []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt := router.New()

	var signerHost *signer.Host
	var keys driver.KeyAdder
	if r.signer != nil {
		signerHost = signer.NewHost(id, r.signer, r.metrics)
		keys = r.signer
	}

	var kvHost *kv.Host
	if r.kv != nil {
		kvHost = kv.NewHost(id, r.kv, r.metrics)
	}

	var ledgerHost *ledger.Host
	if r.ledger != nil {
		ledgerHost = ledger.NewHost(id, r.ledger, r.metrics)
	}

	var submitHost *submit.Host
	if r.submit != nil {
		submitHost = submit.NewHost(id, r.submit, r.metrics)
	}

	bnd := &binder{
		driver: driver.NewHost(id, rt, keys),
		kv:     kvHost,
		logger: logger.NewHost(id, r.logger, r.metrics),
		signer: signerHost,
		ledger: ledgerHost,
		submit: submitHost,
		http:   r.http,
	}

	instance, err := r.sandbox.Load(module, bnd)
	if err != nil {
		return balerr.Wasm(err)
	}
	if err := instance.Init(configJSON); err != nil {
		instance.Close()
		return balerr.Wasm(err)
	}

	if prior, ok := r.workers[id]; ok {
		prior.Close()
	}
	r.workers[id] = instance

	r.engine.AddWorker(worker.New(id, instance, rt, r.metrics, r.log))
	return nil
}

// RegisterWorkerFromURL fetches module bytes through the object-store
// resolver, then registers them the same way RegisterWorker does
// (spec.md §4.F).
func (r *Runtime) RegisterWorkerFromURL(ctx context.Context, id, url string, configJSON []byte) error {
	module, err := r.objects.Fetch(ctx, url)
	if err != nil {
		return err
	}
	return r.RegisterWorker(id, module, configJSON)
}

// RemoveWorker drops id from the loaded map and releases its sandbox
// instance. The persisted cursor is retained; re-registering id resumes
// from it.
func (r *Runtime) RemoveWorker(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if instance, ok := r.workers[id]; ok {
		instance.Close()
		delete(r.workers, id)
	}
	r.engine.RemoveWorker(id)
}

// HandleChain drives every loaded worker through an undo/apply batch and
// durably advances their cursors (spec.md §4.E).
func (r *Runtime) HandleChain(undos []chain.BlockView, next chain.BlockView) error {
	return r.engine.HandleChain(undos, next)
}

// HandleRequest dispatches a single request to the worker's own router
// target (spec.md §4.E).
func (r *Runtime) HandleRequest(workerID, method string, params []byte) (abi.Response, error) {
	return r.engine.HandleRequest(workerID, method, params)
}

// ChainCursor returns the minimum cursor across loaded workers, or nil
// if none has made any progress yet (spec.md §4.F).
func (r *Runtime) ChainCursor() (*store.ChainPoint, error) {
	return r.engine.ChainCursor()
}

// Close releases every loaded sandbox instance and the underlying store.
func (r *Runtime) Close() error {
	r.mu.Lock()
	for id, instance := range r.workers {
		instance.Close()
		delete(r.workers, id)
	}
	r.mu.Unlock()
	return r.store.Close()
}
