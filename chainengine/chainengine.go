// Package chainengine implements the chain engine: the five-step
// write-ahead-then-dispatch-then-commit protocol that drives every
// loaded worker through a chain batch, and the simpler single-worker
// request path. Grounded on
// original_source/balius-runtime/src/lib.rs's Runtime::handle_chain and
// Runtime::handle_request, matching spec.md §4.E exactly.
package chainengine

import (
	"sort"
	"sync"
	"time"

	"github.com/txpipe/balius/abi"
	"github.com/txpipe/balius/balerr"
	"github.com/txpipe/balius/chain"
	"github.com/txpipe/balius/metrics"
	"github.com/txpipe/balius/store"
	"github.com/txpipe/balius/worker"
)

// Engine owns the exclusive lock spec.md §4.E's protocol requires, the
// durable store, and the set of currently loaded workers. Block encoding
// for the WAL lives on the Store itself (store.BlockCodec), set once at
// store.Open, since handle_reset is a Store-level operation a driver may
// call directly without going through the Engine (spec.md §4.B).
type Engine struct {
	mu      sync.Mutex
	store   *store.Store
	metrics *metrics.Metrics
	workers map[string]*worker.Instance
}

// New builds an Engine against an already-open store.
func New(s *store.Store, m *metrics.Metrics) *Engine {
	return &Engine{store: s, metrics: m, workers: make(map[string]*worker.Instance)}
}

// AddWorker makes w visible to future HandleChain/HandleRequest calls.
func (e *Engine) AddWorker(w *worker.Instance) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.workers[w.ID] = w
	e.metrics.SetLoadedWorkers(len(e.workers))
}

// RemoveWorker drops w from future dispatches. The worker's persisted
// cursor in the store is left untouched (spec.md §9 Open Question (a)).
func (e *Engine) RemoveWorker(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.workers, id)
	e.metrics.SetLoadedWorkers(len(e.workers))
}

// HandleChain runs the five-step protocol: lock, write_ahead, begin the
// atomic update, apply_chain per worker (advancing that worker's staged
// cursor only on success), then commit. Any error before the commit
// aborts the whole batch: the atomic update is dropped and no cursor
// moves, but the WAL entry written in step 2 remains — a restart
// recovers via FindChainPoint(min(cursors)+1).
func (e *Engine) HandleChain(undos []chain.BlockView, next chain.BlockView) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	defer func() {
		e.metrics.HandleChainDuration(float64(time.Since(start).Milliseconds()))
	}()

	logSeq, err := e.store.WriteAhead(undos, next)
	if err != nil {
		return err
	}

	update := e.store.Begin(logSeq)

	// Dispatch order across workers is unspecified but must be
	// deterministic per run (spec.md §5); sorted ids give that cheaply.
	ids := make([]string, 0, len(e.workers))
	for id := range e.workers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		w := e.workers[id]
		workerStart := time.Now()
		err := w.ApplyChain(undos, next)
		e.metrics.HandleWorkerChainDuration(id, float64(time.Since(workerStart).Milliseconds()))
		if err != nil {
			e.metrics.ChainError(id)
			return err
		}
		update.ForWorker(id).UpdateCursor()
	}

	if err := update.Commit(); err != nil {
		return err
	}

	ref := next.BlockRef()
	e.metrics.SetLatestBlock(ref.Height, ref.Slot)
	return nil
}

// HandleRequest resolves the single channel workerID's own router has
// registered for method, and dispatches a Request event to it. Requests
// never touch the WAL or any cursor (spec.md §4.E).
func (e *Engine) HandleRequest(workerID, method string, params []byte) (resp abi.Response, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	defer func() {
		e.metrics.Request(workerID, method, err == nil, float64(time.Since(start).Milliseconds()))
	}()

	w, ok := e.workers[workerID]
	if !ok {
		return abi.Response{}, balerr.WorkerNotFound(workerID)
	}

	target, err := w.Router().FindRequestTarget(method)
	if err != nil {
		return abi.Response{}, err
	}
	return w.Dispatch(target.Channel, abi.NewRequestEvent(params))
}

// ChainCursor returns min(cursor) across every loaded worker, or nil if
// none has ever committed one (spec.md §4.E, §4.F).
func (e *Engine) ChainCursor() (*store.ChainPoint, error) {
	e.mu.Lock()
	workerIDs := make([]string, 0, len(e.workers))
	for id := range e.workers {
		workerIDs = append(workerIDs, id)
	}
	e.mu.Unlock()

	// A worker with no committed cursor yet (seq == 0) is skipped, not
	// treated as a blocking minimum — mirroring the Rust source's
	// `.map(|w| w.cursor).flatten().min()`, which drops workers whose
	// cursor is still None rather than letting one None cursor make the
	// whole min() None.
	var minSeq uint64
	found := false
	for _, id := range workerIDs {
		seq, err := e.store.GetWorkerCursor(id)
		if err != nil {
			return nil, err
		}
		if seq == 0 {
			continue
		}
		if !found || seq < minSeq {
			minSeq = seq
			found = true
		}
	}
	if !found {
		return nil, nil
	}

	point, err := e.store.FindChainPoint(minSeq)
	if err != nil {
		return nil, err
	}
	return &point, nil
}
