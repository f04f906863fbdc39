// Package worker implements a single loaded worker instance: dispatching
// events into its sandboxed module, and the apply/undo ordering rules
// that drive a whole block through it. Grounded on
// original_source/balius-runtime/src/lib.rs's LoadedWorker
// (dispatch_event, acknowledge_event, apply_block, undo_block), extended
// to the full Tx+Utxo ordering spec.md §4.D requires — the Rust source
// only dispatches Utxo events, never Tx.
package worker

import (
	"github.com/sirupsen/logrus"

	"github.com/txpipe/balius/abi"
	"github.com/txpipe/balius/balerr"
	"github.com/txpipe/balius/chain"
	"github.com/txpipe/balius/metrics"
	"github.com/txpipe/balius/router"
	"github.com/txpipe/balius/sandboxhost"
)

// Instance is a single loaded worker: its identity, its sandboxed
// module, and the router it registered channels against during init.
// Per spec.md §4.E, each worker's router is its own — it only ever
// holds the channels that worker itself registered.
type Instance struct {
	ID      string
	sandbox sandboxhost.Instance
	router  *router.Router
	metrics *metrics.Metrics
	log     *logrus.Entry
}

// New wraps a loaded sandbox instance as a worker.Instance. r should be
// a fresh, worker-private router: the caller is expected to run
// sandbox.Init against a driver.Host bound to r before handing events
// to this Instance, so r ends up holding exactly this worker's channels.
func New(id string, sandbox sandboxhost.Instance, r *router.Router, m *metrics.Metrics, log *logrus.Logger) *Instance {
	return &Instance{
		ID:      id,
		sandbox: sandbox,
		router:  r,
		metrics: m,
		log:     log.WithField("worker", id),
	}
}

// Router returns this worker's private router, for wiring into a
// driver.Host during registration.
func (w *Instance) Router() *router.Router { return w.router }

// Dispatch runs a single channel/event through the sandboxed module. A
// worker-side failure comes back as a *balerr.Error of KindHandle; any
// other error is a host-side/transport failure.
func (w *Instance) Dispatch(channel abi.ChannelID, event abi.Event) (abi.Response, error) {
	resp, err := w.sandbox.Handle(channel, event)
	if err != nil {
		if he, ok := err.(*abi.HandleError); ok {
			return abi.Response{}, balerr.Handle(he.Code, he.Message)
		}
		return abi.Response{}, balerr.Wasm(err)
	}
	return resp, nil
}

// acknowledge dispatches event and expects an Acknowledge response; it
// is used for every passive event channel (Utxo/UtxoUndo/Tx/TxUndo).
// A Handle error is logged-and-swallowed here (spec.md §7), and a
// non-Acknowledge payload on a passive channel is an anomaly worth a
// warning but never fatal (spec.md §4.D); any other error propagates to
// abort the batch.
func (w *Instance) acknowledge(channel abi.ChannelID, event abi.Event) error {
	resp, err := w.Dispatch(channel, event)
	if err == nil {
		if resp.Kind != abi.ResponseAcknowledge {
			w.log.WithFields(logrus.Fields{
				"channel": channel,
				"event":   event.Kind.String(),
				"kind":    resp.Kind.String(),
			}).Warn("unexpected response payload on passive channel")
		}
		return nil
	}
	if code, msg, ok := balerr.AsHandle(err); ok {
		w.log.WithFields(logrus.Fields{
			"channel": channel,
			"event":   event.Kind.String(),
			"code":    code,
		}).Warnf("worker failed to handle event: %s", msg)
		return nil
	}
	return err
}

// ApplyBlock dispatches block forward: for each tx, a Tx event to every
// subscribed channel, then a Utxo event per output (in output order) to
// every channel subscribed to that output (spec.md §4.D).
func (w *Instance) ApplyBlock(block chain.BlockView) error {
	for _, tx := range block.Txs() {
		if err := w.dispatchTx(block, tx, false); err != nil {
			return err
		}
		for _, utxo := range tx.Produced() {
			if err := w.dispatchUtxo(block, utxo, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// UndoBlock dispatches block's undo in the symmetric, reversed order:
// within each tx, UtxoUndo fires in reverse output-index order, then
// TxUndo (spec.md §4.D, §8 scenario 4).
func (w *Instance) UndoBlock(block chain.BlockView) error {
	for _, tx := range block.Txs() {
		outputs := tx.Produced()
		for i := len(outputs) - 1; i >= 0; i-- {
			if err := w.dispatchUtxo(block, outputs[i], true); err != nil {
				return err
			}
		}
		if err := w.dispatchTx(block, tx, true); err != nil {
			return err
		}
	}
	return nil
}

// ApplyChain undoes every block in undos (oldest-to-newest, as given),
// then applies next — the full per-worker step of a chain batch
// (spec.md §4.D, §4.E step 2).
func (w *Instance) ApplyChain(undos []chain.BlockView, next chain.BlockView) error {
	for _, undo := range undos {
		if err := w.UndoBlock(undo); err != nil {
			return err
		}
	}
	return w.ApplyBlock(next)
}

func (w *Instance) dispatchTx(block chain.BlockView, tx chain.TxView, undo bool) error {
	targets := w.router.FindTxTargets(tx.Addresses(), nil, undo)
	event := abi.NewTxEvent(block.BlockRef(), tx.Hash(), tx.Body(), undo)
	for _, t := range targets {
		if err := w.acknowledge(t.Channel, event); err != nil {
			return err
		}
		if undo {
			w.metrics.UndoTxHandled(w.ID)
		} else {
			w.metrics.TxHandled(w.ID)
		}
	}
	return nil
}

func (w *Instance) dispatchUtxo(block chain.BlockView, utxo chain.UtxoView, undo bool) error {
	targets := w.router.FindUtxoTargets(utxo.Address(), utxo.Token(), undo)
	event := abi.NewUtxoEvent(block.BlockRef(), utxo.TxoRef(), utxo.Body(), undo)
	for _, t := range targets {
		if err := w.acknowledge(t.Channel, event); err != nil {
			return err
		}
		if undo {
			w.metrics.UndoUtxoHandled(w.ID)
		} else {
			w.metrics.UtxoHandled(w.ID)
		}
	}
	return nil
}
