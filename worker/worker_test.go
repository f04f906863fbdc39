package worker

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/txpipe/balius/abi"
	"github.com/txpipe/balius/balerr"
	"github.com/txpipe/balius/chain"
	"github.com/txpipe/balius/metrics"
	"github.com/txpipe/balius/router"
)

// fakeSandbox records every event it was handed and answers with a
// scripted response or error, keyed by event kind.
type fakeSandbox struct {
	calls     []abi.Event
	responses map[abi.EventKind]abi.Response
	errors    map[abi.EventKind]error
}

func newFakeSandbox() *fakeSandbox {
	return &fakeSandbox{responses: make(map[abi.EventKind]abi.Response), errors: make(map[abi.EventKind]error)}
}

func (f *fakeSandbox) Init([]byte) error { return nil }

func (f *fakeSandbox) Handle(channel abi.ChannelID, event abi.Event) (abi.Response, error) {
	f.calls = append(f.calls, event)
	if err, ok := f.errors[event.Kind]; ok {
		return abi.Response{}, err
	}
	if resp, ok := f.responses[event.Kind]; ok {
		return resp, nil
	}
	return abi.Acknowledge(), nil
}

func (f *fakeSandbox) Close() error { return nil }

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func buildBlockWithTwoOutputs() chain.BlockView {
	tx := &chain.GenericTx{
		TxHash: []byte("tx1"),
		Addrs:  [][]byte{[]byte("0xAA"), []byte("0xBB")},
		Outputs: []chain.UtxoView{
			&chain.GenericUtxo{Ref: abi.TxoRef{TxHash: []byte("tx1"), TxoIndex: 0}, Addr: []byte("0xAA")},
			&chain.GenericUtxo{Ref: abi.TxoRef{TxHash: []byte("tx1"), TxoIndex: 1}, Addr: []byte("0xBB")},
		},
	}
	return &chain.GenericBlock{Ref: abi.BlockRef{Slot: 10}, Txs_: []chain.TxView{tx}}
}

func TestApplyBlock_DispatchesTxThenUtxoInOrder(t *testing.T) {
	r := router.New()
	if err := r.RegisterChannel("w1", 1, abi.TxPattern(nil, nil, false)); err != nil {
		t.Fatal(err)
	}
	if err := r.RegisterChannel("w1", 2, abi.UtxoPattern(nil, nil, false)); err != nil {
		t.Fatal(err)
	}

	sandbox := newFakeSandbox()
	w := New("w1", sandbox, r, metrics.New(), discardLogger())

	if err := w.ApplyBlock(buildBlockWithTwoOutputs()); err != nil {
		t.Fatal(err)
	}

	if len(sandbox.calls) != 3 {
		t.Fatalf("want 3 events (1 tx + 2 utxo), got %d", len(sandbox.calls))
	}
	if sandbox.calls[0].Kind != abi.EventTx {
		t.Fatalf("want Tx first, got %v", sandbox.calls[0].Kind)
	}
	if sandbox.calls[1].Kind != abi.EventUtxo || sandbox.calls[1].TxoRef.TxoIndex != 0 {
		t.Fatalf("want Utxo output 0 second, got %+v", sandbox.calls[1])
	}
	if sandbox.calls[2].Kind != abi.EventUtxo || sandbox.calls[2].TxoRef.TxoIndex != 1 {
		t.Fatalf("want Utxo output 1 third, got %+v", sandbox.calls[2])
	}
}

func TestUndoBlock_ReverseOutputOrderThenTxUndo(t *testing.T) {
	r := router.New()
	if err := r.RegisterChannel("w1", 1, abi.TxPattern(nil, nil, true)); err != nil {
		t.Fatal(err)
	}
	if err := r.RegisterChannel("w1", 2, abi.UtxoPattern(nil, nil, true)); err != nil {
		t.Fatal(err)
	}

	sandbox := newFakeSandbox()
	w := New("w1", sandbox, r, metrics.New(), discardLogger())

	if err := w.UndoBlock(buildBlockWithTwoOutputs()); err != nil {
		t.Fatal(err)
	}

	if len(sandbox.calls) != 3 {
		t.Fatalf("want 3 events, got %d", len(sandbox.calls))
	}
	if sandbox.calls[0].Kind != abi.EventUtxoUndo || sandbox.calls[0].TxoRef.TxoIndex != 1 {
		t.Fatalf("want UtxoUndo output 1 first, got %+v", sandbox.calls[0])
	}
	if sandbox.calls[1].Kind != abi.EventUtxoUndo || sandbox.calls[1].TxoRef.TxoIndex != 0 {
		t.Fatalf("want UtxoUndo output 0 second, got %+v", sandbox.calls[1])
	}
	if sandbox.calls[2].Kind != abi.EventTxUndo {
		t.Fatalf("want TxUndo last, got %v", sandbox.calls[2].Kind)
	}
}

func TestAcknowledge_SwallowsHandleErrorButPropagatesOthers(t *testing.T) {
	r := router.New()
	if err := r.RegisterChannel("w1", 1, abi.UtxoPattern(nil, nil, false)); err != nil {
		t.Fatal(err)
	}

	sandbox := newFakeSandbox()
	sandbox.errors[abi.EventUtxo] = &abi.HandleError{Code: 7, Message: "boom"}
	w := New("w1", sandbox, r, metrics.New(), discardLogger())

	block := &chain.GenericBlock{
		Ref: abi.BlockRef{},
		Txs_: []chain.TxView{&chain.GenericTx{
			TxHash:  []byte("tx1"),
			Outputs: []chain.UtxoView{&chain.GenericUtxo{Ref: abi.TxoRef{TxHash: []byte("tx1")}}},
		}},
	}

	if err := w.ApplyBlock(block); err != nil {
		t.Fatalf("Handle error should be swallowed, got %v", err)
	}

	sandbox.errors[abi.EventUtxo] = io.ErrUnexpectedEOF
	if err := w.ApplyBlock(block); err == nil {
		t.Fatal("non-Handle error should propagate and abort the block")
	}
}

func TestDispatch_WrapsHandleError(t *testing.T) {
	r := router.New()
	sandbox := newFakeSandbox()
	sandbox.errors[abi.EventRequest] = &abi.HandleError{Code: 42, Message: "nope"}
	w := New("w1", sandbox, r, metrics.New(), discardLogger())

	_, err := w.Dispatch(1, abi.NewRequestEvent(nil))
	code, msg, ok := balerr.AsHandle(err)
	if !ok {
		t.Fatalf("want Handle error, got %v", err)
	}
	if code != 42 || msg != "nope" {
		t.Fatalf("got code=%d msg=%q", code, msg)
	}
}
