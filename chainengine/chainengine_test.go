package chainengine

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/txpipe/balius/abi"
	"github.com/txpipe/balius/chain"
	"github.com/txpipe/balius/metrics"
	"github.com/txpipe/balius/router"
	"github.com/txpipe/balius/store"
	"github.com/txpipe/balius/worker"
)

type scriptedSandbox struct {
	calls int
	err   error
	resp  abi.Response
}

func (s *scriptedSandbox) Init([]byte) error { return nil }
func (s *scriptedSandbox) Handle(abi.ChannelID, abi.Event) (abi.Response, error) {
	s.calls++
	if s.err != nil {
		return abi.Response{}, s.err
	}
	return s.resp, nil
}
func (s *scriptedSandbox) Close() error { return nil }

func newEngine(t *testing.T) *Engine {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "store.pogreb"), store.OpaqueCodec{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s, metrics.New())
}

func addWorker(t *testing.T, e *Engine, id string, sandbox *scriptedSandbox, patterns ...abi.Pattern) {
	t.Helper()
	r := router.New()
	for i, p := range patterns {
		if err := r.RegisterChannel(id, abi.ChannelID(i+1), p); err != nil {
			t.Fatal(err)
		}
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	w := worker.New(id, sandbox, r, metrics.New(), log)
	e.AddWorker(w)
}

func block(addr []byte) chain.BlockView {
	return &chain.GenericBlock{
		Ref: abi.BlockRef{Slot: 1},
		Txs_: []chain.TxView{&chain.GenericTx{
			TxHash: []byte("tx1"),
			Addrs:  [][]byte{addr},
			Outputs: []chain.UtxoView{
				&chain.GenericUtxo{Ref: abi.TxoRef{TxHash: []byte("tx1"), TxoIndex: 0}, Addr: addr},
			},
		}},
	}
}

func TestHandleChain_AdvancesCursorOnSuccess(t *testing.T) {
	e := newEngine(t)
	sandbox := &scriptedSandbox{resp: abi.Acknowledge()}
	addWorker(t, e, "w1", sandbox, abi.UtxoPattern(nil, nil, false))

	if err := e.HandleChain(nil, block([]byte("addr"))); err != nil {
		t.Fatal(err)
	}

	cursor, err := e.ChainCursor()
	if err != nil {
		t.Fatal(err)
	}
	if cursor == nil || cursor.Slot != 1 {
		t.Fatalf("want cursor at slot 1, got %+v", cursor)
	}
	if sandbox.calls != 1 {
		t.Fatalf("want 1 dispatch, got %d", sandbox.calls)
	}
}

func TestHandleChain_NonHandleErrorAbortsAndLeavesCursorUnmoved(t *testing.T) {
	e := newEngine(t)
	sandbox := &scriptedSandbox{err: errors.New("boom")}
	addWorker(t, e, "w1", sandbox, abi.UtxoPattern(nil, nil, false))

	if err := e.HandleChain(nil, block([]byte("addr"))); err == nil {
		t.Fatal("want error")
	}

	cursor, err := e.ChainCursor()
	if err != nil {
		t.Fatal(err)
	}
	if cursor != nil {
		t.Fatalf("cursor should not have advanced, got %+v", cursor)
	}
}

func TestHandleChain_HandleErrorDoesNotAbort(t *testing.T) {
	e := newEngine(t)
	sandbox := &scriptedSandbox{err: &abi.HandleError{Code: 1, Message: "nope"}}
	addWorker(t, e, "w1", sandbox, abi.UtxoPattern(nil, nil, false))

	if err := e.HandleChain(nil, block([]byte("addr"))); err != nil {
		t.Fatalf("Handle error should not abort the batch, got %v", err)
	}

	cursor, err := e.ChainCursor()
	if err != nil {
		t.Fatal(err)
	}
	if cursor == nil {
		t.Fatal("cursor should have advanced despite the Handle error")
	}
}

func TestHandleChain_TwoWorkersDifferentPatterns(t *testing.T) {
	e := newEngine(t)
	wa := &scriptedSandbox{resp: abi.Acknowledge()}
	wb := &scriptedSandbox{resp: abi.Acknowledge()}
	addWorker(t, e, "wa", wa, abi.UtxoPattern(nil, nil, false))
	addWorker(t, e, "wb", wb, abi.UtxoPattern([]byte("0xAA"), nil, false))

	b := &chain.GenericBlock{
		Ref: abi.BlockRef{Slot: 1},
		Txs_: []chain.TxView{&chain.GenericTx{
			TxHash: []byte("tx1"),
			Addrs:  [][]byte{[]byte("0xAA"), []byte("0xBB")},
			Outputs: []chain.UtxoView{
				&chain.GenericUtxo{Ref: abi.TxoRef{TxHash: []byte("tx1"), TxoIndex: 0}, Addr: []byte("0xAA")},
				&chain.GenericUtxo{Ref: abi.TxoRef{TxHash: []byte("tx1"), TxoIndex: 1}, Addr: []byte("0xBB")},
			},
		}},
	}

	if err := e.HandleChain(nil, b); err != nil {
		t.Fatal(err)
	}
	if wa.calls != 2 {
		t.Fatalf("wa (EveryUtxo) wants 2 calls, got %d", wa.calls)
	}
	if wb.calls != 1 {
		t.Fatalf("wb (UtxoAddress 0xAA) wants 1 call, got %d", wb.calls)
	}
}

func TestHandleRequest_WorkerNotFound(t *testing.T) {
	e := newEngine(t)
	_, err := e.HandleRequest("missing", "balance", nil)
	if err == nil {
		t.Fatal("want error")
	}
}

func TestHandleRequest_DispatchesToResolvedChannel(t *testing.T) {
	e := newEngine(t)
	sandbox := &scriptedSandbox{resp: abi.JSONResponse([]byte(`{"ok":true}`))}
	addWorker(t, e, "w1", sandbox, abi.RequestPattern("balance"))

	resp, err := e.HandleRequest("w1", "balance", []byte("params"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Kind != abi.ResponseJSON {
		t.Fatalf("want JSON response, got %v", resp.Kind)
	}
}
