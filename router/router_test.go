package router

import (
	"testing"

	"github.com/txpipe/balius/abi"
	"github.com/txpipe/balius/balerr"
)

func TestFindRequestTarget_NoTarget(t *testing.T) {
	r := New()
	_, err := r.FindRequestTarget("balance")
	if !balerr.IsNoTarget(err) {
		t.Fatalf("want NoTarget, got %v", err)
	}
}

func TestFindRequestTarget_Unique(t *testing.T) {
	r := New()
	if err := r.RegisterChannel("w1", 1, abi.RequestPattern("balance")); err != nil {
		t.Fatal(err)
	}
	got, err := r.FindRequestTarget("balance")
	if err != nil {
		t.Fatal(err)
	}
	want := Target{WorkerID: "w1", Channel: 1}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestFindRequestTarget_Ambiguous(t *testing.T) {
	r := New()
	if err := r.RegisterChannel("w1", 1, abi.RequestPattern("balance")); err != nil {
		t.Fatal(err)
	}
	if err := r.RegisterChannel("w2", 1, abi.RequestPattern("balance")); err != nil {
		t.Fatal(err)
	}
	_, err := r.FindRequestTarget("balance")
	if !balerr.IsAmbiguousTarget(err) {
		t.Fatalf("want AmbiguousTarget, got %v", err)
	}
}

func TestRegisterChannel_IsIdempotent(t *testing.T) {
	r := New()
	mustRegister(t, r, "w1", 7, abi.RequestPattern("claim"))
	mustRegister(t, r, "w1", 7, abi.RequestPattern("claim"))

	got, err := r.FindRequestTarget("claim")
	if err != nil {
		t.Fatalf("duplicate registration must not make the target ambiguous: %v", err)
	}
	if got.Channel != 7 {
		t.Fatalf("got %+v", got)
	}

	mustRegister(t, r, "w1", 1, abi.UtxoPattern(nil, nil, false))
	mustRegister(t, r, "w1", 1, abi.UtxoPattern(nil, nil, false))
	if targets := r.FindUtxoTargets([]byte("addr"), nil, false); len(targets) != 1 {
		t.Fatalf("want 1 target after duplicate registration, got %+v", targets)
	}
}

func TestRegisterChannel_RejectsAddressAndToken(t *testing.T) {
	r := New()
	pattern := abi.UtxoPattern([]byte("addr1"), &abi.AssetRef{PolicyID: []byte("p"), AssetName: []byte("a")}, false)
	err := r.RegisterChannel("w1", 1, pattern)
	if err == nil {
		t.Fatal("want error, got nil")
	}
	if as, ok := err.(*balerr.Error); !ok || as.Kind != balerr.KindConfig {
		t.Fatalf("want Config error, got %v", err)
	}
}

func TestFindUtxoTargets_WildcardAndAddress(t *testing.T) {
	r := New()
	mustRegister(t, r, "wildcard", 1, abi.UtxoPattern(nil, nil, false))
	mustRegister(t, r, "narrow", 2, abi.UtxoPattern([]byte("addr1"), nil, false))

	got := r.FindUtxoTargets([]byte("addr1"), nil, false)
	if len(got) != 2 {
		t.Fatalf("want 2 targets, got %d: %+v", len(got), got)
	}

	got = r.FindUtxoTargets([]byte("addr2"), nil, false)
	if len(got) != 1 || got[0].WorkerID != "wildcard" {
		t.Fatalf("want only the wildcard subscriber, got %+v", got)
	}
}

func TestFindUtxoTargets_UndoIsDistinctFromForward(t *testing.T) {
	r := New()
	mustRegister(t, r, "forward", 1, abi.UtxoPattern(nil, nil, false))

	if got := r.FindUtxoTargets([]byte("addr1"), nil, true); len(got) != 0 {
		t.Fatalf("forward subscriber should not see undo events, got %+v", got)
	}
}

func TestFindTxTargets_DedupesWhenChannelMatchesMultipleKeys(t *testing.T) {
	r := New()
	mustRegister(t, r, "w1", 1, abi.TxPattern(nil, nil, false))

	got := r.FindTxTargets([][]byte{[]byte("addr1"), []byte("addr2")}, nil, false)
	if len(got) != 1 {
		t.Fatalf("want exactly one (deduped) target, got %+v", got)
	}
}

func TestRemoveWorker(t *testing.T) {
	r := New()
	mustRegister(t, r, "w1", 1, abi.RequestPattern("balance"))
	mustRegister(t, r, "w2", 1, abi.UtxoPattern(nil, nil, false))

	r.RemoveWorker("w1")

	if _, err := r.FindRequestTarget("balance"); !balerr.IsNoTarget(err) {
		t.Fatalf("want NoTarget after removal, got %v", err)
	}
	if got := r.FindUtxoTargets([]byte("addr1"), nil, false); len(got) != 1 || got[0].WorkerID != "w2" {
		t.Fatalf("removal of w1 should not affect w2, got %+v", got)
	}
}

func mustRegister(t *testing.T, r *Router, worker string, ch abi.ChannelID, p abi.Pattern) {
	t.Helper()
	if err := r.RegisterChannel(worker, ch, p); err != nil {
		t.Fatalf("RegisterChannel(%s): %v", worker, err)
	}
}
