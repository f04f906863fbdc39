package driver

import (
	"errors"
	"testing"

	"github.com/txpipe/balius/abi"
)

type fakeRouter struct {
	calls []struct {
		workerID string
		channel  abi.ChannelID
		pattern  abi.Pattern
	}
	err error
}

func (r *fakeRouter) RegisterChannel(workerID string, channel abi.ChannelID, pattern abi.Pattern) error {
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, struct {
		workerID string
		channel  abi.ChannelID
		pattern  abi.Pattern
	}{workerID, channel, pattern})
	return nil
}

type fakeKeyAdder struct {
	workerID, keyName, algorithm string
	key                          []byte
	err                          error
}

func (k *fakeKeyAdder) AddKey(workerID, keyName, algorithm string) ([]byte, error) {
	k.workerID, k.keyName, k.algorithm = workerID, keyName, algorithm
	return k.key, k.err
}

func TestHost_RegisterChannelDelegatesWithWorkerID(t *testing.T) {
	router := &fakeRouter{}
	h := NewHost("worker-1", router, nil)

	pattern := abi.Pattern{Kind: abi.PatternRequest}
	if err := h.RegisterChannel(abi.ChannelID(7), pattern); err != nil {
		t.Fatal(err)
	}

	if len(router.calls) != 1 {
		t.Fatalf("want 1 call, got %d", len(router.calls))
	}
	call := router.calls[0]
	if call.workerID != "worker-1" || call.channel != abi.ChannelID(7) {
		t.Fatalf("got %+v", call)
	}
}

func TestHost_RegisterChannelPropagatesError(t *testing.T) {
	router := &fakeRouter{err: errors.New("boom")}
	h := NewHost("worker-1", router, nil)

	if err := h.RegisterChannel(abi.ChannelID(1), abi.Pattern{}); err == nil {
		t.Fatal("want error to propagate")
	}
}

func TestHost_AddKeyDelegatesWithWorkerID(t *testing.T) {
	keys := &fakeKeyAdder{key: []byte("pubkey")}
	h := NewHost("worker-1", &fakeRouter{}, keys)

	key, err := h.AddKey("signing", "ed25519")
	if err != nil {
		t.Fatal(err)
	}
	if string(key) != "pubkey" {
		t.Fatalf("got %q", key)
	}
	if keys.workerID != "worker-1" || keys.keyName != "signing" || keys.algorithm != "ed25519" {
		t.Fatalf("got %+v", keys)
	}
}

func TestHost_AddKeyNoopWhenKeysUnset(t *testing.T) {
	h := NewHost("worker-1", &fakeRouter{}, nil)

	key, err := h.AddKey("signing", "ed25519")
	if err != nil || key != nil {
		t.Fatalf("want (nil, nil), got (%v, %v)", key, err)
	}
}
