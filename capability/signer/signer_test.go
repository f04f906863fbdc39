package signer

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/txpipe/balius/metrics"
)

func TestInMemory_AddKeyIsIdempotent(t *testing.T) {
	s := NewInMemory()
	pub1, err := s.AddKey("w1", "k1", "ed25519")
	if err != nil {
		t.Fatal(err)
	}
	pub2, err := s.AddKey("w1", "k1", "ed25519")
	if err != nil {
		t.Fatal(err)
	}
	if string(pub1) != string(pub2) {
		t.Fatal("second AddKey call rotated the key")
	}
}

func TestInMemory_SignPayloadVerifies(t *testing.T) {
	s := NewInMemory()
	pub, err := s.AddKey("w1", "k1", "ed25519")
	if err != nil {
		t.Fatal(err)
	}
	sig, err := s.SignPayload("w1", "k1", []byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), []byte("hello"), sig) {
		t.Fatal("signature does not verify against the returned public key")
	}
}

func TestInMemory_SignPayloadUnknownKeyIsKeyNotFound(t *testing.T) {
	h := NewHost("w1", NewInMemory(), metrics.New())

	_, err := h.SignPayload("missing", []byte("hello"))
	var signErr *SignError
	if !errors.As(err, &signErr) {
		t.Fatalf("want *SignError, got %v", err)
	}
	if signErr.Code != ErrKeyNotFound {
		t.Fatalf("want ErrKeyNotFound, got %v", signErr.Code)
	}
}

func TestInMemory_AddKeyUnsupportedAlgorithm(t *testing.T) {
	h := NewHost("w1", NewInMemory(), metrics.New())

	_, err := h.AddKey("k1", "secp256k1")
	var signErr *SignError
	if !errors.As(err, &signErr) {
		t.Fatalf("want *SignError, got %v", err)
	}
	if signErr.Code != ErrUnsupportedAlgorithm {
		t.Fatalf("want ErrUnsupportedAlgorithm, got %v", signErr.Code)
	}
}

func TestInMemory_LoadHexKeySeed(t *testing.T) {
	s := NewInMemory()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	hexKey := hex.EncodeToString(seed)
	if err := s.LoadHexKey("w1", "k1", hexKey); err != nil {
		t.Fatal(err)
	}
	pub, err := s.AddKey("w1", "k1", "ed25519")
	if err != nil {
		t.Fatal(err)
	}
	want := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)
	if string(pub) != string(want) {
		t.Fatal("AddKey after LoadHexKey should return the loaded key's public key")
	}
}
