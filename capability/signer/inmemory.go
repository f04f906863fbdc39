package signer

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
)

// InMemory is the default Provider: Ed25519 keys held only in process
// memory, added on first use and never persisted. Grounded on
// original_source/balius-runtime/src/sign/in_memory.rs, reimplemented
// against crypto/ed25519 (stdlib, and the teacher's own choice in
// core/wallet.go) in place of pallas::crypto::key::ed25519.
type InMemory struct {
	mu   sync.Mutex
	keys map[string]map[string]ed25519.PrivateKey
}

// NewInMemory returns an empty InMemory signer.
func NewInMemory() *InMemory {
	return &InMemory{keys: make(map[string]map[string]ed25519.PrivateKey)}
}

// LoadHexKey seeds keyName for workerID from a hex-encoded secret key.
// A 32-byte decode is treated as an Ed25519 seed (ed25519.NewKeyFromSeed);
// a 64-byte decode is treated as an already-expanded private key (the
// stdlib's own seed+public-key concatenation), mirroring the Rust
// source's SecretKey-vs-SecretKeyExtended disambiguation by length.
func (s *InMemory) LoadHexKey(workerID, keyName, hexKey string) error {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return fmt.Errorf("decode hex key %q: %w", keyName, err)
	}

	var priv ed25519.PrivateKey
	switch len(raw) {
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(raw)
	case ed25519.PrivateKeySize:
		priv = ed25519.PrivateKey(raw)
	default:
		return fmt.Errorf("key %q: %d bytes matches neither a %d-byte seed nor a %d-byte extended key",
			keyName, len(raw), ed25519.SeedSize, ed25519.PrivateKeySize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.keys[workerID]
	if !ok {
		ns = make(map[string]ed25519.PrivateKey)
		s.keys[workerID] = ns
	}
	ns[keyName] = priv
	return nil
}

func (s *InMemory) AddKey(workerID, keyName, algorithm string) ([]byte, error) {
	if algorithm != "ed25519" {
		return nil, &SignError{Code: ErrUnsupportedAlgorithm, Message: algorithm}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.keys[workerID]
	if !ok {
		ns = make(map[string]ed25519.PrivateKey)
		s.keys[workerID] = ns
	}
	priv, ok := ns[keyName]
	if !ok {
		_, generated, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		priv = generated
		ns[keyName] = priv
	}
	pub := priv.Public().(ed25519.PublicKey)
	return []byte(pub), nil
}

func (s *InMemory) SignPayload(workerID, keyName string, payload []byte) ([]byte, error) {
	s.mu.Lock()
	priv, ok := s.keys[workerID][keyName]
	s.mu.Unlock()
	if !ok {
		return nil, &SignError{Code: ErrKeyNotFound, Message: keyName}
	}
	return ed25519.Sign(priv, payload), nil
}
