package store

import (
	"github.com/txpipe/balius/abi"
	"github.com/txpipe/balius/chain"
)

// BlockCodec turns a chain.BlockView into the bytes persisted in a WAL
// entry and back, so the Store can answer handle_reset with blocks a
// driver can feed straight into handle_chain's undos argument (spec.md
// §4.B). The concrete chain format is an external collaborator (spec.md
// §1); the Store only needs something that round-trips.
type BlockCodec interface {
	Encode(chain.BlockView) []byte
	Decode(raw []byte, ref abi.BlockRef) (chain.BlockView, error)
}

// RawBlock is implemented by a BlockView that can hand back its original
// encoded bytes, letting OpaqueCodec avoid re-deriving them.
type RawBlock interface {
	Raw() []byte
}

// OpaqueCodec stores whatever bytes the driver handed in when it built
// the chain.BlockView, if any (chain.GenericBlock and real driver
// adapters are expected to retain the raw block alongside the
// structural view). It is the simplest codec that satisfies BlockCodec's
// contract without this package needing to know a real chain format.
type OpaqueCodec struct{}

func (OpaqueCodec) Encode(b chain.BlockView) []byte {
	if raw, ok := b.(RawBlock); ok {
		return raw.Raw()
	}
	return nil
}

// Decode has no chain format to parse transactions back out of opaque
// bytes, so it hands back a block carrying ref and the raw bytes but no
// Txs. That is enough for a caller only interested in handle_reset's
// bookkeeping (which point it rolled back to); a driver that needs undo
// events actually replayed into workers must supply a codec that parses
// its own chain format.
func (OpaqueCodec) Decode(raw []byte, ref abi.BlockRef) (chain.BlockView, error) {
	return &chain.GenericBlock{Ref: ref, Encoded: raw}, nil
}
