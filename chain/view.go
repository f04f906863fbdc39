// Package chain defines the structural view the router and chain engine
// need over ingested chain data: blocks, their transactions, and the
// utxos each transaction produces or consumes. The concrete chain format
// (Cardano, or anything else) is an external collaborator (spec.md §1);
// this package only names the shape a driver must be able to produce.
package chain

import "github.com/txpipe/balius/abi"

// TxView is a single transaction inside a block, as seen by the router
// and chain engine.
type TxView interface {
	// Hash is the transaction's canonical hash.
	Hash() []byte
	// Addresses returns every address this transaction touches, either
	// as an input owner or an output recipient, used to evaluate
	// TxAddress match keys.
	Addresses() [][]byte
	// Body returns the transaction's canonical encoding, delivered to
	// workers as Event.Body.
	Body() []byte
	// Produced returns the utxos this transaction creates.
	Produced() []UtxoView
}

// UtxoView is a single transaction output, as seen by the router and
// chain engine.
type UtxoView interface {
	// TxoRef identifies this output by producing tx hash and index.
	TxoRef() abi.TxoRef
	// Address is the owning address, or nil if the output has none the
	// router can key on.
	Address() []byte
	// Token is the policy/asset pair this output carries, or nil.
	Token() *abi.AssetRef
	// Body is the output's canonical encoding, delivered to workers as
	// Event.Body.
	Body() []byte
}

// BlockView is a single ingested block, as seen by the chain engine.
type BlockView interface {
	// BlockRef identifies this block by hash, height and slot.
	BlockRef() abi.BlockRef
	// Txs returns the block's transactions in canonical order.
	Txs() []TxView
}
