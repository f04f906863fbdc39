package chain

import "github.com/txpipe/balius/abi"

// GenericUtxo is a plain-struct UtxoView, usable directly by drivers that
// already hold decoded fields, and by tests.
type GenericUtxo struct {
	Ref     abi.TxoRef
	Addr    []byte
	AssetID *abi.AssetRef
	Encoded []byte
}

func (u *GenericUtxo) TxoRef() abi.TxoRef    { return u.Ref }
func (u *GenericUtxo) Address() []byte       { return u.Addr }
func (u *GenericUtxo) Token() *abi.AssetRef  { return u.AssetID }
func (u *GenericUtxo) Body() []byte          { return u.Encoded }

// GenericTx is a plain-struct TxView.
type GenericTx struct {
	TxHash  []byte
	Addrs   [][]byte
	Encoded []byte
	Outputs []UtxoView
}

func (t *GenericTx) Hash() []byte         { return t.TxHash }
func (t *GenericTx) Addresses() [][]byte  { return t.Addrs }
func (t *GenericTx) Body() []byte         { return t.Encoded }
func (t *GenericTx) Produced() []UtxoView { return t.Outputs }

// GenericBlock is a plain-struct BlockView. Encoded, when set, is the
// block's canonical on-chain bytes, letting it round-trip through
// OpaqueCodec (store.OpaqueCodec.Encode/Decode) without losing the raw
// payload, even though a generic block carries no parsed Txs on decode.
type GenericBlock struct {
	Ref     abi.BlockRef
	Txs_    []TxView
	Encoded []byte
}

func (b *GenericBlock) BlockRef() abi.BlockRef { return b.Ref }
func (b *GenericBlock) Txs() []TxView          { return b.Txs_ }
func (b *GenericBlock) Raw() []byte            { return b.Encoded }
