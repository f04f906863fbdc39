// Package abi defines the data shapes that cross the sandbox boundary:
// events delivered into a worker's handle export, responses returned from
// it, and the subscription patterns a worker registers at init time.
package abi

import "fmt"

// ChannelID identifies a worker-local event handler, declared by the
// worker itself when it registers a channel with the driver capability.
type ChannelID = uint32

// BlockRef identifies a block by hash, height and slot.
type BlockRef struct {
	Hash   []byte
	Height uint64
	Slot   uint64
}

// TxoRef identifies a transaction output by its producing tx hash and
// output index.
type TxoRef struct {
	TxHash   []byte
	TxoIndex uint32
}

// EventKind discriminates the Event tagged union.
type EventKind int

const (
	EventRequest EventKind = iota
	EventUtxo
	EventUtxoUndo
	EventTx
	EventTxUndo
)

func (k EventKind) String() string {
	switch k {
	case EventRequest:
		return "Request"
	case EventUtxo:
		return "Utxo"
	case EventUtxoUndo:
		return "UtxoUndo"
	case EventTx:
		return "Tx"
	case EventTxUndo:
		return "TxUndo"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is the payload delivered into a worker's handle export. Only the
// fields relevant to Kind are populated; the rest are zero.
type Event struct {
	Kind EventKind

	// Request
	Params []byte

	// Utxo / UtxoUndo
	BlockRef BlockRef
	TxoRef   TxoRef
	Body     []byte

	// Tx / TxUndo
	TxHash []byte
}

// NewRequestEvent builds a Request event.
func NewRequestEvent(params []byte) Event {
	return Event{Kind: EventRequest, Params: params}
}

// NewUtxoEvent builds a Utxo (or UtxoUndo, when undo is true) event.
func NewUtxoEvent(blockRef BlockRef, txoRef TxoRef, body []byte, undo bool) Event {
	kind := EventUtxo
	if undo {
		kind = EventUtxoUndo
	}
	return Event{Kind: kind, BlockRef: blockRef, TxoRef: txoRef, Body: body}
}

// NewTxEvent builds a Tx (or TxUndo, when undo is true) event.
func NewTxEvent(blockRef BlockRef, txHash []byte, body []byte, undo bool) Event {
	kind := EventTx
	if undo {
		kind = EventTxUndo
	}
	return Event{Kind: kind, BlockRef: blockRef, TxHash: txHash, Body: body}
}
