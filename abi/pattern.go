package abi

import "fmt"

// PatternKind discriminates the EventPattern tagged union a worker
// registers with the driver capability at init time.
type PatternKind int

const (
	PatternRequest PatternKind = iota
	PatternUtxo
	PatternUtxoUndo
	PatternTx
	PatternTxUndo
	// PatternTimer and PatternMessage are reserved for future event
	// sources; registering either is a Config error today.
	PatternTimer
	PatternMessage
)

func (k PatternKind) String() string {
	switch k {
	case PatternRequest:
		return "Request"
	case PatternUtxo:
		return "Utxo"
	case PatternUtxoUndo:
		return "UtxoUndo"
	case PatternTx:
		return "Tx"
	case PatternTxUndo:
		return "TxUndo"
	case PatternTimer:
		return "Timer"
	case PatternMessage:
		return "Message"
	default:
		return fmt.Sprintf("PatternKind(%d)", int(k))
	}
}

// AssetRef names a token by policy and asset name. A Utxo/Tx pattern
// that sets Token, whether or not it also sets Address, is rejected at
// router registration rather than silently under-matched: the router
// has no token-based matching.
type AssetRef struct {
	PolicyID  []byte
	AssetName []byte
}

// Pattern is the subscription a worker channel registers. Address and
// Token are both optional; an absent Address means "wildcard" (matches
// every tx/utxo of that shape). Method is only meaningful for
// PatternRequest.
type Pattern struct {
	Kind    PatternKind
	Method  string
	Address []byte
	Token   *AssetRef
}

// RequestPattern builds a Request(method) pattern.
func RequestPattern(method string) Pattern {
	return Pattern{Kind: PatternRequest, Method: method}
}

// UtxoPattern builds a Utxo{address?, token?} pattern, or its undo
// counterpart when undo is true. A nil address and nil token match every
// utxo.
func UtxoPattern(address []byte, token *AssetRef, undo bool) Pattern {
	kind := PatternUtxo
	if undo {
		kind = PatternUtxoUndo
	}
	return Pattern{Kind: kind, Address: address, Token: token}
}

// TxPattern builds a Tx{address?, token?} pattern, or its undo
// counterpart when undo is true.
func TxPattern(address []byte, token *AssetRef, undo bool) Pattern {
	kind := PatternTx
	if undo {
		kind = PatternTxUndo
	}
	return Pattern{Kind: kind, Address: address, Token: token}
}
