package abi

import "fmt"

// ResponseKind discriminates the Response tagged union returned by a
// worker's handle export.
type ResponseKind int

const (
	ResponseAcknowledge ResponseKind = iota
	ResponseJSON
	ResponseCBOR
	ResponsePartialTx
)

func (k ResponseKind) String() string {
	switch k {
	case ResponseAcknowledge:
		return "Acknowledge"
	case ResponseJSON:
		return "Json"
	case ResponseCBOR:
		return "Cbor"
	case ResponsePartialTx:
		return "PartialTx"
	default:
		return fmt.Sprintf("ResponseKind(%d)", int(k))
	}
}

// Response is returned by a worker's handle export on success.
type Response struct {
	Kind ResponseKind
	Data []byte
}

// Acknowledge is the only response variant valid on passive event
// channels (Utxo/UtxoUndo/Tx/TxUndo).
func Acknowledge() Response { return Response{Kind: ResponseAcknowledge} }

// JSONResponse wraps an opaque JSON payload.
func JSONResponse(data []byte) Response { return Response{Kind: ResponseJSON, Data: data} }

// CBORResponse wraps an opaque CBOR payload.
func CBORResponse(data []byte) Response { return Response{Kind: ResponseCBOR, Data: data} }

// PartialTxResponse wraps a partially-built transaction in its canonical
// on-chain encoding.
func PartialTxResponse(data []byte) Response { return Response{Kind: ResponsePartialTx, Data: data} }

// HandleError is returned by a worker's handle export on failure. It is
// distinct from host-side transport failures (balerr.Error): it
// originates inside the sandboxed module.
type HandleError struct {
	Code    uint32
	Message string
}

func (e *HandleError) Error() string {
	return fmt.Sprintf("worker handle error (code %d): %s", e.Code, e.Message)
}
