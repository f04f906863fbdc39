package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"

	"github.com/txpipe/balius/abi"
)

// jsonCodecName is registered with grpc's global codec registry so any
// ClientConn built with grpc.WithDefaultCallOptions(grpc.ForceCodec(...))
// exchanges plain JSON-tagged Go structs instead of protobuf. There is no
// .proto schema for a made-up "ledger query" service in this module, and
// hand-writing generated-looking .pb.go stubs for one would fabricate a
// dependency rather than use one — registering a codec is the documented,
// supported way to run grpc-go without protoc at all.
const jsonCodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                               { return jsonCodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// GRPC is a Provider that queries a remote ledger service over grpc,
// using the JSON codec registered above in place of generated protobuf
// messages.
type GRPC struct {
	conn    *grpc.ClientConn
	service string
}

// DialGRPC connects to target (host:port) and names the fully-qualified
// service this client calls methods against, e.g. "balius.LedgerQuery".
func DialGRPC(target, service string) (*GRPC, error) {
	conn, err := grpc.NewClient(target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	)
	if err != nil {
		return nil, err
	}
	return &GRPC{conn: conn, service: service}, nil
}

func (c *GRPC) Close() error { return c.conn.Close() }

// wireUtxo is the utxo shape the ledger service speaks; hex-free byte
// fields ride JSON's standard base64 encoding.
type wireUtxo struct {
	TxHash    []byte `json:"tx_hash"`
	TxoIndex  uint32 `json:"txo_index"`
	Address   []byte `json:"address"`
	PolicyID  []byte `json:"policy_id,omitempty"`
	AssetName []byte `json:"asset_name,omitempty"`
	Body      []byte `json:"body"`
}

func (w wireUtxo) toUtxo() Utxo {
	u := Utxo{
		Ref:     abi.TxoRef{TxHash: w.TxHash, TxoIndex: w.TxoIndex},
		Address: w.Address,
		Body:    w.Body,
	}
	if len(w.PolicyID) > 0 || len(w.AssetName) > 0 {
		u.Token = &abi.AssetRef{PolicyID: w.PolicyID, AssetName: w.AssetName}
	}
	return u
}

type readUtxosRequest struct {
	Refs []abi.TxoRef `json:"refs"`
}

type readUtxosReply struct {
	Utxos []wireUtxo `json:"utxos"`
}

func (c *GRPC) ReadUtxos(refs []abi.TxoRef) ([]Utxo, error) {
	var reply readUtxosReply
	if err := c.invoke("ReadUtxos", readUtxosRequest{Refs: refs}, &reply); err != nil {
		return nil, err
	}
	out := make([]Utxo, len(reply.Utxos))
	for i, w := range reply.Utxos {
		out[i] = w.toUtxo()
	}
	return out, nil
}

type searchUtxosRequest struct {
	Address    []byte `json:"address,omitempty"`
	PolicyID   []byte `json:"policy_id,omitempty"`
	AssetName  []byte `json:"asset_name,omitempty"`
	StartToken []byte `json:"start_token,omitempty"`
	MaxItems   int    `json:"max_items"`
}

type searchUtxosReply struct {
	Utxos     []wireUtxo `json:"utxos"`
	NextToken []byte     `json:"next_token,omitempty"`
}

func (c *GRPC) SearchUtxos(pattern SearchPattern, startToken []byte, maxItems int) (SearchResult, error) {
	req := searchUtxosRequest{
		Address:    pattern.Address,
		StartToken: startToken,
		MaxItems:   maxItems,
	}
	if pattern.Token != nil {
		req.PolicyID = pattern.Token.PolicyID
		req.AssetName = pattern.Token.AssetName
	}

	var reply searchUtxosReply
	if err := c.invoke("SearchUtxos", req, &reply); err != nil {
		return SearchResult{}, err
	}

	result := SearchResult{NextToken: reply.NextToken}
	for _, w := range reply.Utxos {
		result.Utxos = append(result.Utxos, w.toUtxo())
	}
	return result, nil
}

type readParamsReply struct {
	Params []byte `json:"params"`
}

func (c *GRPC) ReadParams() ([]byte, error) {
	var reply readParamsReply
	if err := c.invoke("ReadParams", struct{}{}, &reply); err != nil {
		return nil, err
	}
	return reply.Params, nil
}

func (c *GRPC) invoke(method string, req, reply interface{}) error {
	fullMethod := fmt.Sprintf("/%s/%s", c.service, method)
	return c.conn.Invoke(context.Background(), fullMethod, req, reply)
}
