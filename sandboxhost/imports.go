package sandboxhost

import (
	"encoding/json"
	"fmt"

	"github.com/txpipe/balius/abi"
	"github.com/txpipe/balius/balerr"
	"github.com/txpipe/balius/capability/httpcap"
	"github.com/txpipe/balius/capability/kv"
	"github.com/txpipe/balius/capability/ledger"
	"github.com/txpipe/balius/capability/logger"
	"github.com/txpipe/balius/capability/signer"
	"github.com/txpipe/balius/capability/submit"
)

// invokeCapability routes one host_invoke call from the module to the
// capability host its ImportBinder granted. Payloads and results cross
// the boundary JSON-encoded, matching the scratch-buffer convention the
// rest of this adapter uses; a real component engine would lift these to
// typed imports instead.
func (w *wasmerInstance) invokeCapability(capName, method string, payload []byte) ([]byte, error) {
	bound := w.imports.Bind(capName)
	if bound == nil {
		return nil, fmt.Errorf("capability %q not granted", capName)
	}

	switch capName {
	case "driver":
		return invokeDriver(bound, method, payload)
	case "kv":
		return invokeKV(bound, method, payload)
	case "logger":
		return invokeLogger(bound, method, payload)
	case "signer":
		return invokeSigner(bound, method, payload)
	case "submit":
		return invokeSubmit(bound, method, payload)
	case "http":
		return invokeHTTP(bound, method, payload)
	case "ledger":
		return invokeLedger(bound, method, payload)
	default:
		return nil, fmt.Errorf("unknown capability %q", capName)
	}
}

// driverImport is the slice of driver.Host the module reaches during
// init; declared structurally so this file compiles against anything the
// binder hands back with the same shape.
type driverImport interface {
	RegisterChannel(channel abi.ChannelID, pattern abi.Pattern) error
	AddKey(keyName, algorithm string) ([]byte, error)
}

func invokeDriver(bound interface{}, method string, payload []byte) ([]byte, error) {
	drv, ok := bound.(driverImport)
	if !ok {
		return nil, fmt.Errorf("driver import has unexpected shape %T", bound)
	}
	switch method {
	case "register_channel":
		var req struct {
			Channel abi.ChannelID `json:"channel"`
			Pattern abi.Pattern   `json:"pattern"`
		}
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}
		if err := drv.RegisterChannel(req.Channel, req.Pattern); err != nil {
			return nil, err
		}
		return []byte("{}"), nil
	case "add_key":
		var req struct {
			KeyName   string `json:"key_name"`
			Algorithm string `json:"algorithm"`
		}
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}
		pub, err := drv.AddKey(req.KeyName, req.Algorithm)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			PublicKey []byte `json:"public_key"`
		}{pub})
	default:
		return nil, fmt.Errorf("unknown driver method %q", method)
	}
}

func invokeKV(bound interface{}, method string, payload []byte) ([]byte, error) {
	host, ok := bound.(*kv.Host)
	if !ok {
		return nil, fmt.Errorf("kv import has unexpected shape %T", bound)
	}
	switch method {
	case "get_value":
		var req struct {
			Key string `json:"key"`
		}
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}
		value, err := host.GetValue(req.Key)
		if balerr.IsKVNotFound(err) {
			// An absent key is a result, not a fault: the module must
			// be able to tell it apart from a stored empty value.
			return json.Marshal(struct {
				Found bool `json:"found"`
			}{false})
		}
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Value []byte `json:"value"`
			Found bool   `json:"found"`
		}{value, true})
	case "set_value":
		var req struct {
			Key   string `json:"key"`
			Value []byte `json:"value"`
		}
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}
		if err := host.SetValue(req.Key, req.Value); err != nil {
			return nil, err
		}
		return []byte("{}"), nil
	case "list_values":
		var req struct {
			Prefix string `json:"prefix"`
		}
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}
		keys, err := host.ListValues(req.Prefix)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Keys []string `json:"keys"`
		}{keys})
	default:
		return nil, fmt.Errorf("unknown kv method %q", method)
	}
}

func invokeLogger(bound interface{}, method string, payload []byte) ([]byte, error) {
	host, ok := bound.(*logger.Host)
	if !ok {
		return nil, fmt.Errorf("logger import has unexpected shape %T", bound)
	}
	if method != "log" {
		return nil, fmt.Errorf("unknown logger method %q", method)
	}
	var req struct {
		Level   int    `json:"level"`
		Context string `json:"context"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, err
	}
	host.Log(logger.Level(req.Level), req.Context, req.Message)
	return []byte("{}"), nil
}

func invokeSigner(bound interface{}, method string, payload []byte) ([]byte, error) {
	host, ok := bound.(*signer.Host)
	if !ok {
		return nil, fmt.Errorf("signer import has unexpected shape %T", bound)
	}
	if method != "sign_payload" {
		return nil, fmt.Errorf("unknown signer method %q", method)
	}
	var req struct {
		KeyName string `json:"key_name"`
		Payload []byte `json:"payload"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, err
	}
	sig, err := host.SignPayload(req.KeyName, req.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Signature []byte `json:"signature"`
	}{sig})
}

func invokeSubmit(bound interface{}, method string, payload []byte) ([]byte, error) {
	host, ok := bound.(*submit.Host)
	if !ok {
		return nil, fmt.Errorf("submit import has unexpected shape %T", bound)
	}
	if method != "submit_tx" {
		return nil, fmt.Errorf("unknown submit method %q", method)
	}
	var req struct {
		Tx []byte `json:"tx"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, err
	}
	if err := host.SubmitTx(req.Tx); err != nil {
		return nil, err
	}
	return []byte("{}"), nil
}

func invokeHTTP(bound interface{}, method string, payload []byte) ([]byte, error) {
	host, ok := bound.(*httpcap.Host)
	if !ok {
		return nil, fmt.Errorf("http import has unexpected shape %T", bound)
	}
	if method != "request" {
		return nil, fmt.Errorf("unknown http method %q", method)
	}
	var req struct {
		Request httpcap.OutgoingRequest `json:"request"`
		Options *httpcap.RequestOptions `json:"options,omitempty"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, err
	}
	resp, err := host.Request(req.Request, req.Options)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}

func invokeLedger(bound interface{}, method string, payload []byte) ([]byte, error) {
	host, ok := bound.(*ledger.Host)
	if !ok {
		return nil, fmt.Errorf("ledger import has unexpected shape %T", bound)
	}
	switch method {
	case "read_utxos":
		var req struct {
			Refs []abi.TxoRef `json:"refs"`
		}
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}
		utxos, err := host.ReadUtxos(req.Refs)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Utxos []ledger.Utxo `json:"utxos"`
		}{utxos})
	case "search_utxos":
		var req struct {
			Pattern    ledger.SearchPattern `json:"pattern"`
			StartToken []byte               `json:"start_token,omitempty"`
			MaxItems   int                  `json:"max_items"`
		}
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}
		result, err := host.SearchUtxos(req.Pattern, req.StartToken, req.MaxItems)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	case "read_params":
		params, err := host.ReadParams()
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Params []byte `json:"params"`
		}{params})
	default:
		return nil, fmt.Errorf("unknown ledger method %q", method)
	}
}
