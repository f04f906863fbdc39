package sandboxhost

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/txpipe/balius/abi"
)

// WasmerEngine is the one illustrative Engine adapter this package
// ships, grounded on core/virtual_machine.go's HeavyVM: a fresh
// wasmer.Store per module, host functions registered through a
// wasmer.ImportObject, and a read/write helper pair over the module's
// exported "memory" in place of a real component-model ABI. A worker's
// event/response payloads cross this boundary JSON-encoded into a
// scratch buffer, rather than the typed WIT bindings a real component
// engine would generate — the simplification this package's doc comment
// names as deliberately out of scope.
type WasmerEngine struct {
	engine *wasmer.Engine
}

func NewWasmerEngine() *WasmerEngine {
	return &WasmerEngine{engine: wasmer.NewEngine()}
}

func (e *WasmerEngine) Load(code []byte, imports ImportBinder) (Instance, error) {
	store := wasmer.NewStore(e.engine)
	mod, err := wasmer.NewModule(store, code)
	if err != nil {
		return nil, err
	}

	inst := &wasmerInstance{store: store, imports: imports}
	importObj := inst.registerHost(store)

	instance, err := wasmer.NewInstance(mod, importObj)
	if err != nil {
		return nil, err
	}
	inst.instance = instance

	mem, err := instance.Exports.GetMemory("memory")
	if err != nil {
		return nil, errors.New("wasm memory export missing")
	}
	inst.mem = mem

	return inst, nil
}

type wasmerInstance struct {
	store    *wasmer.Store
	instance *wasmer.Instance
	imports  ImportBinder
	mem      *wasmer.Memory

	// scratch is the last value a host call wrote for the module to
	// pull back via host_read, keyed by the handle the module was
	// given — a minimal stand-in for real typed import/export lifting.
	scratch map[int32][]byte
	nextRef int32
}

func (w *wasmerInstance) Init(config []byte) error {
	fn, err := w.instance.Exports.GetFunction("init")
	if err != nil {
		return errors.New("init function required")
	}
	_, err = fn(w.stage(config))
	return err
}

func (w *wasmerInstance) Handle(channel abi.ChannelID, event abi.Event) (abi.Response, error) {
	fn, err := w.instance.Exports.GetFunction("handle")
	if err != nil {
		return abi.Response{}, errors.New("handle function required")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return abi.Response{}, err
	}
	ref := w.stage(payload)

	result, err := fn(int32(channel), ref)
	if err != nil {
		return abi.Response{}, err
	}

	respRef, ok := result.(int32)
	if !ok {
		return abi.Response{}, fmt.Errorf("handle export returned %T, want int32 reference", result)
	}
	raw, ok := w.scratch[respRef]
	if !ok {
		return abi.Response{}, errors.New("handle export returned an unknown reference")
	}
	delete(w.scratch, respRef)

	var resp abi.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		var handleErr abi.HandleError
		if err := json.Unmarshal(raw, &handleErr); err == nil {
			return abi.Response{}, &handleErr
		}
		return abi.Response{}, err
	}
	return resp, nil
}

func (w *wasmerInstance) Close() error { return nil }

// stage hands the module a reference it can fetch back with host_read,
// in place of a typed cross-boundary copy.
func (w *wasmerInstance) stage(data []byte) int32 {
	if w.scratch == nil {
		w.scratch = make(map[int32][]byte)
	}
	w.nextRef++
	w.scratch[w.nextRef] = data
	return w.nextRef
}

// registerHost binds three wasm imports under "balius_host": the
// host_read/host_write helpers workers use to move buffers across the
// linear-memory boundary, and host_invoke, through which every
// capability call the ImportBinder grants is routed. Grounded on
// core/virtual_machine.go's registerHost.
func (w *wasmerInstance) registerHost(store *wasmer.Store) *wasmer.ImportObject {
	imports := wasmer.NewImportObject()

	hostRead := wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(
			wasmer.NewValueTypes(
				wasmer.ValueKind(wasmer.I32),
				wasmer.ValueKind(wasmer.I32),
				wasmer.ValueKind(wasmer.I32),
			),
			wasmer.NewValueTypes(wasmer.ValueKind(wasmer.I32)),
		),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			ref := args[0].I32()
			ptr := args[1].I32()
			data, ok := w.scratch[ref]
			if !ok {
				return []wasmer.Value{wasmer.NewI32(-1)}, nil
			}
			mem := w.mem.Data()
			copy(mem[ptr:ptr+int32(len(data))], data)
			return []wasmer.Value{wasmer.NewI32(int32(len(data)))}, nil
		},
	)

	hostWrite := wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(
			wasmer.NewValueTypes(wasmer.ValueKind(wasmer.I32), wasmer.ValueKind(wasmer.I32)),
			wasmer.NewValueTypes(wasmer.ValueKind(wasmer.I32)),
		),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			ptr := args[0].I32()
			ln := args[1].I32()
			data := make([]byte, ln)
			copy(data, w.mem.Data()[ptr:ptr+ln])
			return []wasmer.Value{wasmer.NewI32(w.stage(data))}, nil
		},
	)

	// host_invoke(capRef, methodRef, payloadRef) dispatches one
	// capability call: the module stages the capability name, method
	// name and JSON payload with host_write, and pulls the JSON result
	// back with host_read. Failures come back as an {"err": ...}
	// envelope rather than trapping the instance, so a worker can
	// surface them as its own HandleError.
	hostInvoke := wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(
			wasmer.NewValueTypes(
				wasmer.ValueKind(wasmer.I32),
				wasmer.ValueKind(wasmer.I32),
				wasmer.ValueKind(wasmer.I32),
			),
			wasmer.NewValueTypes(wasmer.ValueKind(wasmer.I32)),
		),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			capName := string(w.scratch[args[0].I32()])
			method := string(w.scratch[args[1].I32()])
			payload := w.scratch[args[2].I32()]

			result, err := w.invokeCapability(capName, method, payload)
			if err != nil {
				envelope, _ := json.Marshal(struct {
					Err string `json:"err"`
				}{err.Error()})
				return []wasmer.Value{wasmer.NewI32(w.stage(envelope))}, nil
			}
			return []wasmer.Value{wasmer.NewI32(w.stage(result))}, nil
		},
	)

	imports.Register("balius_host", map[string]wasmer.IntoExtern{
		"host_read":   hostRead,
		"host_write":  hostWrite,
		"host_invoke": hostInvoke,
	})
	return imports
}
