package wazerohost

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	bridgeruntime "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/abi"
	"github.com/wippyai/bridge-runtime/boundary"
	"github.com/wippyai/bridge-runtime/future"
)

// ModuleName is the import module a guest links bridge entries from.
const ModuleName = "bridge"

var (
	u32     = api.ValueTypeI32
	u64     = api.ValueTypeI64
	syncSig = struct{ params, results []api.ValueType }{
		params:  []api.ValueType{u32, u32, u32, u32},
		results: []api.ValueType{u32},
	}
	invokeSig = struct{ params, results []api.ValueType }{
		params:  []api.ValueType{u32, u32, u32, u32},
		results: []api.ValueType{u64},
	}
	pollSig = struct{ params, results []api.ValueType }{
		params:  []api.ValueType{u64, u32, u32, u32},
		results: []api.ValueType{u64},
	}
	releaseSig = struct{ params, results []api.ValueType }{
		params:  []api.ValueType{u64},
		results: nil,
	}
	objectSig = struct{ params, results []api.ValueType }{
		params:  []api.ValueType{u64},
		results: []api.ValueType{u32},
	}
)

// Host exposes a boundary registry to wazero guests as one host module.
// Computation handles cross the guest boundary as opaque uint64 tokens;
// the host owns the token table and the handles behind it.
type Host struct {
	registry *boundary.Registry
	binder   *boundary.Binder

	mu     sync.Mutex
	tokens map[uint64]*future.Handle
	next   atomic.Uint64
}

// New creates a host over the given registry. binder may be nil when the
// registry exports no object types.
func New(registry *boundary.Registry, binder *boundary.Binder) *Host {
	return &Host{
		registry: registry,
		binder:   binder,
		tokens:   make(map[uint64]*future.Handle),
	}
}

// Instantiate builds and instantiates the host module into rt. Every
// registered export contributes its entries under their boundary symbols;
// a registry with object types additionally exports the shared
// bridge_object_acquire / bridge_object_release pair.
func (h *Host) Instantiate(ctx context.Context, rt wazero.Runtime) (api.Module, error) {
	builder := rt.NewHostModuleBuilder(ModuleName)

	h.registry.Each(func(e *boundary.Entries) bool {
		sig := e.Signature
		if !sig.Async {
			builder.NewFunctionBuilder().
				WithGoModuleFunction(h.syncFn(e), syncSig.params, syncSig.results).
				Export(sig.Symbol())
			return true
		}
		builder.NewFunctionBuilder().
			WithGoModuleFunction(h.invokeFn(e), invokeSig.params, invokeSig.results).
			Export(sig.Symbol())
		builder.NewFunctionBuilder().
			WithGoModuleFunction(h.pollFn(e), pollSig.params, pollSig.results).
			Export(sig.PollSymbol())
		builder.NewFunctionBuilder().
			WithGoModuleFunction(h.releaseFn(e), releaseSig.params, releaseSig.results).
			Export(sig.ReleaseSymbol())
		return true
	})

	if h.binder != nil && h.binder.Objects() != nil {
		acquire, release := h.binder.ObjectEntries()
		builder.NewFunctionBuilder().
			WithGoModuleFunction(h.objectFn(func(handle uint64, s *bridgeruntime.CallStatus) { acquire(handle, s) }),
				objectSig.params, objectSig.results).
			Export("bridge_object_acquire")
		builder.NewFunctionBuilder().
			WithGoModuleFunction(h.objectFn(func(handle uint64, s *bridgeruntime.CallStatus) { release(handle, s) }),
				objectSig.params, objectSig.results).
			Export("bridge_object_release")
	}

	return builder.Instantiate(ctx)
}

// syncFn: (argPtr, argLen, outPtr, outCap) -> envelopeLen. The guest
// retries with a larger buffer when the returned length exceeds outCap.
func (h *Host) syncFn(e *boundary.Entries) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		argPtr, argLen := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
		outPtr, outCap := api.DecodeU32(stack[2]), api.DecodeU32(stack[3])

		var status bridgeruntime.CallStatus
		var out abi.Value
		if args, err := readArgs(mod, argPtr, argLen); err != nil {
			status.SetFault(err.Error())
		} else {
			out = e.Sync(args, &status)
		}
		stack[0] = uint64(writeEnvelope(mod, outPtr, outCap, out, &status))
	}
}

// invokeFn: (argPtr, argLen, outPtr, outCap) -> token. Token zero means a
// setup fault; the fault envelope is at outPtr, truncated to outCap.
func (h *Host) invokeFn(e *boundary.Entries) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		argPtr, argLen := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
		outPtr, outCap := api.DecodeU32(stack[2]), api.DecodeU32(stack[3])

		var status bridgeruntime.CallStatus
		args, err := readArgs(mod, argPtr, argLen)
		if err != nil {
			status.SetFault(err.Error())
			writeEnvelope(mod, outPtr, outCap, abi.Value{}, &status)
			stack[0] = 0
			return
		}

		handle := e.Invoke(args, &status)
		if handle == nil {
			writeEnvelope(mod, outPtr, outCap, abi.Value{}, &status)
			stack[0] = 0
			return
		}
		stack[0] = h.put(handle)
	}
}

// pollFn: (token, readyPtr, outPtr, outCap) -> done<<32 | envelopeLen.
// When not done, the registered completion writes 1 into readyPtr; the
// guest re-polls after observing the flag. A completed poll whose envelope
// exceeded outCap may simply be re-polled: outcomes are cached.
func (h *Host) pollFn(e *boundary.Entries) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		token := stack[0]
		readyPtr := api.DecodeU32(stack[1])
		outPtr, outCap := api.DecodeU32(stack[2]), api.DecodeU32(stack[3])

		handle := h.get(token)

		var status bridgeruntime.CallStatus
		var out abi.Value
		done := e.Poll(handle, completionFlag, &flagEnv{memory: mod.Memory(), ptr: readyPtr}, &out, &status)
		if !done {
			stack[0] = 0
			return
		}
		n := writeEnvelope(mod, outPtr, outCap, out, &status)
		stack[0] = 1<<32 | uint64(n)
	}
}

// releaseFn: (token). Unknown tokens are ignored: release is idempotent
// and the guest may race a concurrent release.
func (h *Host) releaseFn(e *boundary.Entries) api.GoModuleFunc {
	return func(_ context.Context, _ api.Module, stack []uint64) {
		handle := h.take(stack[0])
		if handle == nil {
			return
		}
		var status bridgeruntime.CallStatus
		e.Release(handle, &status)
	}
}

// objectFn: (handle) -> status code.
func (h *Host) objectFn(entry func(handle uint64, s *bridgeruntime.CallStatus)) api.GoModuleFunc {
	return func(_ context.Context, _ api.Module, stack []uint64) {
		var status bridgeruntime.CallStatus
		entry(stack[0], &status)
		if status.Code == bridgeruntime.StatusFault {
			Logger().Warn("object entry fault", zap.String("fault", status.Fault))
		}
		stack[0] = uint64(uint8(status.Code))
	}
}

// flagEnv is the completion environment: the guest memory word the
// completion callback raises when the computation finishes.
type flagEnv struct {
	memory api.Memory
	ptr    uint32
}

func completionFlag(env any) {
	f := env.(*flagEnv)
	if !f.memory.WriteUint32Le(f.ptr, 1) {
		Logger().Warn("completion flag out of bounds", zap.Uint32("ptr", f.ptr))
	}
}

func (h *Host) put(handle *future.Handle) uint64 {
	token := h.next.Add(1)
	h.mu.Lock()
	h.tokens[token] = handle
	h.mu.Unlock()
	return token
}

func (h *Host) get(token uint64) *future.Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tokens[token]
}

func (h *Host) take(token uint64) *future.Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	handle := h.tokens[token]
	delete(h.tokens, token)
	return handle
}

// Pending reports the number of live computation tokens, for tests and
// shutdown accounting.
func (h *Host) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.tokens)
}
