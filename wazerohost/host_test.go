package wazerohost

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	bridgeruntime "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/abi"
	"github.com/wippyai/bridge-runtime/boundary"
	"github.com/wippyai/bridge-runtime/future"
	"github.com/wippyai/bridge-runtime/signature"
)

func bindSample(t *testing.T) (*boundary.Registry, *boundary.Binder) {
	t.Helper()
	b := boundary.NewBinder(nil)
	r := boundary.NewRegistry()

	decls := []signature.Decl{
		{Module: "demo", Name: "greet", Params: []signature.Param{{Name: "who", Type: abi.String}}, Result: abi.String},
		{Module: "demo", Name: "say_after", Result: abi.String, Async: true},
	}
	for _, d := range decls {
		sig, err := signature.Classify(d)
		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		entries, err := b.Bind(sig, func(_ context.Context, args []any) (any, error) {
			return "ok", nil
		})
		if err != nil {
			t.Fatalf("Bind failed: %v", err)
		}
		if err := r.Register(entries); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}
	return r, b
}

func TestInstantiateExportsSymbols(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	registry, binder := bindSample(t)
	mod, err := New(registry, binder).Instantiate(ctx, rt)
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}
	defer mod.Close(ctx)

	for _, sym := range []string{
		"bridge_demo_greet",
		"bridge_demo_say_after",
		"bridge_demo_say_after_poll",
		"bridge_demo_say_after_release",
	} {
		if mod.ExportedFunction(sym) == nil {
			t.Errorf("symbol %s not exported", sym)
		}
	}
	if mod.ExportedFunction("bridge_demo_greet_poll") != nil {
		t.Error("sync export grew a poll symbol")
	}
}

func TestTokenTable(t *testing.T) {
	registry, binder := bindSample(t)
	h := New(registry, binder)

	handle := future.Completed(bridgeruntime.Success(abi.Scalar(1)))
	token := h.put(handle)
	if token == 0 {
		t.Fatal("token 0 issued; zero is the fault sentinel")
	}
	if got := h.get(token); got != handle {
		t.Error("get returned the wrong handle")
	}
	if h.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", h.Pending())
	}

	if got := h.take(token); got != handle {
		t.Error("take returned the wrong handle")
	}
	if h.get(token) != nil {
		t.Error("token survived take")
	}
	if h.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", h.Pending())
	}
	if h.take(token) != nil {
		t.Error("second take returned a handle")
	}
}

func TestEnvelope(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var s bridgeruntime.CallStatus
		env := encodeEnvelope(abi.Scalar(7), &s)
		if env[0] != byte(bridgeruntime.StatusSuccess) {
			t.Fatalf("code byte = %d", env[0])
		}
		v, err := abi.DecodeValue(env[1:])
		if err != nil {
			t.Fatalf("DecodeValue failed: %v", err)
		}
		if v.Scalar != 7 {
			t.Errorf("value = %+v", v)
		}
	})

	t.Run("typed_error", func(t *testing.T) {
		var s bridgeruntime.CallStatus
		s.SetTypedError(abi.Scalar(2))
		env := encodeEnvelope(abi.Value{}, &s)
		if env[0] != byte(bridgeruntime.StatusTypedError) {
			t.Fatalf("code byte = %d", env[0])
		}
		v, err := abi.DecodeValue(env[1:])
		if err != nil {
			t.Fatalf("DecodeValue failed: %v", err)
		}
		if v.Scalar != 2 {
			t.Errorf("error value = %+v", v)
		}
	})

	t.Run("fault", func(t *testing.T) {
		var s bridgeruntime.CallStatus
		s.SetFault("boom")
		env := encodeEnvelope(abi.Value{}, &s)
		if env[0] != byte(bridgeruntime.StatusFault) {
			t.Fatalf("code byte = %d", env[0])
		}
		// u32 length + diagnostic bytes
		if len(env) != 1+4+4 {
			t.Fatalf("envelope length = %d", len(env))
		}
		if string(env[5:]) != "boom" {
			t.Errorf("diagnostic = %q", env[5:])
		}
	})
}

// memoryModule is a guest exporting a single memory page: enough surface
// to exercise the pointer/length protocol without compiling a real guest.
//
//	(module (memory (export "memory") 1))
var memoryModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic, version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: one page
	0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
}

// Fixed guest-memory layout shared by the protocol tests.
const (
	guestArgPtr   = 0
	guestReadyPtr = 512
	guestOutPtr   = 1024
	guestOOBPtr   = 70000 // past the single 64 KiB page
)

func guestModule(t *testing.T, ctx context.Context) api.Module {
	t.Helper()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })
	mod, err := rt.Instantiate(ctx, memoryModule)
	if err != nil {
		t.Fatalf("guest instantiation failed: %v", err)
	}
	return mod
}

func readEnvelope(t *testing.T, mod api.Module, n uint32) (bridgeruntime.StatusCode, []byte) {
	t.Helper()
	env, ok := mod.Memory().Read(guestOutPtr, n)
	if !ok {
		t.Fatalf("envelope read of %d bytes failed", n)
	}
	return bridgeruntime.StatusCode(env[0]), env[1:]
}

func mustCompileString(t *testing.T) *abi.Converter {
	t.Helper()
	c, err := abi.Compile(abi.String)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return c
}

// bindGated binds one async export whose body blocks until gate is closed.
func bindGated(t *testing.T) (*boundary.Registry, *boundary.Binder, *boundary.Entries, chan struct{}) {
	t.Helper()
	binder := boundary.NewBinder(nil)
	registry := boundary.NewRegistry()

	sig, err := signature.Classify(signature.Decl{
		Module: "demo",
		Name:   "say_after",
		Params: []signature.Param{{Name: "who", Type: abi.String}},
		Result: abi.String,
		Async:  true,
	})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	gate := make(chan struct{})
	entries, err := binder.Bind(sig, func(ctx context.Context, args []any) (any, error) {
		select {
		case <-gate:
			return "Hello, " + args[0].(string) + "!", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if err := registry.Register(entries); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return registry, binder, entries, gate
}

func TestSyncCallOverGuestMemory(t *testing.T) {
	ctx := context.Background()
	mod := guestModule(t, ctx)

	registry, binder := bindSample(t)
	h := New(registry, binder)
	e, ok := registry.Lookup("bridge_demo_greet")
	if !ok {
		t.Fatal("greet not registered")
	}

	conv := mustCompileString(t)
	args := abi.EncodeValues([]abi.Value{conv.Lower("world")})
	if !mod.Memory().Write(guestArgPtr, args) {
		t.Fatal("argument write failed")
	}

	t.Run("round_trip", func(t *testing.T) {
		stack := []uint64{guestArgPtr, uint64(len(args)), guestOutPtr, 256}
		h.syncFn(e)(ctx, mod, stack)

		n := uint32(stack[0])
		if n == 0 {
			t.Fatal("envelope write reported out of bounds")
		}
		code, payload := readEnvelope(t, mod, n)
		if code != bridgeruntime.StatusSuccess {
			t.Fatalf("status code = %v", code)
		}
		v, err := abi.DecodeValue(payload)
		if err != nil {
			t.Fatalf("DecodeValue failed: %v", err)
		}
		got, err := conv.Lift(v)
		if err != nil {
			t.Fatalf("Lift failed: %v", err)
		}
		if got != "ok" {
			t.Errorf("result = %v, want ok", got)
		}
	})

	t.Run("truncated_then_grown", func(t *testing.T) {
		stack := []uint64{guestArgPtr, uint64(len(args)), guestOutPtr, 3}
		h.syncFn(e)(ctx, mod, stack)

		full := uint32(stack[0])
		if full <= 3 {
			t.Fatalf("full length = %d, want > capacity 3", full)
		}
		stack = []uint64{guestArgPtr, uint64(len(args)), guestOutPtr, uint64(full)}
		h.syncFn(e)(ctx, mod, stack)
		if uint32(stack[0]) != full {
			t.Fatalf("retry length = %d, want %d", uint32(stack[0]), full)
		}
		if code, _ := readEnvelope(t, mod, full); code != bridgeruntime.StatusSuccess {
			t.Errorf("status code after retry = %v", code)
		}
	})

	t.Run("args_out_of_bounds", func(t *testing.T) {
		stack := []uint64{guestOOBPtr, 8, guestOutPtr, 256}
		h.syncFn(e)(ctx, mod, stack)

		code, payload := readEnvelope(t, mod, uint32(stack[0]))
		if code != bridgeruntime.StatusFault {
			t.Fatalf("status code = %v, want fault", code)
		}
		if diag := string(payload[4:]); !strings.Contains(diag, "out of bounds") {
			t.Errorf("diagnostic = %q", diag)
		}
	})
}

func TestAsyncFlowOverGuestMemory(t *testing.T) {
	ctx := context.Background()
	mod := guestModule(t, ctx)

	registry, binder, entries, gate := bindGated(t)
	h := New(registry, binder)

	conv := mustCompileString(t)
	args := abi.EncodeValues([]abi.Value{conv.Lower("Future")})
	if !mod.Memory().Write(guestArgPtr, args) {
		t.Fatal("argument write failed")
	}

	stack := []uint64{guestArgPtr, uint64(len(args)), guestOutPtr, 256}
	h.invokeFn(entries)(ctx, mod, stack)
	token := stack[0]
	if token == 0 {
		t.Fatal("invoke returned the fault sentinel")
	}
	if h.Pending() != 1 {
		t.Fatalf("Pending = %d, want 1", h.Pending())
	}

	// Pending poll: no done bit, ready flag armed but not raised.
	if !mod.Memory().WriteUint32Le(guestReadyPtr, 0) {
		t.Fatal("flag reset failed")
	}
	poll := []uint64{token, guestReadyPtr, guestOutPtr, 4}
	h.pollFn(entries)(ctx, mod, poll)
	if poll[0] != 0 {
		t.Fatalf("poll before completion = %#x, want pending", poll[0])
	}
	if flag, _ := mod.Memory().ReadUint32Le(guestReadyPtr); flag != 0 {
		t.Fatal("ready flag raised before completion")
	}

	close(gate)
	deadline := time.Now().Add(5 * time.Second)
	for {
		if flag, ok := mod.Memory().ReadUint32Le(guestReadyPtr); ok && flag == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("ready flag never raised")
		}
		time.Sleep(time.Millisecond)
	}

	// Completed, but the envelope exceeds the 4-byte capacity: the packed
	// return carries the done bit and the full length.
	poll = []uint64{token, guestReadyPtr, guestOutPtr, 4}
	h.pollFn(entries)(ctx, mod, poll)
	done, n := poll[0]>>32, uint32(poll[0])
	if done != 1 {
		t.Fatalf("done bit = %d, want 1", done)
	}
	if n <= 4 {
		t.Fatalf("envelope length = %d, want > capacity 4", n)
	}

	// The outcome is cached, so re-polling with enough room recovers the
	// truncated envelope.
	poll = []uint64{token, guestReadyPtr, guestOutPtr, uint64(n)}
	h.pollFn(entries)(ctx, mod, poll)
	if poll[0] != 1<<32|uint64(n) {
		t.Fatalf("re-poll = %#x, want done with length %d", poll[0], n)
	}
	code, payload := readEnvelope(t, mod, n)
	if code != bridgeruntime.StatusSuccess {
		t.Fatalf("status code = %v", code)
	}
	v, err := abi.DecodeValue(payload)
	if err != nil {
		t.Fatalf("DecodeValue failed: %v", err)
	}
	got, err := conv.Lift(v)
	if err != nil {
		t.Fatalf("Lift failed: %v", err)
	}
	if got != "Hello, Future!" {
		t.Errorf("result = %v", got)
	}

	rel := []uint64{token}
	h.releaseFn(entries)(ctx, mod, rel)
	if h.Pending() != 0 {
		t.Errorf("Pending after release = %d, want 0", h.Pending())
	}
	// Unknown token: releasing again is a no-op.
	h.releaseFn(entries)(ctx, mod, []uint64{token})
}

func TestInvokeFaultOverGuestMemory(t *testing.T) {
	ctx := context.Background()
	mod := guestModule(t, ctx)

	registry, binder, entries, gate := bindGated(t)
	defer close(gate)
	h := New(registry, binder)

	stack := []uint64{guestOOBPtr, 8, guestOutPtr, 256}
	h.invokeFn(entries)(ctx, mod, stack)
	if stack[0] != 0 {
		t.Fatalf("token = %d, want the fault sentinel", stack[0])
	}
	if h.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", h.Pending())
	}

	env, ok := mod.Memory().Read(guestOutPtr, 1)
	if !ok {
		t.Fatal("envelope read failed")
	}
	if bridgeruntime.StatusCode(env[0]) != bridgeruntime.StatusFault {
		t.Errorf("status code = %d, want fault", env[0])
	}
}
