package gen

import (
	"strings"
	"testing"

	"github.com/wippyai/bridge-runtime/abi"
	"github.com/wippyai/bridge-runtime/metadata"
	"github.com/wippyai/bridge-runtime/signature"
)

func sampleRegistry(t *testing.T) *metadata.Registry {
	t.Helper()
	b := metadata.NewBuilder()

	decls := []signature.Decl{
		{
			Module: "demo",
			Name:   "greet",
			Params: []signature.Param{{Name: "who", Type: abi.String}},
			Result: abi.String,
		},
		{
			Module: "demo",
			Name:   "say_after",
			Params: []signature.Param{
				{Name: "ms", Type: abi.U64},
				{Name: "who", Type: abi.String},
			},
			Result:   abi.String,
			Async:    true,
			Executor: "pool",
		},
		{
			Module: "demo",
			Name:   "start",
			Object: "Timer",
			Params: []signature.Param{
				{Name: "self", Type: abi.Object("Timer"), Receiver: true},
				{Name: "ms", Type: abi.U64},
			},
			Throws: abi.Enum("TimerError", "expired"),
		},
	}
	for _, d := range decls {
		sig, err := signature.Classify(d)
		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		if err := b.AddSignature(sig); err != nil {
			t.Fatalf("AddSignature failed: %v", err)
		}
	}
	return b.Freeze()
}

func emit(t *testing.T, reg *metadata.Registry) string {
	t.Helper()
	e, err := Lookup("c-header")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	var out strings.Builder
	if err := e.Emit(&out, reg); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	return out.String()
}

func TestCHeaderEmit(t *testing.T) {
	header := emit(t, sampleRegistry(t))

	t.Run("guard_and_prelude", func(t *testing.T) {
		for _, want := range []string{
			"#ifndef BRIDGE_BINDINGS_H",
			"#endif /* BRIDGE_BINDINGS_H */",
			"bridge_value_t",
			"bridge_call_status_t",
			"bridge_completion_fn",
			"BRIDGE_STATUS_FAULT",
		} {
			if !strings.Contains(header, want) {
				t.Errorf("header missing %q", want)
			}
		}
	})

	t.Run("sync_export_one_declaration", func(t *testing.T) {
		if !strings.Contains(header, "extern void bridge_demo_greet(const uint8_t *args") {
			t.Error("sync declaration missing")
		}
		if strings.Contains(header, "bridge_demo_greet_poll") {
			t.Error("sync export got a poll declaration")
		}
	})

	t.Run("async_export_three_declarations", func(t *testing.T) {
		for _, want := range []string{
			"extern uint64_t bridge_demo_say_after(const uint8_t *args",
			"extern uint8_t bridge_demo_say_after_poll(uint64_t handle, bridge_completion_fn fn",
			"extern void bridge_demo_say_after_release(uint64_t handle",
		} {
			if !strings.Contains(header, want) {
				t.Errorf("header missing %q", want)
			}
		}
	})

	t.Run("object_pair", func(t *testing.T) {
		if !strings.Contains(header, "bridge_object_acquire") ||
			!strings.Contains(header, "bridge_object_release") {
			t.Error("object handle pair missing")
		}
		if !strings.Contains(header, "Exported types: Timer") {
			t.Error("object type names missing")
		}
	})

	t.Run("signature_comments", func(t *testing.T) {
		for _, want := range []string{
			"/* demo.greet(who: string) -> string */",
			"/* demo.say_after(ms: u64, who: string) -> string [async, executor=pool] */",
			"/* demo.Timer.start(ms: u64) throws TimerError */",
		} {
			if !strings.Contains(header, want) {
				t.Errorf("header missing comment %q", want)
			}
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		if again := emit(t, sampleRegistry(t)); again != header {
			t.Error("emission is not deterministic")
		}
	})
}

func TestCHeaderEmptyRegistry(t *testing.T) {
	header := emit(t, &metadata.Registry{Version: metadata.RegistryVersion})
	if !strings.Contains(header, "#ifndef BRIDGE_BINDINGS_H") {
		t.Error("prelude missing")
	}
	if strings.Contains(header, "extern") {
		t.Error("empty registry produced declarations")
	}
}

func TestEmitterRegistry(t *testing.T) {
	names := Names()
	found := false
	for _, n := range names {
		if n == "c-header" {
			found = true
		}
	}
	if !found {
		t.Errorf("built-in emitter missing from %v", names)
	}

	if _, err := Lookup("no-such-target"); err == nil {
		t.Error("unknown target resolved")
	}

	e, err := Lookup("c-header")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if e.FileExt() != ".h" {
		t.Errorf("FileExt = %q", e.FileExt())
	}
}
