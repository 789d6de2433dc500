package metadata

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/wippyai/bridge-runtime/abi"
	"github.com/wippyai/bridge-runtime/signature"
)

func exported(t *testing.T, decl signature.Decl) *signature.Exported {
	t.Helper()
	sig, err := signature.Classify(decl)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	return sig
}

func sampleBuilder(t *testing.T) *Builder {
	t.Helper()
	b := NewBuilder()

	decls := []signature.Decl{
		{
			Module: "demo",
			Name:   "say_after",
			Params: []signature.Param{
				{Name: "ms", Type: abi.U64},
				{Name: "who", Type: abi.String},
			},
			Result: abi.String,
			Async:  true,
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
		if err := b.AddSignature(exported(t, d)); err != nil {
			t.Fatalf("AddSignature failed: %v", err)
		}
	}
	return b
}

func TestFromSignature(t *testing.T) {
	sig := exported(t, signature.Decl{
		Module:   "demo",
		Name:     "say_after",
		Params:   []signature.Param{{Name: "ms", Type: abi.U64}},
		Result:   abi.Optional(abi.String),
		Executor: "pool",
		Async:    true,
	})
	rec := FromSignature(sig)

	if rec.QualifiedName() != "demo.say_after" {
		t.Errorf("qualified name = %q", rec.QualifiedName())
	}
	if rec.Result != "optional<string>" {
		t.Errorf("result expr = %q", rec.Result)
	}
	if rec.Symbol != "bridge_demo_say_after" ||
		rec.PollSymbol != "bridge_demo_say_after_poll" ||
		rec.ReleaseSymbol != "bridge_demo_say_after_release" {
		t.Errorf("symbols = %q %q %q", rec.Symbol, rec.PollSymbol, rec.ReleaseSymbol)
	}
	if rec.Executor != "pool" || !rec.Async {
		t.Errorf("record = %+v", rec)
	}
	if rec.IsMethod() {
		t.Error("free function recorded as method")
	}
	if len(rec.Params) != 1 || rec.Params[0].Type != "u64" {
		t.Errorf("params = %+v", rec.Params)
	}
}

func TestBuilderFreeze(t *testing.T) {
	reg := sampleBuilder(t).Freeze()

	if reg.Version != RegistryVersion {
		t.Errorf("version = %d", reg.Version)
	}
	if len(reg.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(reg.Records))
	}
	for i := 1; i < len(reg.Records); i++ {
		if reg.Records[i-1].Symbol >= reg.Records[i].Symbol {
			t.Error("records not sorted by symbol")
		}
	}
	if len(reg.Objects) != 1 || reg.Objects[0] != "Timer" {
		t.Errorf("objects = %v", reg.Objects)
	}

	t.Run("lookup", func(t *testing.T) {
		rec, ok := reg.Lookup("bridge_demo_impl_Timer_start")
		if !ok {
			t.Fatal("method record missing")
		}
		if !rec.IsMethod() || rec.Receiver != "Timer" || rec.Throws != "TimerError" {
			t.Errorf("record = %+v", rec)
		}
		if _, ok := reg.Lookup("bridge_no_such"); ok {
			t.Error("lookup of unknown symbol succeeded")
		}
	})

	t.Run("by_module_and_methods", func(t *testing.T) {
		if got := reg.ByModule("demo"); len(got) != 2 {
			t.Errorf("ByModule = %d records", len(got))
		}
		if got := reg.Methods("Timer"); len(got) != 1 || got[0].Name != "start" {
			t.Errorf("Methods = %+v", got)
		}
	})
}

func TestBuilderDuplicateSymbol(t *testing.T) {
	b := NewBuilder()
	sig := exported(t, signature.Decl{Module: "demo", Name: "f"})
	if err := b.AddSignature(sig); err != nil {
		t.Fatalf("AddSignature failed: %v", err)
	}
	if err := b.AddSignature(sig); err == nil {
		t.Error("duplicate symbol accepted")
	}
}

func TestRegistryWire(t *testing.T) {
	reg := sampleBuilder(t).Freeze()

	data, err := reg.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	got, err := UnmarshalRegistry(data)
	if err != nil {
		t.Fatalf("UnmarshalRegistry failed: %v", err)
	}
	if len(got.Records) != len(reg.Records) {
		t.Fatalf("decoded %d records, want %d", len(got.Records), len(reg.Records))
	}
	for i := range reg.Records {
		if !reflect.DeepEqual(got.Records[i], reg.Records[i]) {
			t.Errorf("record %d = %+v, want %+v", i, got.Records[i], reg.Records[i])
		}
	}

	t.Run("canonical_encoding_is_stable", func(t *testing.T) {
		again, err := sampleBuilder(t).Freeze().Marshal()
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if !bytes.Equal(data, again) {
			t.Error("equal registries encoded differently")
		}
	})

	t.Run("version_check", func(t *testing.T) {
		bad := *reg
		bad.Version = 99
		data, err := bad.Marshal()
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if _, err := UnmarshalRegistry(data); err == nil {
			t.Error("unsupported version accepted")
		}
	})

	t.Run("garbage_input", func(t *testing.T) {
		if _, err := UnmarshalRegistry([]byte("not cbor")); err == nil {
			t.Error("garbage decoded")
		}
	})
}
