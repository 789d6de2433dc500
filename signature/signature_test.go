package signature

import (
	"strings"
	"testing"

	"github.com/wippyai/bridge-runtime/abi"
)

func TestClassifyFreeFunction(t *testing.T) {
	decl := Decl{
		Module: "acme.timers",
		Name:   "say_after",
		Params: []Param{
			{Name: "ms", Type: abi.U64},
			{Name: "who", Type: abi.String},
		},
		Result: abi.String,
		Async:  true,
	}

	sig, err := Classify(decl)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if sig.IsMethod() {
		t.Error("free function classified as method")
	}
	if len(sig.Params) != 2 {
		t.Errorf("params = %d, want 2", len(sig.Params))
	}
	if got := sig.QualifiedName(); got != "acme.timers.say_after" {
		t.Errorf("qualified name = %q", got)
	}
	if got := sig.Symbol(); got != "bridge_acme_timers_say_after" {
		t.Errorf("symbol = %q", got)
	}
	if got := sig.PollSymbol(); got != "bridge_acme_timers_say_after_poll" {
		t.Errorf("poll symbol = %q", got)
	}
	if got := sig.ReleaseSymbol(); got != "bridge_acme_timers_say_after_release" {
		t.Errorf("release symbol = %q", got)
	}
}

func TestClassifyMethod(t *testing.T) {
	decl := Decl{
		Module: "acme.timers",
		Name:   "start",
		Object: "Timer",
		Params: []Param{
			{Name: "self", Type: abi.Object("Timer"), Receiver: true},
			{Name: "ms", Type: abi.U64},
		},
	}

	sig, err := Classify(decl)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if !sig.IsMethod() {
		t.Fatal("method not classified as method")
	}
	if sig.Receiver.Name != "Timer" {
		t.Errorf("receiver type = %s", sig.Receiver)
	}
	if len(sig.Params) != 1 || sig.Params[0].Name != "ms" {
		t.Errorf("params = %+v, want the receiver stripped", sig.Params)
	}
	if got := sig.Symbol(); got != "bridge_acme_timers_impl_Timer_start" {
		t.Errorf("symbol = %q", got)
	}
}

func TestClassifyErrors(t *testing.T) {
	timer := abi.Object("Timer")

	tests := []struct {
		name    string
		decl    Decl
		wantErr string
	}{
		{
			"misplaced_receiver",
			Decl{
				Module: "m", Name: "f", Object: "Timer",
				Params: []Param{
					{Name: "self", Type: timer, Receiver: true},
					{Name: "again", Type: timer, Receiver: true},
				},
			},
			"misplaced receiver",
		},
		{
			"associated_function",
			Decl{
				Module: "m", Name: "new", Object: "Timer",
				Params: []Param{{Name: "ms", Type: abi.U64}},
			},
			"associated functions unsupported",
		},
		{
			"receiver_of_wrong_object",
			Decl{
				Module: "m", Name: "f", Object: "Timer",
				Params: []Param{{Name: "self", Type: abi.Object("Other"), Receiver: true}},
			},
			"receiver must be object",
		},
		{
			"receiver_outside_method_block",
			Decl{
				Module: "m", Name: "f",
				Params: []Param{{Name: "self", Type: timer, Receiver: true}},
			},
			"receiver parameter outside a method block",
		},
		{
			"executor_on_sync_function",
			Decl{
				Module: "m", Name: "f", Executor: "pool",
			},
			"only valid on asynchronous exports",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Classify(tt.decl)
			if err == nil {
				t.Fatal("expected classification error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q missing %q", err, tt.wantErr)
			}
		})
	}
}

// Classification is pure: the same declaration yields the same record.
func TestClassifyDeterministic(t *testing.T) {
	decl := Decl{
		Module: "m", Name: "f",
		Params: []Param{{Name: "x", Type: abi.U32}},
		Async:  true, Executor: "pool",
	}
	a, err := Classify(decl)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	b, err := Classify(decl)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if a.Symbol() != b.Symbol() || a.QualifiedName() != b.QualifiedName() {
		t.Error("classification not deterministic")
	}
	if a.Executor != "pool" || !a.Async {
		t.Errorf("record = %+v", a)
	}
}
