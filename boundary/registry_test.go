package boundary

import (
	"context"
	"testing"

	bridgeruntime "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/abi"
	"github.com/wippyai/bridge-runtime/object"
	"github.com/wippyai/bridge-runtime/signature"
)

func bindNamed(t *testing.T, b *Binder, name string, async bool) *Entries {
	t.Helper()
	sig := classify(t, signature.Decl{Module: "demo", Name: name, Async: async})
	entries, err := b.Bind(sig, func(context.Context, []any) (any, error) { return nil, nil })
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	return entries
}

func TestRegistry(t *testing.T) {
	b := NewBinder(nil)
	r := NewRegistry()

	syncEntries := bindNamed(t, b, "ping", false)
	asyncEntries := bindNamed(t, b, "sleep", true)

	if err := r.Register(syncEntries); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(asyncEntries); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}

	t.Run("sync_export_occupies_one_symbol", func(t *testing.T) {
		if _, ok := r.Lookup("bridge_demo_ping"); !ok {
			t.Error("invoke symbol missing")
		}
		if _, ok := r.Lookup("bridge_demo_ping_poll"); ok {
			t.Error("sync export registered a poll symbol")
		}
	})

	t.Run("async_export_occupies_three_symbols", func(t *testing.T) {
		for _, sym := range []string{
			"bridge_demo_sleep",
			"bridge_demo_sleep_poll",
			"bridge_demo_sleep_release",
		} {
			e, ok := r.Lookup(sym)
			if !ok {
				t.Fatalf("symbol %s missing", sym)
			}
			if e != asyncEntries {
				t.Errorf("symbol %s resolves to the wrong entries", sym)
			}
		}
	})

	t.Run("duplicate_symbol_rejected", func(t *testing.T) {
		dup := bindNamed(t, b, "ping", false)
		if err := r.Register(dup); err == nil {
			t.Error("duplicate registration succeeded")
		}
		if r.Len() != 2 {
			t.Errorf("Len = %d after rejected duplicate, want 2", r.Len())
		}
	})

	t.Run("symbols_sorted", func(t *testing.T) {
		syms := r.Symbols()
		if len(syms) != 2 || syms[0] != "bridge_demo_ping" || syms[1] != "bridge_demo_sleep" {
			t.Errorf("Symbols = %v", syms)
		}
	})

	t.Run("each_visits_once_per_export", func(t *testing.T) {
		var seen []string
		r.Each(func(e *Entries) bool {
			seen = append(seen, e.Signature.Name)
			return true
		})
		if len(seen) != 2 {
			t.Errorf("Each visited %v", seen)
		}
	})

	t.Run("each_stops_early", func(t *testing.T) {
		n := 0
		r.Each(func(*Entries) bool {
			n++
			return false
		})
		if n != 1 {
			t.Errorf("Each visited %d entries after a false return", n)
		}
	})

	t.Run("nil_entries_rejected", func(t *testing.T) {
		if err := r.Register(nil); err == nil {
			t.Error("nil entries accepted")
		}
	})
}

func TestObjectEntries(t *testing.T) {
	table := object.NewTable()
	defer table.Close()
	b := NewBinder(table)

	acquire, release := b.ObjectEntries()

	h := table.Insert(abi.TypeID("Timer"), "timer")

	var status bridgeruntime.CallStatus
	acquire(uint64(h), &status)
	if status.Code != bridgeruntime.StatusSuccess {
		t.Fatalf("acquire status = %+v", status)
	}
	if refs, _ := table.Refs(h); refs != 2 {
		t.Errorf("refs = %d, want 2", refs)
	}

	release(uint64(h), &status)
	release(uint64(h), &status)
	if status.Code != bridgeruntime.StatusSuccess {
		t.Fatalf("release status = %+v", status)
	}
	if _, ok := table.Get(h); ok {
		t.Error("object survived its last release")
	}

	t.Run("dangling_handle", func(t *testing.T) {
		var s bridgeruntime.CallStatus
		acquire(9999, &s)
		if s.Code != bridgeruntime.StatusFault {
			t.Errorf("acquire of dangling handle: status = %+v", s)
		}
		release(9999, &s)
		if s.Code != bridgeruntime.StatusFault {
			t.Errorf("release of dangling handle: status = %+v", s)
		}
	})

	t.Run("no_table", func(t *testing.T) {
		acquire, release := NewBinder(nil).ObjectEntries()
		var s bridgeruntime.CallStatus
		acquire(1, &s)
		if s.Code != bridgeruntime.StatusFault {
			t.Errorf("acquire without table: status = %+v", s)
		}
		release(1, &s)
		if s.Code != bridgeruntime.StatusFault {
			t.Errorf("release without table: status = %+v", s)
		}
	})
}
