package boundary

import (
	stderrors "errors"
	"sort"
	"sync"

	"github.com/wippyai/bridge-runtime/errors"
)

var errDuplicateSymbol = stderrors.New("symbol already registered")

// Registry maps boundary symbols to their generated entries. Asynchronous
// exports occupy three slots (invoke, poll, release symbols) all pointing
// at the same entry set, so a host can dispatch any of the three by the
// symbol it was linked against.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entries
	symbols []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entries)}
}

// Register adds an entry set under its signature's symbols. Registering a
// symbol twice is an error: boundary symbols identify exactly one export.
func (r *Registry) Register(e *Entries) error {
	if e == nil || e.Signature == nil {
		return errors.InvalidInput(errors.PhaseCompile, "nil boundary entries")
	}

	syms := []string{e.Signature.Symbol()}
	if e.Signature.Async {
		syms = append(syms, e.Signature.PollSymbol(), e.Signature.ReleaseSymbol())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range syms {
		if _, ok := r.entries[s]; ok {
			return errors.Registration(errors.PhaseCompile, s, errDuplicateSymbol)
		}
	}
	for _, s := range syms {
		r.entries[s] = e
	}
	r.symbols = append(r.symbols, e.Signature.Symbol())
	return nil
}

// Lookup resolves a symbol to its entry set.
func (r *Registry) Lookup(symbol string) (*Entries, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[symbol]
	return e, ok
}

// Symbols returns the invoke symbols of all registered exports, sorted.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.symbols))
	copy(out, r.symbols)
	sort.Strings(out)
	return out
}

// Each calls visit for every registered export (once per export, not per
// symbol) until visit returns false.
func (r *Registry) Each(visit func(*Entries) bool) {
	r.mu.RLock()
	syms := make([]string, len(r.symbols))
	copy(syms, r.symbols)
	r.mu.RUnlock()

	sort.Strings(syms)
	for _, s := range syms {
		e, ok := r.Lookup(s)
		if !ok {
			continue
		}
		if !visit(e) {
			return
		}
	}
}

// Len reports the number of registered exports.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.symbols)
}
