package gen

import (
	"io"
	"sort"
	"sync"

	"github.com/wippyai/bridge-runtime/errors"
	"github.com/wippyai/bridge-runtime/metadata"
)

// Emitter renders a frozen metadata registry into foreign-side binding
// source for one target language. Emitters are pure functions of the
// registry: same registry, same output.
type Emitter interface {
	// Name identifies the target, e.g. "c-header".
	Name() string
	// FileExt is the suggested output extension, e.g. ".h".
	FileExt() string
	// Emit writes the bindings for reg to w.
	Emit(w io.Writer, reg *metadata.Registry) error
}

var (
	emittersMu sync.RWMutex
	emitters   = make(map[string]Emitter)
)

// Register adds an emitter to the process-wide set. Later registrations
// under the same name win, so applications can override built-ins.
func Register(e Emitter) {
	emittersMu.Lock()
	defer emittersMu.Unlock()
	emitters[e.Name()] = e
}

// Lookup resolves an emitter by target name.
func Lookup(name string) (Emitter, error) {
	emittersMu.RLock()
	defer emittersMu.RUnlock()
	e, ok := emitters[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseEmit, "emitter", name)
	}
	return e, nil
}

// Names returns the registered emitter names, sorted.
func Names() []string {
	emittersMu.RLock()
	defer emittersMu.RUnlock()
	out := make([]string, 0, len(emitters))
	for name := range emitters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
