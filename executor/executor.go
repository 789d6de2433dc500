package executor

import (
	"sync"

	bridgeruntime "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/errors"
)

// Goroutine schedules each task on its own goroutine. This is the default
// executor: computations suspend cooperatively inside their own bodies, so
// a goroutine per in-flight invocation is the natural Go mapping.
type Goroutine struct{}

// Submit implements bridgeruntime.Executor.
func (Goroutine) Submit(task func()) {
	go task()
}

var (
	defaultExec     bridgeruntime.Executor
	defaultExecOnce sync.Once
)

// Default returns the process-wide default executor. It is initialized
// lazily once and never replaced afterwards.
func Default() bridgeruntime.Executor {
	defaultExecOnce.Do(func() {
		if defaultExec == nil {
			defaultExec = Goroutine{}
		}
	})
	return defaultExec
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]bridgeruntime.Executor)
)

// Register makes a named executor available to the executor-selection
// directive. Registration happens at initialization time, before any
// export is bound; re-registering a name is a programming error.
func Register(name string, ex bridgeruntime.Executor) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseCompile, "executor name cannot be empty")
	}
	if ex == nil {
		return errors.InvalidInput(errors.PhaseCompile, "nil executor")
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[name]; exists {
		return errors.Registration(errors.PhaseCompile, name, nil)
	}
	registry[name] = ex
	return nil
}

// Lookup returns a registered executor by name.
func Lookup(name string) (bridgeruntime.Executor, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	ex, ok := registry[name]
	return ex, ok
}

// ForDirective resolves an executor-selection directive: the empty
// directive selects the default executor, anything else a registered name.
func ForDirective(directive string) (bridgeruntime.Executor, error) {
	if directive == "" {
		return Default(), nil
	}
	ex, ok := Lookup(directive)
	if !ok {
		return nil, errors.NotFound(errors.PhaseCompile, "executor", directive)
	}
	return ex, nil
}
