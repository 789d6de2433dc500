package future

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	bridgeruntime "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/errors"
)

type state uint8

const (
	stateRunning state = iota
	stateCompleted
	stateReleased
)

// Handle represents one in-flight asynchronous invocation. It owns the
// underlying computation, a completion flag and at most one registered
// completion callback. The boundary creates it on invoke, hands it to the
// foreign caller as an opaque token, and destroys it exactly once: either
// on completion-and-consumption or on explicit release.
//
// The single mutex is the one point of synchronization between poll,
// release and the executor's completion notification; it guarantees that
// exactly one of {callback invocation, release-before-completion} happens.
// The callback itself always runs outside the lock so it may re-enter
// Poll without deadlocking.
type Handle struct {
	mu       sync.Mutex
	outcome  bridgeruntime.Outcome
	callback bridgeruntime.CompletionFunc
	env      any
	cancel   context.CancelFunc
	state    state
}

// Start begins a computation on the given executor and returns its handle.
// The computation observes ctx for cooperative cancellation; Release
// cancels it. Panics escaping the computation body are contained on the
// executor goroutine and stored as an unrecoverable-fault outcome.
func Start(ctx context.Context, ex bridgeruntime.Executor, comp bridgeruntime.Computation) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{state: stateRunning, cancel: cancel}

	ex.Submit(func() {
		h.complete(runContained(ctx, comp))
	})

	return h
}

// Completed constructs an already-finished handle. Used for immediate
// setup outcomes and in tests.
func Completed(o bridgeruntime.Outcome) *Handle {
	return &Handle{state: stateCompleted, outcome: o}
}

// Poll drives the computation from the caller's side. If the computation
// has already produced its outcome, Poll returns it with done=true; the
// outcome is cached and immutable, so polling again returns the equal
// outcome without re-running anything. Otherwise Poll registers the
// completion callback, superseding any previous registration, and returns
// done=false without blocking.
//
// A handle must not be polled concurrently with itself. Polling a released
// handle reports an unrecoverable fault: released handles own nothing.
func (h *Handle) Poll(fn bridgeruntime.CompletionFunc, env any) (bridgeruntime.Outcome, bool) {
	h.mu.Lock()

	switch h.state {
	case stateCompleted:
		o := h.outcome
		h.mu.Unlock()
		return o, true

	case stateReleased:
		h.mu.Unlock()
		return bridgeruntime.Fault(errors.Released(errors.PhasePoll).Error()), true

	default:
		h.callback = fn
		h.env = env
		h.mu.Unlock()
		return bridgeruntime.Outcome{}, false
	}
}

// Release destroys the handle. If the computation is still running its
// context is cancelled (cooperative: the continuation is detached, the
// body is never preempted) and Release returns without waiting for the
// body to observe cancellation. Any registered completion callback is
// discarded and is guaranteed never to fire afterwards. Valid in any
// state; idempotent.
func (h *Handle) Release() {
	h.mu.Lock()
	wasRunning := h.state == stateRunning
	h.state = stateReleased
	h.callback = nil
	h.env = nil
	cancel := h.cancel
	h.cancel = nil
	h.mu.Unlock()

	if wasRunning && cancel != nil {
		cancel()
	}
}

// complete records the terminal outcome and fires the registered callback,
// if any, from the executor's completing goroutine. A completion arriving
// after Release is discarded without notification.
func (h *Handle) complete(o bridgeruntime.Outcome) {
	h.mu.Lock()
	if h.state != stateRunning {
		h.mu.Unlock()
		return
	}
	h.state = stateCompleted
	h.outcome = o
	fn := h.callback
	env := h.env
	h.callback = nil
	h.env = nil
	cancel := h.cancel
	h.cancel = nil
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if fn != nil {
		fn(env)
	}
}

// runContained is the executor-side fault barrier: no panic escapes into
// the executor's goroutine.
func runContained(ctx context.Context, comp bridgeruntime.Computation) (out bridgeruntime.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			diag := diagnostic(r)
			Logger().Warn("async computation fault contained", zap.String("fault", diag))
			out = bridgeruntime.Fault(diag)
		}
	}()
	return comp(ctx)
}

func diagnostic(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("%v", r)
}
