package boundary

import (
	"context"
	"fmt"

	bridgeruntime "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/abi"
	"github.com/wippyai/bridge-runtime/errors"
	"github.com/wippyai/bridge-runtime/executor"
	"github.com/wippyai/bridge-runtime/future"
	"github.com/wippyai/bridge-runtime/object"
	"github.com/wippyai/bridge-runtime/signature"
)

// Func is the native implementation bound behind a boundary entry. The
// bridge lifts boundary arguments into args (receiver first for methods)
// and lowers the returned value through the export's success type. ctx is
// cancelled when an asynchronous invocation is released.
type Func func(ctx context.Context, args []any) (any, error)

// SyncEntry is the single boundary entry of a synchronous export.
type SyncEntry func(args []abi.Value, status *bridgeruntime.CallStatus) abi.Value

// InvokeEntry starts an asynchronous export and returns its computation
// handle, or nil with a fault status on an immediate setup fault.
type InvokeEntry func(args []abi.Value, status *bridgeruntime.CallStatus) *future.Handle

// PollEntry drives an asynchronous export: it either writes the converted
// outcome into out and returns true, or registers the completion callback
// and returns false without blocking.
type PollEntry func(h *future.Handle, fn bridgeruntime.CompletionFunc, env any, out *abi.Value, status *bridgeruntime.CallStatus) bool

// ReleaseEntry takes ownership of the handle and destroys it.
type ReleaseEntry func(h *future.Handle, status *bridgeruntime.CallStatus)

// Entries is the boundary surface generated for one exported signature:
// Sync for synchronous exports; Invoke/Poll/Release for asynchronous ones.
// The poll/release pair is specialized to the export's (success, error)
// type combination through the converters captured at bind time.
type Entries struct {
	Signature *signature.Exported
	Sync      SyncEntry
	Invoke    InvokeEntry
	Poll      PollEntry
	Release   ReleaseEntry
}

// Binder generates boundary entries. All converters of one binder share
// its object table, so handles stay meaningful across entries.
type Binder struct {
	objects *object.Table
}

// NewBinder creates a binder over the given object table. The table may be
// nil for boundaries that export no object types.
func NewBinder(objects *object.Table) *Binder {
	return &Binder{objects: objects}
}

// Objects returns the binder's object table.
func (b *Binder) Objects() *object.Table {
	return b.objects
}

// compiled carries everything an entry closure needs: one converter per
// argument (receiver first), the success and declared-error converters,
// and the resolved executor.
type compiled struct {
	exec     bridgeruntime.Executor
	fn       Func
	result   *abi.Converter
	throws   *abi.Converter
	args     []*abi.Converter
	argNames []string
}

// Bind compiles the converters for sig and generates its boundary entries.
// All generation-time failures surface here; a bound entry set never
// reports classification or compilation errors at call time.
func (b *Binder) Bind(sig *signature.Exported, fn Func) (*Entries, error) {
	if sig == nil {
		return nil, errors.InvalidInput(errors.PhaseCompile, "nil signature")
	}
	if fn == nil {
		return nil, errors.InvalidInput(errors.PhaseCompile, "nil implementation for "+sig.QualifiedName())
	}

	c := &compiled{fn: fn}

	if sig.Receiver != nil {
		conv, err := abi.CompileWithObjects(sig.Receiver, b.objects)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseCompile, errors.KindRegistration, err, "receiver of "+sig.QualifiedName())
		}
		c.args = append(c.args, conv)
		c.argNames = append(c.argNames, "self")
	}
	for i, p := range sig.Params {
		conv, err := abi.CompileWithObjects(p.Type, b.objects)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseCompile, errors.KindRegistration, err,
				fmt.Sprintf("parameter %d of %s", i, sig.QualifiedName()))
		}
		c.args = append(c.args, conv)
		c.argNames = append(c.argNames, argName(p.Name, i))
	}
	if sig.Result != nil {
		conv, err := abi.CompileWithObjects(sig.Result, b.objects)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseCompile, errors.KindRegistration, err, "result of "+sig.QualifiedName())
		}
		c.result = conv
	}
	if sig.Throws != nil {
		conv, err := abi.CompileWithObjects(sig.Throws, b.objects)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseCompile, errors.KindRegistration, err, "error type of "+sig.QualifiedName())
		}
		c.throws = conv
	}

	entries := &Entries{Signature: sig}
	if sig.Async {
		ex, err := executor.ForDirective(sig.Executor)
		if err != nil {
			return nil, err
		}
		c.exec = ex
		entries.Invoke = c.invokeEntry
		entries.Poll = pollEntry
		entries.Release = releaseEntry
	} else {
		entries.Sync = c.syncEntry
	}
	return entries, nil
}

// syncEntry: lift arguments, invoke, lower the outcome, report through the
// status cell. The deferred containment is the last line of defense: no
// native fault unwinds past this frame.
func (c *compiled) syncEntry(args []abi.Value, status *bridgeruntime.CallStatus) (out abi.Value) {
	status.Reset()
	defer contain(status, &out)

	native, err := c.liftArgs(args)
	if err != nil {
		status.SetFault(err.Error())
		return abi.Value{}
	}

	value, callErr := c.fn(context.Background(), native)
	outcome := c.mapOutcome(value, callErr)
	outcome.WriteStatus(&out, status)
	return out
}

// invokeEntry: lift arguments eagerly, then start the computation on the
// signature's executor. The body maps and lowers its own outcome on the
// executor goroutine so completed handles cache a fully converted result.
func (c *compiled) invokeEntry(args []abi.Value, status *bridgeruntime.CallStatus) (h *future.Handle) {
	status.Reset()
	defer containHandle(status, &h)

	native, err := c.liftArgs(args)
	if err != nil {
		status.SetFault(err.Error())
		return nil
	}

	return future.Start(context.Background(), c.exec, func(ctx context.Context) bridgeruntime.Outcome {
		value, callErr := c.fn(ctx, native)
		return c.mapOutcome(value, callErr)
	})
}

// pollEntry and releaseEntry are shared: the type specialization lives in
// the outcome cached by the completion path, not in the polling protocol.

func pollEntry(h *future.Handle, fn bridgeruntime.CompletionFunc, env any, out *abi.Value, status *bridgeruntime.CallStatus) bool {
	status.Reset()
	if h == nil {
		status.SetFault("poll on nil computation handle")
		return true
	}

	outcome, done := h.Poll(fn, env)
	if !done {
		return false
	}
	outcome.WriteStatus(out, status)
	return true
}

func releaseEntry(h *future.Handle, status *bridgeruntime.CallStatus) {
	status.Reset()
	if h == nil {
		status.SetFault("release of nil computation handle")
		return
	}
	h.Release()
}

func (c *compiled) liftArgs(args []abi.Value) ([]any, error) {
	if len(args) != len(c.args) {
		return nil, errors.InvalidInput(errors.PhaseInvoke,
			fmt.Sprintf("argument count mismatch: have %d, want %d", len(args), len(c.args)))
	}
	native := make([]any, len(args))
	for i, conv := range c.args {
		v, err := conv.Lift(args[i])
		if err != nil {
			return nil, errors.Wrap(errors.PhaseInvoke, errors.KindInvalidData, err,
				fmt.Sprintf("failed to convert arg %q", c.argNames[i]))
		}
		native[i] = v
	}
	return native, nil
}

func argName(name string, i int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("arg%d", i)
}
