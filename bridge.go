package bridgeruntime

import (
	"context"

	"github.com/wippyai/bridge-runtime/abi"
)

// StatusCode classifies the outcome of one boundary call.
type StatusCode uint8

const (
	// StatusSuccess means the call produced its success value.
	StatusSuccess StatusCode = iota
	// StatusTypedError means the call produced the export's declared error,
	// delivered as data through the status cell's error payload.
	StatusTypedError
	// StatusFault means an unrecoverable native fault was contained at the
	// boundary. The diagnostic string is all that crosses the edge.
	StatusFault
)

func (c StatusCode) String() string {
	switch c {
	case StatusSuccess:
		return "success"
	case StatusTypedError:
		return "typed_error"
	case StatusFault:
		return "unrecoverable_fault"
	default:
		return "unknown"
	}
}

// CallStatus is the out-parameter status cell of every boundary entry.
// Callers zero it before the call; entries write it exactly once.
type CallStatus struct {
	Error abi.Value
	Fault string
	Code  StatusCode
}

// Reset returns the cell to the zero (success) state.
func (s *CallStatus) Reset() {
	*s = CallStatus{}
}

// SetTypedError records a lowered declared error.
func (s *CallStatus) SetTypedError(v abi.Value) {
	s.Code = StatusTypedError
	s.Error = v
	s.Fault = ""
}

// SetFault records an unrecoverable fault diagnostic.
func (s *CallStatus) SetFault(diag string) {
	s.Code = StatusFault
	s.Fault = diag
	s.Error = abi.Value{}
}

// Outcome is the terminal result of one invocation: Success carrying a
// lowered value, TypedError carrying a lowered declared error, or an
// unrecoverable fault carrying a diagnostic. Produced exactly once per
// completed invocation; immutable once stored.
type Outcome struct {
	Value abi.Value
	Error abi.Value
	Fault string
	Code  StatusCode
}

// Success constructs a success outcome.
func Success(v abi.Value) Outcome {
	return Outcome{Code: StatusSuccess, Value: v}
}

// TypedError constructs a declared-error outcome.
func TypedError(v abi.Value) Outcome {
	return Outcome{Code: StatusTypedError, Error: v}
}

// Fault constructs an unrecoverable-fault outcome.
func Fault(diag string) Outcome {
	return Outcome{Code: StatusFault, Fault: diag}
}

// Equal reports whether two outcomes are indistinguishable to a caller.
func (o Outcome) Equal(other Outcome) bool {
	return o.Code == other.Code &&
		o.Value.Equal(other.Value) &&
		o.Error.Equal(other.Error) &&
		o.Fault == other.Fault
}

// WriteStatus lowers the outcome into an output slot and status cell the
// way a boundary entry reports it: success values go to the out slot,
// typed errors and faults to the status cell.
func (o Outcome) WriteStatus(out *abi.Value, status *CallStatus) {
	status.Reset()
	switch o.Code {
	case StatusSuccess:
		if out != nil {
			*out = o.Value
		}
	case StatusTypedError:
		status.SetTypedError(o.Error)
	default:
		status.SetFault(o.Fault)
	}
}

// CompletionFunc is a caller-supplied completion notification. The bridge
// invokes it with the caller's opaque environment from whatever thread the
// executor used to finish the computation. At most one registration is live
// per handle; a new registration supersedes the previous one.
type CompletionFunc func(env any)

// Computation is one in-flight asynchronous body. It observes ctx for
// cooperative cancellation and returns its terminal Outcome. The bridge
// never preempts a computation; release only detaches its continuation.
type Computation func(ctx context.Context) Outcome

// Executor is the native scheduler that advances computations. Submit must
// not block; the task runs to completion on a thread of the executor's
// choosing, and completion notifications are forwarded from that thread.
type Executor interface {
	Submit(task func())
}
