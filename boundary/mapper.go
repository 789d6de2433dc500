package boundary

import (
	"fmt"

	"go.uber.org/zap"

	bridgeruntime "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/abi"
	"github.com/wippyai/bridge-runtime/future"
)

// TypedError is optionally implemented by native error values whose
// payload differs from the error value itself. ErrorValue returns the
// native value lowered through the export's declared error type.
type TypedError interface {
	error
	ErrorValue() any
}

// mapOutcome lowers the native result of a call into its terminal Outcome:
//
//   - no declared error type: every non-nil error is an unrecoverable
//     fault; a nil error is Success.
//   - declared error type: a non-nil error lowers through the declared
//     error converter and travels as data (TypedError), never as a fault.
//
// Lowering panics propagate to the caller's containment barrier, so a
// value that violates the conversion contract surfaces as a fault rather
// than corrupt data.
func (c *compiled) mapOutcome(value any, err error) bridgeruntime.Outcome {
	if err == nil {
		if c.result == nil {
			return bridgeruntime.Success(abi.Value{})
		}
		return bridgeruntime.Success(c.result.Lower(value))
	}

	if c.throws == nil {
		return bridgeruntime.Fault(err.Error())
	}

	payload := any(err)
	if te, ok := err.(TypedError); ok {
		payload = te.ErrorValue()
	}
	return bridgeruntime.TypedError(c.throws.Lower(payload))
}

// contain converts a panic escaping a synchronous entry into a fault
// status. The out slot is zeroed: a faulted call produces no value.
func contain(status *bridgeruntime.CallStatus, out *abi.Value) {
	if r := recover(); r != nil {
		diag := diagnostic(r)
		Logger().Warn("boundary fault contained", zap.String("fault", diag))
		status.SetFault(diag)
		*out = abi.Value{}
	}
}

// containHandle is the invoke-entry variant: a setup fault yields a nil
// handle and a fault status.
func containHandle(status *bridgeruntime.CallStatus, h **future.Handle) {
	if r := recover(); r != nil {
		diag := diagnostic(r)
		Logger().Warn("boundary fault contained", zap.String("fault", diag))
		status.SetFault(diag)
		*h = nil
	}
}

func diagnostic(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("%v", r)
}
