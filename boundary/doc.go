// Package boundary generates the callable entries a foreign runtime links
// against, one set per exported signature.
//
// # Layout
//
//	signature.Exported + Func
//	        |
//	     Binder.Bind          converter compilation, executor resolution
//	        |
//	     Entries              sync: one entry; async: invoke/poll/release
//	        |
//	     Registry             symbol -> Entries dispatch table
//
// A synchronous export becomes a single entry that lifts its arguments,
// calls the native implementation, and lowers the outcome in one frame. An
// asynchronous export becomes the invoke/poll/release triple backed by a
// future.Handle; the outcome is lowered on the executor goroutine at
// completion time, so poll only ever copies a cached converted value.
//
// # Fault Model
//
// Every entry is a containment barrier. A panic in the native
// implementation, or a lowering invariant violation, becomes an
// unrecoverable-fault status with a diagnostic string; nothing unwinds
// into the foreign caller's frame. Declared errors are data: they lower
// through the export's error converter and report the typed-error status
// code. An undeclared error from an export with no declared error type is
// a fault, never a silent success.
//
// All failure modes of classification and converter compilation surface
// from Bind at generation time; bound entries do not re-validate types at
// call time.
package boundary
