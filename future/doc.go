// Package future implements the asynchronous bridge runtime: the state
// machine that lets a foreign caller drive a native asynchronous
// computation to completion via poll and release, independent of which
// executor actually runs it.
//
// # State Machine
//
//	Running --computation finishes--> Completed   (outcome cached)
//	Running --poll, not finished----> Running     (callback registered/replaced)
//	Running|Completed --release-----> Released    (no outcome retrievable)
//	Completed --poll----------------> Completed   (idempotent, cached outcome)
//
// Completion invokes the registered callback exactly once, synchronously
// from the executor's finishing goroutine, outside the handle lock. A
// release racing a completion resolves under the handle's single mutex to
// exactly one of the two terminal behaviors, never both, never neither.
//
// Cancellation is cooperative: release cancels the computation's context
// and detaches its continuation, then returns immediately; it never waits
// for the body to observe the cancellation.
package future
