// Package executor provides the native schedulers that advance asynchronous
// exports. Executor selection is a configuration point, not part of the
// bridge state machine: an export's directive picks which scheduler runs
// its computations, and the bridge only requires that the executor run each
// task to completion and forward the completion notification from whatever
// goroutine finished it.
//
// The default executor (one goroutine per task) is initialized lazily once
// and shared for the process lifetime. Named executors are registered at
// initialization time and resolved by the directive on an exported
// signature.
package executor
