// Package bridgeruntime implements a cross-language asynchronous bridge:
// the boundary contract that lets a Go library expose functions and object
// methods, including long-running asynchronous operations, to callers in
// other languages across a stable binary boundary.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	bridgeruntime/       Root package with the boundary contract types
//	│                    (CallStatus, Outcome, CompletionFunc, Executor)
//	├── abi/             Value Conversion Contract: lowering and lifting
//	│                    between native values and ABI-safe representations
//	├── signature/       Signature classification for exported declarations
//	├── boundary/        Per-signature boundary entries (invoke/poll/release)
//	│                    and fault containment
//	├── future/          Computation handle state machine driving async
//	│                    completion via caller-initiated polling
//	├── executor/        Default and named executors for async exports
//	├── object/          Reference-counted exported-object table
//	├── metadata/        Versioned export metadata registry (CBOR)
//	├── gen/             Table-driven per-target emitters over metadata
//	├── wazerohost/      Foreign-caller adapter exposing entries to a
//	│                    WASM guest via wazero host functions
//	└── errors/          Structured error types for debugging
//
// # The Bridge Contract
//
// Per exported signature the boundary exposes:
//
//	invoke(arg0, ..., argN, *status) -> result | handle
//	poll(handle, callback, env, *out, *status) -> bool(done)
//	release(handle, *status)
//
// A synchronous export has only invoke. An asynchronous export returns a
// computation handle that the foreign caller drives to completion by
// repeated polling: poll either delivers the cached outcome ("done") or
// registers a completion callback and returns immediately. release destroys
// the handle at any time, cancelling the computation cooperatively and
// guaranteeing no further callback.
//
// # Fault Model
//
// Declared errors travel as data (StatusTypedError). Native panics never
// unwind past a boundary entry: they are contained and reported as
// StatusFault with a diagnostic string. Structurally invalid ABI values
// fail lifting with a conversion fault, never a crash.
//
// # Thread Safety
//
// A computation handle must be polled by one caller thread at a time.
// Completion and release may race; the handle's single mutex guarantees
// exactly one of {callback invocation, release-before-completion} happens.
// Callbacks are invoked outside the handle lock, so a callback may re-enter
// poll without deadlocking.
package bridgeruntime
