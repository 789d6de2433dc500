// Package errors provides structured error types for the bridge-runtime library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: field path, Go/ABI type
// names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseLift, errors.KindTypeMismatch).
//		Path("arg0", "name").
//		GoType("int").
//		AbiType("string").
//		Detail("scalar value for buffer-shaped type").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidDiscriminant(errors.PhaseLift, path, 7, 2)
//	err := errors.DanglingHandle(errors.PhaseLift, path, 42)
//
// Lift-phase errors are the conversion faults of the boundary contract:
// recoverable status codes reporting a structurally invalid ABI value.
// Classify-phase errors are generation-time failures that never surface at
// the running boundary.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
