// Package signature classifies exported declarations into the immutable
// signature records the rest of the bridge is generated from.
//
// Classification happens once per exported declaration at generation time
// and is pure: the calling shape (sync or async, free function or method,
// success type, declared error type, executor directive) is derived
// entirely from the declaration. Ill-formed declarations fail here, at
// build time, and never reach the running boundary:
//
//   - a receiver parameter anywhere other than position 0
//   - a no-receiver function inside an object's method block
//   - an executor directive on a synchronous declaration
package signature
