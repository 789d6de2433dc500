// Package object implements the reference-counted table backing exported
// objects. Object-typed values cross the boundary as opaque handles into a
// Table; acquire/release entries let the foreign side share ownership with
// native code, and a value's Drop method runs exactly once when its last
// reference is released. The boundary never assumes a single owner for an
// exported object.
package object
