// Package gen turns frozen metadata registries into foreign-side binding
// source. Emitters are registered by target name and consume only the
// registry, never the native implementation, so generation can run as a
// separate build step.
//
// The built-in "c-header" emitter declares the exact entry shapes the
// boundary package generates: one extern per synchronous export and the
// invoke/poll/release triple per asynchronous export.
package gen
