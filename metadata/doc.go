// Package metadata records what a bridge build exports so that binding
// generators can run without the native code present. A Builder collects
// one Record per classified signature plus the exported object type names,
// then Freeze produces an immutable, versioned Registry.
//
// Registries serialize to canonical CBOR, so equal registries are
// byte-equal and can be embedded, diffed, or cached by hash.
package metadata
