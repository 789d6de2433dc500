// Package abi implements the value conversion contract of the bridge.
//
// Every semantic type maps to exactly one ABI shape: scalars travel in a
// 64-bit slot, compound values in a little-endian length-prefixed byte
// buffer, exported objects as opaque reference-counted handles. The mapping
// is total and invertible: lift(lower(v)) == v for every type supporting
// equality.
//
// # Conversion Flow
//
//  1. abi.Compile(t) → *Converter (generation time; unrepresentable
//     types are rejected here, never at runtime)
//  2. Converter.Lower(native) → Value (infallible; a native value of the
//     wrong Go shape is an invariant violation and panics, contained at
//     the nearest boundary entry)
//  3. Converter.Lift(value) → native, or a conversion fault when the
//     representation is structurally invalid (wrong length, out-of-range
//     discriminant, invalid UTF-8, dangling handle, trailing bytes)
//
// # Buffer Layout
//
// Compound values serialize recursively:
//
//	Type          Encoding
//	─────────────────────────────────────────────
//	bool/u8/i8    1 byte
//	u16/i16       2 bytes little-endian
//	u32/i32/f32   4 bytes little-endian
//	u64/i64/f64   8 bytes little-endian
//	enum          u32 discriminant (variant index)
//	string        u32 length + UTF-8 bytes
//	bytes         u32 length + raw bytes
//	optional<T>   1 flag byte + payload when set
//	sequence<T>   u32 count + elements
//	record        fields in declaration order
//	object        u32 handle
//
// # Native Representations
//
// Scalars use the matching Go type (u8 → uint8, ...); enums lift to their
// uint32 discriminant and lower from any integer; optionals lower from nil
// or a pointer; sequences lift to []any; records lift to map[string]any
// and lower from maps or structs (field names matched ignoring case,
// underscores and dashes). Object values pass through an object.Table and
// transfer one reference per lowered handle.
package abi
