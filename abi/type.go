package abi

import "strings"

// Type describes one semantic type in the conversion contract. A Type tree
// is immutable once compiled into a Converter.
type Type struct {
	// Name identifies enum, record and object types.
	Name string
	// Elem is the element type for optional and sequence.
	Elem *Type
	// Fields are the ordered fields of a record.
	Fields []Field
	// Variants are the ordered variant names of an enum. The wire
	// discriminant is the variant's index.
	Variants []string
	Kind     Kind
}

// Field is one named record field.
type Field struct {
	Name string
	Type *Type
}

// Primitive type singletons. Safe to share: types are never mutated.
var (
	Bool   = &Type{Kind: KindBool}
	U8     = &Type{Kind: KindU8}
	I8     = &Type{Kind: KindI8}
	U16    = &Type{Kind: KindU16}
	I16    = &Type{Kind: KindI16}
	U32    = &Type{Kind: KindU32}
	I32    = &Type{Kind: KindI32}
	U64    = &Type{Kind: KindU64}
	I64    = &Type{Kind: KindI64}
	F32    = &Type{Kind: KindF32}
	F64    = &Type{Kind: KindF64}
	String = &Type{Kind: KindString}
	Bytes  = &Type{Kind: KindBytes}
)

// Enum constructs an enum type from ordered variant names.
func Enum(name string, variants ...string) *Type {
	return &Type{Kind: KindEnum, Name: name, Variants: variants}
}

// Optional constructs an optional wrapper around elem.
func Optional(elem *Type) *Type {
	return &Type{Kind: KindOptional, Elem: elem}
}

// Sequence constructs a sequence of elem.
func Sequence(elem *Type) *Type {
	return &Type{Kind: KindSequence, Elem: elem}
}

// Record constructs a record type from ordered fields.
func Record(name string, fields ...Field) *Type {
	return &Type{Kind: KindRecord, Fields: fields, Name: name}
}

// Object constructs an object (opaque handle) type.
func Object(name string) *Type {
	return &Type{Kind: KindObject, Name: name}
}

// String renders the canonical type expression, e.g. "sequence<optional<u8>>".
// Named types render as their name.
func (t *Type) String() string {
	if t == nil {
		return "unit"
	}
	switch t.Kind {
	case KindEnum, KindRecord, KindObject:
		if t.Name != "" {
			return t.Name
		}
		return t.Kind.String()
	case KindOptional, KindSequence:
		var b strings.Builder
		b.WriteString(t.Kind.String())
		b.WriteByte('<')
		b.WriteString(t.Elem.String())
		b.WriteByte('>')
		return b.String()
	default:
		return t.Kind.String()
	}
}
