package abi

// Kind identifies a type in the conversion contract.
type Kind uint8

const (
	KindBool Kind = iota
	KindU8
	KindI8
	KindU16
	KindI16
	KindU32
	KindI32
	KindU64
	KindI64
	KindF32
	KindF64
	KindString
	KindBytes
	KindEnum
	KindOptional
	KindSequence
	KindRecord
	KindObject
)

var kindNames = [...]string{
	KindBool:     "bool",
	KindU8:       "u8",
	KindI8:       "i8",
	KindU16:      "u16",
	KindI16:      "i16",
	KindU32:      "u32",
	KindI32:      "i32",
	KindU64:      "u64",
	KindI64:      "i64",
	KindF32:      "f32",
	KindF64:      "f64",
	KindString:   "string",
	KindBytes:    "bytes",
	KindEnum:     "enum",
	KindOptional: "optional",
	KindSequence: "sequence",
	KindRecord:   "record",
	KindObject:   "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsScalar reports whether values of this kind travel in a scalar slot.
func (k Kind) IsScalar() bool {
	return k <= KindF64 || k == KindEnum
}

// ValueShape returns the single ABI shape values of this kind lower to.
func (k Kind) ValueShape() Shape {
	switch {
	case k == KindObject:
		return ShapeHandle
	case k.IsScalar():
		return ShapeScalar
	default:
		return ShapeBuffer
	}
}

// scalarWidth returns the in-buffer byte width for scalar kinds.
func (k Kind) scalarWidth() int {
	switch k {
	case KindBool, KindU8, KindI8:
		return 1
	case KindU16, KindI16:
		return 2
	case KindU32, KindI32, KindF32, KindEnum:
		return 4
	default:
		return 8
	}
}
