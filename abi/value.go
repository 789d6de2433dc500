package abi

import (
	"math"

	"github.com/wippyai/bridge-runtime/errors"
)

// Shape is the physical representation of a Value at the boundary.
// Every Kind maps to exactly one Shape.
type Shape uint8

const (
	ShapeScalar Shape = iota // fixed-width scalar in a 64-bit slot
	ShapeBuffer              // length-prefixed byte buffer
	ShapeHandle              // opaque handle to a boundary-managed object
)

// Value is the boundary-safe representation of a native value.
// Exactly one of the three shapes is populated, selected by Shape:
// Scalar holds the raw bits for scalar kinds, Buffer the serialized
// bytes for compound kinds, Handle an object table handle.
type Value struct {
	Buffer []byte
	Scalar uint64
	Handle uint64
	Shape  Shape
}

// Scalar constructs a scalar-shaped value from raw bits.
func Scalar(bits uint64) Value {
	return Value{Shape: ShapeScalar, Scalar: bits}
}

// Buffer constructs a buffer-shaped value.
func Buffer(b []byte) Value {
	return Value{Shape: ShapeBuffer, Buffer: b}
}

// HandleValue constructs a handle-shaped value.
func HandleValue(h uint64) Value {
	return Value{Shape: ShapeHandle, Handle: h}
}

// F32Bits packs a float32 into a scalar slot.
func F32Bits(f float32) uint64 {
	return uint64(math.Float32bits(f))
}

// F64Bits packs a float64 into a scalar slot.
func F64Bits(f float64) uint64 {
	return math.Float64bits(f)
}

func float32FromBits(b uint32) float32 {
	return math.Float32frombits(b)
}

func float64FromBits(b uint64) float64 {
	return math.Float64frombits(b)
}

// Equal reports whether two values have the same shape and contents.
func (v Value) Equal(o Value) bool {
	if v.Shape != o.Shape {
		return false
	}
	switch v.Shape {
	case ShapeScalar:
		return v.Scalar == o.Scalar
	case ShapeHandle:
		return v.Handle == o.Handle
	default:
		if len(v.Buffer) != len(o.Buffer) {
			return false
		}
		for i := range v.Buffer {
			if v.Buffer[i] != o.Buffer[i] {
				return false
			}
		}
		return true
	}
}

// expectShape validates the physical shape of an incoming ABI value.
func expectShape(v Value, want Shape, t *Type) error {
	if v.Shape == want {
		return nil
	}
	return errors.New(errors.PhaseLift, errors.KindInvalidData).
		AbiType(t.String()).
		Detail("wrong value shape: have %d, want %d", v.Shape, want).
		Build()
}
