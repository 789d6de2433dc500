package abi

import (
	"github.com/wippyai/bridge-runtime/abi/internal/buffer"
	"github.com/wippyai/bridge-runtime/errors"
)

// Wire form of a Value itself: one shape byte, then the payload. Used by
// foreign-caller adapters that move argument lists through a byte stream
// (the wazero host adapter packs them into guest linear memory).

// EncodeValues serializes a value list: u32 count, then each value.
func EncodeValues(values []Value) []byte {
	w := buffer.NewWriter()
	w.U32(uint32(len(values)))
	for _, v := range values {
		appendValue(w, v)
	}
	return w.Bytes()
}

// DecodeValues parses a value list produced by EncodeValues.
func DecodeValues(data []byte) ([]Value, error) {
	r := buffer.NewReader(data)
	n, err := r.U32()
	if err != nil {
		return nil, errors.Truncated(errors.PhaseLift, nil, 4, r.Remaining())
	}
	values := make([]Value, 0, min(int(n), 256))
	for i := uint32(0); i < n; i++ {
		v, err := readValue(r)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if rem := r.Remaining(); rem > 0 {
		return nil, errors.TrailingBytes(errors.PhaseLift, nil, rem)
	}
	return values, nil
}

// EncodeValue serializes a single value.
func EncodeValue(v Value) []byte {
	w := buffer.NewWriter()
	appendValue(w, v)
	return w.Bytes()
}

// DecodeValue parses a single value, requiring full consumption.
func DecodeValue(data []byte) (Value, error) {
	r := buffer.NewReader(data)
	v, err := readValue(r)
	if err != nil {
		return Value{}, err
	}
	if rem := r.Remaining(); rem > 0 {
		return Value{}, errors.TrailingBytes(errors.PhaseLift, nil, rem)
	}
	return v, nil
}

func appendValue(w *buffer.Writer, v Value) {
	w.Byte(byte(v.Shape))
	switch v.Shape {
	case ShapeScalar:
		w.U64(v.Scalar)
	case ShapeHandle:
		w.U64(v.Handle)
	default:
		w.Prefixed(v.Buffer)
	}
}

func readValue(r *buffer.Reader) (Value, error) {
	shape, err := r.Byte()
	if err != nil {
		return Value{}, errors.Truncated(errors.PhaseLift, nil, 1, r.Remaining())
	}
	switch Shape(shape) {
	case ShapeScalar:
		bits, err := r.U64()
		if err != nil {
			return Value{}, errors.Truncated(errors.PhaseLift, nil, 8, r.Remaining())
		}
		return Scalar(bits), nil
	case ShapeHandle:
		h, err := r.U64()
		if err != nil {
			return Value{}, errors.Truncated(errors.PhaseLift, nil, 8, r.Remaining())
		}
		return HandleValue(h), nil
	case ShapeBuffer:
		b, err := r.Prefixed()
		if err != nil {
			return Value{}, errors.Truncated(errors.PhaseLift, nil, 4, r.Remaining())
		}
		out := make([]byte, len(b))
		copy(out, b)
		return Buffer(out), nil
	default:
		return Value{}, errors.InvalidData(errors.PhaseLift, nil, "unknown value shape")
	}
}
