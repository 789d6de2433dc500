package abi

import (
	"fmt"
	"hash/fnv"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/wippyai/bridge-runtime/abi/internal/buffer"
	"github.com/wippyai/bridge-runtime/errors"
	"github.com/wippyai/bridge-runtime/object"
)

// TypeID derives the stable object-table type identifier for a named
// object type.
func TypeID(name string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(name))
	return h.Sum32()
}

// Converter lowers native values into ABI-safe representations and lifts
// them back. Compilation is the generation-time step: a Type that cannot
// be represented is rejected by Compile, never at runtime.
//
// Lower is infallible by contract: handing it a native value of the wrong
// Go shape is an invariant violation and panics with a *errors.Error. The
// nearest boundary entry contains that panic as an unrecoverable fault.
// Lift returns a conversion fault for structurally invalid ABI values.
type Converter struct {
	typ     *Type
	objects *object.Table
}

// Compile validates t and returns its converter. Object types are rejected
// here; use CompileWithObjects when the type tree references exported
// objects.
func Compile(t *Type) (*Converter, error) {
	return CompileWithObjects(t, nil)
}

// CompileWithObjects validates t against the given object table. The same
// table must back every converter of one boundary so handles stay
// meaningful across entries.
func CompileWithObjects(t *Type, objects *object.Table) (*Converter, error) {
	if t == nil {
		return nil, errors.InvalidInput(errors.PhaseCompile, "nil type")
	}
	if err := validate(t, objects, nil); err != nil {
		return nil, err
	}
	return &Converter{typ: t, objects: objects}, nil
}

// Type returns the compiled type.
func (c *Converter) Type() *Type {
	return c.typ
}

func validate(t *Type, objects *object.Table, path []string) error {
	switch t.Kind {
	case KindEnum:
		if t.Name == "" {
			return errors.InvalidData(errors.PhaseCompile, path, "enum requires a name")
		}
		if len(t.Variants) == 0 {
			return errors.InvalidData(errors.PhaseCompile, path, "enum requires at least one variant")
		}
	case KindOptional:
		if t.Elem == nil {
			return errors.NilPointer(errors.PhaseCompile, path, "optional element type")
		}
		if t.Elem.Kind == KindOptional {
			// A nil native value cannot distinguish none from some(none).
			return errors.Unsupported(errors.PhaseCompile, "optional of optional")
		}
		return validate(t.Elem, objects, append(path, "elem"))
	case KindSequence:
		if t.Elem == nil {
			return errors.NilPointer(errors.PhaseCompile, path, "sequence element type")
		}
		return validate(t.Elem, objects, append(path, "elem"))
	case KindRecord:
		if t.Name == "" {
			return errors.InvalidData(errors.PhaseCompile, path, "record requires a name")
		}
		seen := make(map[string]bool, len(t.Fields))
		for _, f := range t.Fields {
			if f.Name == "" {
				return errors.InvalidData(errors.PhaseCompile, path, "record field requires a name")
			}
			if seen[f.Name] {
				return errors.InvalidData(errors.PhaseCompile, append(path, f.Name), "duplicate record field")
			}
			seen[f.Name] = true
			if err := validate(f.Type, objects, append(path, f.Name)); err != nil {
				return err
			}
		}
	case KindObject:
		if t.Name == "" {
			return errors.InvalidData(errors.PhaseCompile, path, "object requires a name")
		}
		if objects == nil {
			return errors.New(errors.PhaseCompile, errors.KindUnsupported).
				Path(path...).
				AbiType(t.Name).
				Detail("object type requires an object table").
				Build()
		}
	}
	return nil
}

// Lower converts a native value into its single ABI shape.
func (c *Converter) Lower(native any) Value {
	t := c.typ
	switch t.Kind.ValueShape() {
	case ShapeScalar:
		return Scalar(c.lowerScalar(t, native, nil))
	case ShapeHandle:
		return HandleValue(uint64(c.lowerObject(t, native, nil)))
	default:
		w := buffer.NewWriter()
		c.lowerInto(w, t, native, nil)
		return Buffer(w.Bytes())
	}
}

// Lift converts an ABI value back into its native representation. It fails
// with a conversion fault when the representation is structurally invalid:
// wrong shape, wrong length, out-of-range discriminant, dangling handle.
func (c *Converter) Lift(v Value) (any, error) {
	t := c.typ
	if err := expectShape(v, t.Kind.ValueShape(), t); err != nil {
		return nil, err
	}
	switch t.Kind.ValueShape() {
	case ShapeScalar:
		return c.liftScalar(t, v.Scalar, nil)
	case ShapeHandle:
		return c.liftObject(t, object.Handle(v.Handle), nil)
	default:
		r := buffer.NewReader(v.Buffer)
		native, err := c.liftFrom(r, t, nil)
		if err != nil {
			return nil, err
		}
		if n := r.Remaining(); n > 0 {
			return nil, errors.TrailingBytes(errors.PhaseLift, nil, n)
		}
		return native, nil
	}
}

// scalar lowering

func (c *Converter) lowerScalar(t *Type, v any, path []string) uint64 {
	switch t.Kind {
	case KindBool:
		if asBool(v, t, path) {
			return 1
		}
		return 0
	case KindU8:
		return asUint(v, 8, t, path)
	case KindU16:
		return asUint(v, 16, t, path)
	case KindU32:
		return asUint(v, 32, t, path)
	case KindU64:
		return asUint(v, 64, t, path)
	case KindI8:
		return uint64(asInt(v, 8, t, path))
	case KindI16:
		return uint64(asInt(v, 16, t, path))
	case KindI32:
		return uint64(asInt(v, 32, t, path))
	case KindI64:
		return uint64(asInt(v, 64, t, path))
	case KindF32:
		return F32Bits(float32(asFloat(v, t, path)))
	case KindF64:
		return F64Bits(asFloat(v, t, path))
	case KindEnum:
		disc := asUint(v, 32, t, path)
		if disc >= uint64(len(t.Variants)) {
			lowerPanic(errors.New(errors.PhaseLower, errors.KindInvalidDiscriminant).
				Path(path...).
				AbiType(t.String()).
				Detail("discriminant %d out of range (max %d)", disc, len(t.Variants)-1).
				Build())
		}
		return disc
	default:
		lowerPanic(errors.Unsupported(errors.PhaseLower, "scalar lowering of "+t.Kind.String()))
		return 0
	}
}

func (c *Converter) liftScalar(t *Type, bits uint64, path []string) (any, error) {
	switch t.Kind {
	case KindBool:
		switch bits {
		case 0:
			return false, nil
		case 1:
			return true, nil
		default:
			return nil, errors.InvalidData(errors.PhaseLift, path, fmt.Sprintf("boolean scalar %d", bits))
		}
	case KindU8:
		if bits > 0xff {
			return nil, errors.Overflow(errors.PhaseLift, path, bits, "u8")
		}
		return uint8(bits), nil
	case KindU16:
		if bits > 0xffff {
			return nil, errors.Overflow(errors.PhaseLift, path, bits, "u16")
		}
		return uint16(bits), nil
	case KindU32:
		if bits > 0xffffffff {
			return nil, errors.Overflow(errors.PhaseLift, path, bits, "u32")
		}
		return uint32(bits), nil
	case KindU64:
		return bits, nil
	case KindI8:
		v := int64(bits)
		if v < -0x80 || v > 0x7f {
			return nil, errors.Overflow(errors.PhaseLift, path, v, "i8")
		}
		return int8(v), nil
	case KindI16:
		v := int64(bits)
		if v < -0x8000 || v > 0x7fff {
			return nil, errors.Overflow(errors.PhaseLift, path, v, "i16")
		}
		return int16(v), nil
	case KindI32:
		v := int64(bits)
		if v < -0x80000000 || v > 0x7fffffff {
			return nil, errors.Overflow(errors.PhaseLift, path, v, "i32")
		}
		return int32(v), nil
	case KindI64:
		return int64(bits), nil
	case KindF32:
		if bits > 0xffffffff {
			return nil, errors.Overflow(errors.PhaseLift, path, bits, "f32")
		}
		return float32FromBits(uint32(bits)), nil
	case KindF64:
		return float64FromBits(bits), nil
	case KindEnum:
		if bits >= uint64(len(t.Variants)) {
			return nil, errors.InvalidDiscriminant(errors.PhaseLift, path, uint32(bits), uint32(len(t.Variants)-1))
		}
		return uint32(bits), nil
	default:
		return nil, errors.Unsupported(errors.PhaseLift, "scalar lifting of "+t.Kind.String())
	}
}

// object lowering

func (c *Converter) lowerObject(t *Type, v any, path []string) object.Handle {
	if v == nil {
		lowerPanic(errors.NilPointer(errors.PhaseLower, path, t.Name))
	}
	h := c.objects.Insert(TypeID(t.Name), v)
	if h == 0 {
		lowerPanic(errors.InvalidData(errors.PhaseLower, path, "object table closed"))
	}
	return h
}

func (c *Converter) liftObject(t *Type, h object.Handle, path []string) (any, error) {
	v, ok := c.objects.GetTyped(h, TypeID(t.Name))
	if !ok {
		return nil, errors.DanglingHandle(errors.PhaseLift, path, uint64(h))
	}
	return v, nil
}

// buffer lowering: the recursive wire form shared by all compound kinds.

func (c *Converter) lowerInto(w *buffer.Writer, t *Type, v any, path []string) {
	switch t.Kind {
	case KindBool, KindU8, KindI8:
		w.Byte(byte(c.lowerScalar(t, v, path)))
	case KindU16, KindI16:
		w.U16(uint16(c.lowerScalar(t, v, path)))
	case KindU32, KindI32, KindF32, KindEnum:
		w.U32(uint32(c.lowerScalar(t, v, path)))
	case KindU64, KindI64, KindF64:
		w.U64(c.lowerScalar(t, v, path))
	case KindString:
		s, ok := v.(string)
		if !ok {
			lowerPanic(errors.TypeMismatch(errors.PhaseLower, path, goTypeName(v), t.String()))
		}
		w.Prefixed([]byte(s))
	case KindBytes:
		b, ok := v.([]byte)
		if !ok {
			lowerPanic(errors.TypeMismatch(errors.PhaseLower, path, goTypeName(v), t.String()))
		}
		w.Prefixed(b)
	case KindOptional:
		if isNone(v) {
			w.Byte(0)
			return
		}
		w.Byte(1)
		c.lowerInto(w, t.Elem, derefSome(v), append(path, "some"))
	case KindSequence:
		rv := reflect.ValueOf(v)
		if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
			lowerPanic(errors.TypeMismatch(errors.PhaseLower, path, goTypeName(v), t.String()))
		}
		n := rv.Len()
		w.U32(uint32(n))
		for i := 0; i < n; i++ {
			c.lowerInto(w, t.Elem, rv.Index(i).Interface(), append(path, fmt.Sprintf("[%d]", i)))
		}
	case KindRecord:
		for _, f := range t.Fields {
			c.lowerInto(w, f.Type, recordField(v, f.Name, t, path), append(path, f.Name))
		}
	case KindObject:
		w.U32(uint32(c.lowerObject(t, v, path)))
	default:
		lowerPanic(errors.Unsupported(errors.PhaseLower, "lowering of "+t.Kind.String()))
	}
}

func (c *Converter) liftFrom(r *buffer.Reader, t *Type, path []string) (any, error) {
	switch t.Kind {
	case KindBool, KindU8, KindI8:
		b, err := r.Byte()
		if err != nil {
			return nil, errors.Truncated(errors.PhaseLift, path, t.Kind.scalarWidth(), r.Remaining())
		}
		return c.liftScalar(t, signExtend(uint64(b), t.Kind, 8), path)
	case KindU16, KindI16:
		u, err := r.U16()
		if err != nil {
			return nil, errors.Truncated(errors.PhaseLift, path, t.Kind.scalarWidth(), r.Remaining())
		}
		return c.liftScalar(t, signExtend(uint64(u), t.Kind, 16), path)
	case KindU32, KindI32, KindF32, KindEnum:
		u, err := r.U32()
		if err != nil {
			return nil, errors.Truncated(errors.PhaseLift, path, t.Kind.scalarWidth(), r.Remaining())
		}
		return c.liftScalar(t, signExtend(uint64(u), t.Kind, 32), path)
	case KindU64, KindI64, KindF64:
		u, err := r.U64()
		if err != nil {
			return nil, errors.Truncated(errors.PhaseLift, path, t.Kind.scalarWidth(), r.Remaining())
		}
		return c.liftScalar(t, u, path)
	case KindString:
		b, err := r.Prefixed()
		if err != nil {
			return nil, errors.Truncated(errors.PhaseLift, path, 4, r.Remaining())
		}
		if !utf8.Valid(b) {
			return nil, errors.InvalidUTF8(errors.PhaseLift, path, b)
		}
		return string(b), nil
	case KindBytes:
		b, err := r.Prefixed()
		if err != nil {
			return nil, errors.Truncated(errors.PhaseLift, path, 4, r.Remaining())
		}
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	case KindOptional:
		flag, err := r.Byte()
		if err != nil {
			return nil, errors.Truncated(errors.PhaseLift, path, 1, r.Remaining())
		}
		switch flag {
		case 0:
			return nil, nil
		case 1:
			return c.liftFrom(r, t.Elem, append(path, "some"))
		default:
			return nil, errors.InvalidData(errors.PhaseLift, path, fmt.Sprintf("optional flag %d", flag))
		}
	case KindSequence:
		n, err := r.U32()
		if err != nil {
			return nil, errors.Truncated(errors.PhaseLift, path, 4, r.Remaining())
		}
		out := make([]any, 0, min(int(n), 1024))
		for i := uint32(0); i < n; i++ {
			elem, err := c.liftFrom(r, t.Elem, append(path, fmt.Sprintf("[%d]", i)))
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil
	case KindRecord:
		out := make(map[string]any, len(t.Fields))
		for _, f := range t.Fields {
			fv, err := c.liftFrom(r, f.Type, append(path, f.Name))
			if err != nil {
				return nil, err
			}
			out[f.Name] = fv
		}
		return out, nil
	case KindObject:
		h, err := r.U32()
		if err != nil {
			return nil, errors.Truncated(errors.PhaseLift, path, 4, r.Remaining())
		}
		return c.liftObject(t, object.Handle(h), path)
	default:
		return nil, errors.Unsupported(errors.PhaseLift, "lifting of "+t.Kind.String())
	}
}

// signExtend widens an in-buffer scalar to the 64-bit slot form liftScalar
// expects, preserving the sign bit for signed kinds.
func signExtend(u uint64, k Kind, width uint) uint64 {
	switch k {
	case KindI8, KindI16, KindI32:
		shift := 64 - width
		return uint64(int64(u<<shift) >> shift)
	default:
		return u
	}
}

// native coercion helpers

func lowerPanic(err error) {
	panic(err)
}

func goTypeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

func asBool(v any, t *Type, path []string) bool {
	b, ok := v.(bool)
	if !ok {
		lowerPanic(errors.TypeMismatch(errors.PhaseLower, path, goTypeName(v), t.String()))
	}
	return b
}

func asUint(v any, bits int, t *Type, path []string) uint64 {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if bits < 64 && u >= 1<<uint(bits) {
			lowerPanic(errors.Overflow(errors.PhaseLower, path, u, t.String()))
		}
		return u
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		if i < 0 || (bits < 64 && uint64(i) >= 1<<uint(bits)) {
			lowerPanic(errors.Overflow(errors.PhaseLower, path, i, t.String()))
		}
		return uint64(i)
	default:
		lowerPanic(errors.TypeMismatch(errors.PhaseLower, path, goTypeName(v), t.String()))
		return 0
	}
}

func asInt(v any, bits int, t *Type, path []string) int64 {
	rv := reflect.ValueOf(v)
	var i int64
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i = rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > 1<<63-1 {
			lowerPanic(errors.Overflow(errors.PhaseLower, path, u, t.String()))
		}
		i = int64(u)
	default:
		lowerPanic(errors.TypeMismatch(errors.PhaseLower, path, goTypeName(v), t.String()))
	}
	if bits < 64 {
		limit := int64(1) << uint(bits-1)
		if i < -limit || i >= limit {
			lowerPanic(errors.Overflow(errors.PhaseLower, path, i, t.String()))
		}
	}
	return i
}

func asFloat(v any, t *Type, path []string) float64 {
	switch f := v.(type) {
	case float32:
		return float64(f)
	case float64:
		return f
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64 {
		return rv.Float()
	}
	lowerPanic(errors.TypeMismatch(errors.PhaseLower, path, goTypeName(v), t.String()))
	return 0
}

func isNone(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

func derefSome(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		return rv.Elem().Interface()
	}
	return v
}

// recordField pulls a named field out of a map[string]any or a struct.
// Struct field names match the declared name ignoring case, underscores
// and dashes (SaidBefore matches said-before and said_before).
func recordField(v any, name string, t *Type, path []string) any {
	if m, ok := v.(map[string]any); ok {
		fv, ok := m[name]
		if !ok {
			lowerPanic(errors.InvalidData(errors.PhaseLower, append(path, name), fmt.Sprintf("required field %q not set", name)))
		}
		return fv
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		lowerPanic(errors.TypeMismatch(errors.PhaseLower, path, goTypeName(v), t.String()))
	}

	want := normalizeFieldName(name)
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		if normalizeFieldName(f.Name) == want {
			return rv.Field(i).Interface()
		}
	}
	lowerPanic(errors.InvalidData(errors.PhaseLower, append(path, name), fmt.Sprintf("no struct field matches %q", name)))
	return nil
}

func normalizeFieldName(s string) string {
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	return strings.ToLower(s)
}
