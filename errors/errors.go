package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseClassify Phase = "classify" // signature classification
	PhaseCompile  Phase = "compile"  // converter compilation
	PhaseLower    Phase = "lower"    // native to ABI
	PhaseLift     Phase = "lift"     // ABI to native
	PhaseInvoke   Phase = "invoke"   // boundary invocation
	PhasePoll     Phase = "poll"     // handle polling
	PhaseRelease  Phase = "release"  // handle release
	PhaseMetadata Phase = "metadata" // export metadata registry
	PhaseEmit     Phase = "emit"     // target-language emission
	PhaseHost     Phase = "host"     // foreign host adapter
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch        Kind = "type_mismatch"
	KindInvalidData         Kind = "invalid_data"
	KindInvalidDiscriminant Kind = "invalid_discriminant"
	KindDanglingHandle      Kind = "dangling_handle"
	KindInvalidUTF8         Kind = "invalid_utf8"
	KindOverflow            Kind = "overflow"
	KindTrailingBytes       Kind = "trailing_bytes"
	KindTruncated           Kind = "truncated"
	KindNilPointer          Kind = "nil_pointer"
	KindMisplacedReceiver   Kind = "misplaced_receiver"
	KindAssociatedFunction  Kind = "associated_function"
	KindDirectiveMisuse     Kind = "directive_misuse"
	KindUnsupported         Kind = "unsupported"
	KindNotFound            Kind = "not_found"
	KindRegistration        Kind = "registration"
	KindReleased            Kind = "released"
	KindInvalidInput        Kind = "invalid_input"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	GoType  string
	AbiType string
	Detail  string
	Path    []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.AbiType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.AbiType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", ABI type ")
			b.WriteString(e.AbiType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("ABI type ")
			b.WriteString(e.AbiType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.AbiType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsConversionFault reports whether err is a lift-side conversion fault,
// i.e. a structurally invalid ABI value. Conversion faults are always
// recoverable status errors, never crashes.
func IsConversionFault(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Phase == PhaseLift
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// AbiType sets the ABI type expression
func (b *Builder) AbiType(t string) *Builder {
	b.err.AbiType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, abiType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindTypeMismatch,
		Path:    path,
		GoType:  goType,
		AbiType: abiType,
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, path []string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// InvalidDiscriminant creates an out-of-range discriminant error for enums
func InvalidDiscriminant(phase Phase, path []string, disc uint32, maxValid uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidDiscriminant,
		Path:   path,
		Detail: fmt.Sprintf("discriminant %d out of range (max %d)", disc, maxValid),
		Value:  disc,
	}
}

// DanglingHandle creates an error for a handle with no live object behind it
func DanglingHandle(phase Phase, path []string, handle uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDanglingHandle,
		Path:   path,
		Detail: fmt.Sprintf("handle %d does not reference a live object", handle),
		Value:  handle,
	}
}

// Truncated creates an error for a buffer shorter than its declared contents
func Truncated(phase Phase, path []string, want, have int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTruncated,
		Path:   path,
		Detail: fmt.Sprintf("need %d bytes, have %d", want, have),
	}
}

// TrailingBytes creates an error for unconsumed bytes after a complete read
func TrailingBytes(phase Phase, path []string, n int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTrailingBytes,
		Path:   path,
		Detail: fmt.Sprintf("%d unconsumed bytes after value", n),
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindOverflow,
		Path:    path,
		AbiType: targetType,
		Detail:  fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:   value,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		GoType: goType,
		Detail: "nil pointer",
	}
}

// MisplacedReceiver creates a classification error for a receiver parameter
// that appears anywhere other than position 0
func MisplacedReceiver(decl string, position int) *Error {
	return &Error{
		Phase:  PhaseClassify,
		Kind:   KindMisplacedReceiver,
		Path:   []string{decl},
		Detail: fmt.Sprintf("misplaced receiver at parameter %d: only the first parameter can be the receiver", position),
	}
}

// AssociatedFunction creates a classification error for a no-receiver
// function declared inside an object's method block
func AssociatedFunction(decl string) *Error {
	return &Error{
		Phase:  PhaseClassify,
		Kind:   KindAssociatedFunction,
		Path:   []string{decl},
		Detail: "associated functions unsupported: methods must take a receiver",
	}
}

// DirectiveMisuse creates a classification error for an executor directive
// on a non-asynchronous declaration
func DirectiveMisuse(decl, directive string) *Error {
	return &Error{
		Phase:  PhaseClassify,
		Kind:   KindDirectiveMisuse,
		Path:   []string{decl},
		Detail: fmt.Sprintf("executor directive %q only valid on asynchronous exports", directive),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Released creates an error for an operation on a released handle
func Released(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindReleased,
		Detail: "computation handle already released",
	}
}

// Registration creates a registration error
func Registration(phase Phase, symbol string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s", symbol),
		Cause:  cause,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
