package signature

import (
	"strings"

	"github.com/wippyai/bridge-runtime/abi"
	"github.com/wippyai/bridge-runtime/errors"
)

// Decl is one exported declaration as written: a free function, or a
// function inside an object's method block. Classification turns a Decl
// into an Exported record or a generation-time error.
type Decl struct {
	// Module is the qualified module path, e.g. "acme.timers".
	Module string
	// Name is the declared function name.
	Name string
	// Object names the enclosing method block; empty for free functions.
	Object string
	// Params are the declared parameters in order, receiver included.
	Params []Param
	// Result is the success type; nil means unit.
	Result *abi.Type
	// Throws is the declared error type; nil means the call cannot fail
	// with a typed error.
	Throws *abi.Type
	// Executor is the executor-selection directive; empty selects the
	// default executor. Only valid on asynchronous declarations.
	Executor string
	// Async marks an asynchronous declaration.
	Async bool
}

// Param is one declared parameter.
type Param struct {
	// Name is optional; emitters fall back to positional names.
	Name     string
	Type     *abi.Type
	Receiver bool
}

// Exported is the classified signature record. Produced once per exported
// declaration at generation time and immutable afterwards.
type Exported struct {
	Module   string
	Name     string
	Object   string
	Receiver *abi.Type
	Params   []Param
	Result   *abi.Type
	Throws   *abi.Type
	Executor string
	Async    bool
}

// Classify inspects one declaration and produces its Exported record.
// Classification is pure and deterministic: the same declaration always
// yields the same record or the same error.
func Classify(d Decl) (*Exported, error) {
	qual := d.qualifiedName()

	for i, p := range d.Params {
		if p.Receiver && i != 0 {
			return nil, errors.MisplacedReceiver(qual, i)
		}
	}

	var receiver *abi.Type
	params := d.Params
	if d.Object != "" {
		if len(d.Params) == 0 || !d.Params[0].Receiver {
			return nil, errors.AssociatedFunction(qual)
		}
		recv := d.Params[0].Type
		if recv == nil || recv.Kind != abi.KindObject || recv.Name != d.Object {
			return nil, errors.New(errors.PhaseClassify, errors.KindTypeMismatch).
				Path(qual).
				AbiType(recv.String()).
				Detail("receiver must be object %q", d.Object).
				Build()
		}
		receiver = recv
		params = d.Params[1:]
	} else if len(d.Params) > 0 && d.Params[0].Receiver {
		return nil, errors.InvalidInput(errors.PhaseClassify,
			"receiver parameter outside a method block: "+qual)
	}

	if d.Executor != "" && !d.Async {
		return nil, errors.DirectiveMisuse(qual, d.Executor)
	}

	out := &Exported{
		Module:   d.Module,
		Name:     d.Name,
		Object:   d.Object,
		Receiver: receiver,
		Params:   make([]Param, len(params)),
		Result:   d.Result,
		Throws:   d.Throws,
		Executor: d.Executor,
		Async:    d.Async,
	}
	copy(out.Params, params)
	return out, nil
}

func (d Decl) qualifiedName() string {
	var b strings.Builder
	b.WriteString(d.Module)
	if d.Object != "" {
		b.WriteByte('.')
		b.WriteString(d.Object)
	}
	b.WriteByte('.')
	b.WriteString(d.Name)
	return b.String()
}

// QualifiedName returns "module.name" or "module.Object.name" for methods.
func (e *Exported) QualifiedName() string {
	var b strings.Builder
	b.WriteString(e.Module)
	if e.Object != "" {
		b.WriteByte('.')
		b.WriteString(e.Object)
	}
	b.WriteByte('.')
	b.WriteString(e.Name)
	return b.String()
}

// IsMethod reports whether the export takes a receiver.
func (e *Exported) IsMethod() bool {
	return e.Receiver != nil
}

// Symbol returns the boundary symbol of the invoke entry.
func (e *Exported) Symbol() string {
	mod := strings.ReplaceAll(e.Module, ".", "_")
	if e.Object != "" {
		return "bridge_" + mod + "_impl_" + e.Object + "_" + e.Name
	}
	return "bridge_" + mod + "_" + e.Name
}

// PollSymbol returns the boundary symbol of the poll entry. Only
// meaningful for asynchronous exports.
func (e *Exported) PollSymbol() string {
	return e.Symbol() + "_poll"
}

// ReleaseSymbol returns the boundary symbol of the release entry. Only
// meaningful for asynchronous exports.
func (e *Exported) ReleaseSymbol() string {
	return e.Symbol() + "_release"
}
