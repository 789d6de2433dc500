package metadata

import (
	"github.com/wippyai/bridge-runtime/signature"
)

// RegistryVersion is the wire version of the encoded registry. Decoders
// reject registries carrying any other version.
const RegistryVersion = 1

// Param describes one declared parameter of an export.
type Param struct {
	Name string `cbor:"1,keyasint"`
	Type string `cbor:"2,keyasint"` // type expression, e.g. "sequence<optional<u8>>"
}

// Record is the generator-facing description of one exported signature.
// Type positions carry rendered type expressions rather than structural
// types: generators consume names, not converters.
type Record struct {
	Module        string  `cbor:"1,keyasint"`
	Name          string  `cbor:"2,keyasint"`
	Object        string  `cbor:"3,keyasint,omitempty"` // owning object type, "" for free functions
	Receiver      string  `cbor:"4,keyasint,omitempty"`
	Params        []Param `cbor:"5,keyasint,omitempty"`
	Result        string  `cbor:"6,keyasint,omitempty"` // "" means unit
	Throws        string  `cbor:"7,keyasint,omitempty"` // "" means no declared error type
	Async         bool    `cbor:"8,keyasint,omitempty"`
	Executor      string  `cbor:"9,keyasint,omitempty"`
	Symbol        string  `cbor:"10,keyasint"`
	PollSymbol    string  `cbor:"11,keyasint,omitempty"`
	ReleaseSymbol string  `cbor:"12,keyasint,omitempty"`
}

// FromSignature builds the record for a classified export.
func FromSignature(sig *signature.Exported) Record {
	r := Record{
		Module:   sig.Module,
		Name:     sig.Name,
		Object:   sig.Object,
		Async:    sig.Async,
		Executor: sig.Executor,
		Symbol:   sig.Symbol(),
	}
	if sig.Receiver != nil {
		r.Receiver = sig.Receiver.String()
	}
	for _, p := range sig.Params {
		r.Params = append(r.Params, Param{Name: p.Name, Type: p.Type.String()})
	}
	if sig.Result != nil {
		r.Result = sig.Result.String()
	}
	if sig.Throws != nil {
		r.Throws = sig.Throws.String()
	}
	if sig.Async {
		r.PollSymbol = sig.PollSymbol()
		r.ReleaseSymbol = sig.ReleaseSymbol()
	}
	return r
}

// QualifiedName returns "module.name" or "module.Object.name" for methods.
func (r Record) QualifiedName() string {
	if r.Object != "" {
		return r.Module + "." + r.Object + "." + r.Name
	}
	return r.Module + "." + r.Name
}

// IsMethod reports whether the record describes an object method.
func (r Record) IsMethod() bool {
	return r.Receiver != ""
}
