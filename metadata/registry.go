package metadata

import (
	stderrors "errors"
	"sort"

	"github.com/wippyai/bridge-runtime/errors"
	"github.com/wippyai/bridge-runtime/signature"
)

var errDuplicateSymbol = stderrors.New("symbol already recorded")

// Builder accumulates export records and object type names during
// generation. Freeze produces the immutable registry that generators and
// hosts consume; a frozen registry never changes, so readers need no
// locking.
type Builder struct {
	records map[string]Record
	objects map[string]struct{}
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		records: make(map[string]Record),
		objects: make(map[string]struct{}),
	}
}

// AddSignature records a classified export. Two exports may not share a
// boundary symbol.
func (b *Builder) AddSignature(sig *signature.Exported) error {
	rec := FromSignature(sig)
	if _, ok := b.records[rec.Symbol]; ok {
		return errors.Registration(errors.PhaseMetadata, rec.Symbol, errDuplicateSymbol)
	}
	b.records[rec.Symbol] = rec
	if sig.Object != "" {
		b.objects[sig.Object] = struct{}{}
	}
	return nil
}

// AddObject records an exported object type that may have no methods yet.
func (b *Builder) AddObject(name string) {
	b.objects[name] = struct{}{}
}

// Freeze produces the immutable registry. Records and object names are
// sorted so repeated builds over the same inputs encode byte-identically.
func (b *Builder) Freeze() *Registry {
	reg := &Registry{Version: RegistryVersion}
	for _, rec := range b.records {
		reg.Records = append(reg.Records, rec)
	}
	sort.Slice(reg.Records, func(i, j int) bool {
		return reg.Records[i].Symbol < reg.Records[j].Symbol
	})
	for name := range b.objects {
		reg.Objects = append(reg.Objects, name)
	}
	sort.Strings(reg.Objects)
	return reg
}

// Registry is the frozen, versioned set of export records for one bridge
// build. Records are sorted by symbol.
type Registry struct {
	Version uint32   `cbor:"1,keyasint"`
	Records []Record `cbor:"2,keyasint,omitempty"`
	Objects []string `cbor:"3,keyasint,omitempty"` // exported object type names, sorted
}

// Lookup finds the record registered under symbol.
func (r *Registry) Lookup(symbol string) (Record, bool) {
	i := sort.Search(len(r.Records), func(i int) bool {
		return r.Records[i].Symbol >= symbol
	})
	if i < len(r.Records) && r.Records[i].Symbol == symbol {
		return r.Records[i], true
	}
	return Record{}, false
}

// ByModule returns the records declared under the given module name, in
// symbol order.
func (r *Registry) ByModule(module string) []Record {
	var out []Record
	for _, rec := range r.Records {
		if rec.Module == module {
			out = append(out, rec)
		}
	}
	return out
}

// Methods returns the records that are methods of the named object type.
func (r *Registry) Methods(object string) []Record {
	var out []Record
	for _, rec := range r.Records {
		if rec.Object == object && rec.IsMethod() {
			out = append(out, rec)
		}
	}
	return out
}
