package metadata

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/wippyai/bridge-runtime/errors"
)

// cborEncMode uses canonical encoding so equal registries always produce
// identical bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	cborEncMode = em
}

// Marshal serializes the registry to canonical CBOR.
func (r *Registry) Marshal() ([]byte, error) {
	return cborEncMode.Marshal(r)
}

// UnmarshalRegistry deserializes a registry and validates its version.
func UnmarshalRegistry(data []byte) (*Registry, error) {
	var r Registry
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(errors.PhaseMetadata, errors.KindInvalidData, err, "decode registry")
	}
	if r.Version != RegistryVersion {
		return nil, errors.New(errors.PhaseMetadata, errors.KindUnsupported).
			Detail("registry version %d, supported %d", r.Version, RegistryVersion).
			Build()
	}
	return &r, nil
}
