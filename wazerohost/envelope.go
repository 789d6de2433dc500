package wazerohost

import (
	"encoding/binary"

	"github.com/tetratelabs/wazero/api"

	bridgeruntime "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/abi"
	"github.com/wippyai/bridge-runtime/errors"
)

// Outcome envelope, written into guest memory by every completed call:
//
//	[0]   status code byte
//	[1:]  success:     encoded result value
//	      typed error: encoded error value
//	      fault:       u32 length + UTF-8 diagnostic
//
// The envelope is self-describing, so a guest can parse any prefix that
// fits its buffer; writeEnvelope returns the full length so the guest can
// retry with a larger buffer when truncated.

func encodeEnvelope(out abi.Value, status *bridgeruntime.CallStatus) []byte {
	buf := []byte{byte(uint8(status.Code))}
	switch status.Code {
	case bridgeruntime.StatusSuccess:
		buf = append(buf, abi.EncodeValue(out)...)
	case bridgeruntime.StatusTypedError:
		buf = append(buf, abi.EncodeValue(status.Error)...)
	default:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(status.Fault)))
		buf = append(buf, status.Fault...)
	}
	return buf
}

// writeEnvelope encodes the outcome and copies at most cap bytes into the
// guest at ptr, returning the full envelope length.
func writeEnvelope(mod api.Module, ptr, capacity uint32, out abi.Value, status *bridgeruntime.CallStatus) uint32 {
	env := encodeEnvelope(out, status)
	n := uint32(len(env))
	if capacity < n {
		env = env[:capacity]
	}
	if len(env) > 0 && !mod.Memory().Write(ptr, env) {
		return 0
	}
	return n
}

// readArgs copies and decodes the guest's encoded argument buffer.
func readArgs(mod api.Module, ptr, length uint32) ([]abi.Value, error) {
	if length == 0 {
		return nil, nil
	}
	data, ok := mod.Memory().Read(ptr, length)
	if !ok {
		return nil, errors.InvalidData(errors.PhaseHost, nil, "argument buffer out of bounds")
	}
	// The guest may reuse the region after the call returns.
	copied := make([]byte, len(data))
	copy(copied, data)
	return abi.DecodeValues(copied)
}
