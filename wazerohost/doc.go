// Package wazerohost adapts a boundary registry into a wazero host module
// so WebAssembly guests can call bridge exports by their boundary symbols.
//
// # Guest Protocol
//
// All functions live under the "bridge" import module. Arguments cross as
// one buffer of encoded values in guest memory; outcomes cross as a
// self-describing envelope (status code byte, then the result value, the
// error value, or the fault diagnostic):
//
//	sym(arg_ptr, arg_len, out_ptr, out_cap) -> envelope_len      sync
//	sym(arg_ptr, arg_len, out_ptr, out_cap) -> token             invoke, 0 = setup fault
//	sym_poll(token, ready_ptr, out_ptr, out_cap) -> done<<32|len
//	sym_release(token)
//
// A pending poll registers a completion that raises a u32 flag at
// ready_ptr in guest memory; the guest re-polls after seeing the flag.
// Envelope truncation is recoverable by re-polling with a larger buffer,
// since completed outcomes are cached.
package wazerohost
