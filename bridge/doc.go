// Package bridge implements the host side of the guest ABI: the "env" host
// module through which the guest reads the input file and allocates memory.
//
// # Host Functions
//
//	read_u8(offset i32) -> i32      one byte of the input
//	read_u32_le(offset i32) -> i32  little-endian u32 bits
//	read_i32_le(offset i32) -> i32  little-endian i32
//	alloc(size i32) -> i32          absolute guest address of a fresh region
//
// # Binding
//
// Host functions carry no state of their own. Everything a call needs, the
// input buffer, the arena and the guest's heap base, comes from the Binding
// attached to the call context with WithBinding. Concurrent decodes therefore
// share one host module without sharing any mutable state.
//
// # Faults
//
// A failing host call records the error on the Binding (the first fault
// wins) and panics, which makes wazero unwind the guest. The caller of the
// guest export then reports Binding.Fault instead of the unwound trap.
//
// # Example
//
//	if _, err := bridge.NewHostModule(rt).Build(ctx); err != nil {
//		return err
//	}
//	b := bridge.NewBinding(src, arena, heapBase)
//	results, err := decode.Call(bridge.WithBinding(ctx, b))
//	if fault := b.Fault(); fault != nil {
//		return fault
//	}
package bridge
