package bridge

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/pidview"
	"github.com/wippyai/pidview/errors"
)

var i32 = []api.ValueType{api.ValueTypeI32}

type hostFunc struct {
	fn      api.GoModuleFunc
	name    string
	params  []api.ValueType
	results []api.ValueType
}

// HostModuleBuilder builds the "env" host module for a wazero runtime.
type HostModuleBuilder struct {
	runtime    wazero.Runtime
	moduleName string
	funcs      []hostFunc
}

// NewHostModule starts a host module preloaded with the accessor bridge.
func NewHostModule(r wazero.Runtime) *HostModuleBuilder {
	b := &HostModuleBuilder{runtime: r, moduleName: pidview.HostModule}
	b.Func(pidview.ImportReadU8, readU8, i32, i32)
	b.Func(pidview.ImportReadU32LE, readU32LE, i32, i32)
	b.Func(pidview.ImportReadI32LE, readI32LE, i32, i32)
	b.Func(pidview.ImportAlloc, alloc, i32, i32)
	return b
}

// Func adds a function to the host module. A later definition with the same
// name replaces the earlier one.
func (b *HostModuleBuilder) Func(name string, fn api.GoModuleFunc, params, results []api.ValueType) *HostModuleBuilder {
	for i := range b.funcs {
		if b.funcs[i].name == name {
			b.funcs[i] = hostFunc{name: name, fn: fn, params: params, results: results}
			return b
		}
	}
	b.funcs = append(b.funcs, hostFunc{name: name, fn: fn, params: params, results: results})
	return b
}

// Build instantiates the host module into the runtime.
func (b *HostModuleBuilder) Build(ctx context.Context) (api.Module, error) {
	builder := b.runtime.NewHostModuleBuilder(b.moduleName)
	for _, f := range b.funcs {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(f.fn, f.params, f.results).
			Export(f.name)
	}
	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, errors.New(errors.PhaseRuntime, errors.KindInstantiation).
			Path(b.moduleName).
			Detail("instantiate host module").
			Cause(err).
			Build()
	}
	return mod, nil
}

// binding resolves the call's Binding or aborts the guest.
func binding(ctx context.Context) *Binding {
	b, ok := FromContext(ctx)
	if !ok {
		panic(errors.NotInitialized(errors.PhaseBridge, "binding"))
	}
	return b
}

// abort records err and unwinds the guest.
func abort(b *Binding, err error) {
	b.fail(err)
	panic(err)
}

func readU8(ctx context.Context, _ api.Module, stack []uint64) {
	b := binding(ctx)
	v, err := b.Source.ReadU8(api.DecodeU32(stack[0]))
	if err != nil {
		abort(b, err)
	}
	stack[0] = api.EncodeU32(uint32(v))
}

func readU32LE(ctx context.Context, _ api.Module, stack []uint64) {
	b := binding(ctx)
	v, err := b.Source.ReadU32LE(api.DecodeU32(stack[0]))
	if err != nil {
		abort(b, err)
	}
	stack[0] = api.EncodeU32(v)
}

func readI32LE(ctx context.Context, _ api.Module, stack []uint64) {
	b := binding(ctx)
	v, err := b.Source.ReadI32LE(api.DecodeU32(stack[0]))
	if err != nil {
		abort(b, err)
	}
	stack[0] = api.EncodeI32(v)
}

func alloc(ctx context.Context, mod api.Module, stack []uint64) {
	b := binding(ctx)
	size := api.DecodeU32(stack[0])

	off, err := b.Arena.Alloc(size)
	if err != nil {
		abort(b, err)
	}
	addr := uint64(b.Base) + uint64(off)
	end := addr + uint64(size)
	if end > uint64(^uint32(0))+1 {
		abort(b, errors.AllocationOverflow(off, size, ^uint32(0)-b.Base))
	}
	if err := ensure(mod.Memory(), end); err != nil {
		abort(b, err)
	}

	b.record(Allocation{Offset: off, Addr: uint32(addr), Size: size})
	stack[0] = api.EncodeU32(uint32(addr))
}

// ensure grows mem so that [0, end) is addressable.
func ensure(mem api.Memory, end uint64) error {
	if mem == nil {
		return errors.NotFound(errors.PhaseBridge, "memory", pidview.ExportMemory)
	}
	size := uint64(mem.Size())
	if end <= size {
		return nil
	}
	pages := (end - size + pidview.PageSize - 1) / pidview.PageSize
	if _, ok := mem.Grow(uint32(pages)); !ok {
		return errors.New(errors.PhaseArena, errors.KindAllocationOverflow).
			Value(end).
			Detail("cannot grow memory by %d page(s) from %d bytes", pages, size).
			Build()
	}
	return nil
}
