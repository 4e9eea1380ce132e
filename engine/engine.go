package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/pidview"
	"github.com/wippyai/pidview/bridge"
	"github.com/wippyai/pidview/errors"
	"github.com/wippyai/pidview/guest"
)

// DefaultMemoryLimitPages is the per-instance memory limit used when
// Config.MemoryLimitPages is zero (64 MiB).
const DefaultMemoryLimitPages = 1024

// Config holds configuration for engine creation
type Config struct {
	// Module is the guest binary. nil means the built-in PID decoder.
	Module []byte

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means DefaultMemoryLimitPages.
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32
}

// Engine owns the wazero runtime and the compiled guest.
type Engine struct {
	runtime    wazero.Runtime
	compiled   wazero.CompiledModule
	limitPages uint32
}

// New creates a runtime, registers the bridge and compiles the guest.
func New(ctx context.Context, cfg *Config) (*Engine, error) {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	if c.MemoryLimitPages == 0 {
		c.MemoryLimitPages = DefaultMemoryLimitPages
	}
	if c.MemoryLimitPages > 65536 {
		return nil, errors.InvalidInput(errors.PhaseRuntime, "memory limit exceeds 65536 pages")
	}
	if c.Module == nil {
		bin, err := guest.Module()
		if err != nil {
			return nil, errors.Wrap(errors.PhaseCompile, errors.KindInvalidData, err, "assemble guest")
		}
		c.Module = bin
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().
		WithMemoryLimitPages(c.MemoryLimitPages))

	if _, err := bridge.NewHostModule(runtime).Build(ctx); err != nil {
		return nil, multierr.Append(err, runtime.Close(ctx))
	}

	compiled, err := runtime.CompileModule(ctx, c.Module)
	if err != nil {
		cerr := errors.Wrap(errors.PhaseCompile, errors.KindInvalidData, err, "compile guest")
		return nil, multierr.Append(cerr, runtime.Close(ctx))
	}
	if err := validate(compiled); err != nil {
		return nil, multierr.Append(err, runtime.Close(ctx))
	}

	Logger().Debug("engine ready",
		zap.Int("module_bytes", len(c.Module)),
		zap.Uint32("limit_pages", c.MemoryLimitPages))

	return &Engine{
		runtime:    runtime,
		compiled:   compiled,
		limitPages: c.MemoryLimitPages,
	}, nil
}

// validate checks the guest against the host ABI before any instantiation.
func validate(compiled wazero.CompiledModule) error {
	known := map[string]bool{
		pidview.ImportReadU8:    true,
		pidview.ImportReadU32LE: true,
		pidview.ImportReadI32LE: true,
		pidview.ImportAlloc:     true,
	}
	for _, def := range compiled.ImportedFunctions() {
		module, name, _ := def.Import()
		if module != pidview.HostModule || !known[name] {
			return errors.New(errors.PhaseValidate, errors.KindUnsupported).
				Path(module, name).
				Detail("guest imports a function the host does not provide").
				Build()
		}
	}
	if mems := compiled.ImportedMemories(); len(mems) > 0 {
		module, name, _ := mems[0].Import()
		return errors.New(errors.PhaseValidate, errors.KindUnsupported).
			Path(module, name).
			Detail("guest must define its own memory").
			Build()
	}

	decode, ok := compiled.ExportedFunctions()[pidview.ExportDecode]
	if !ok {
		return errors.NotFound(errors.PhaseValidate, "export", pidview.ExportDecode)
	}
	results := decode.ResultTypes()
	if len(decode.ParamTypes()) != 0 || len(results) != 1 || results[0] != api.ValueTypeI32 {
		return errors.New(errors.PhaseValidate, errors.KindUnsupported).
			Path(pidview.ExportDecode).
			Detail("decode must have signature () -> i32").
			Build()
	}
	if _, ok := compiled.ExportedMemories()[pidview.ExportMemory]; !ok {
		return errors.NotFound(errors.PhaseValidate, "export", pidview.ExportMemory)
	}
	return nil
}

// LimitPages returns the per-instance memory limit in pages.
func (e *Engine) LimitPages() uint32 {
	return e.limitPages
}

// Instantiate creates a fresh guest instance with its own linear memory.
func (e *Engine) Instantiate(ctx context.Context) (*Instance, error) {
	mod, err := e.runtime.InstantiateModule(ctx, e.compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	var base uint32
	if g := mod.ExportedGlobal(pidview.ExportHeapBase); g != nil {
		base = api.DecodeU32(g.Get())
	}

	mem := mod.ExportedMemory(pidview.ExportMemory)
	limit := uint64(e.limitPages) * pidview.PageSize
	if maxPages, ok := mem.Definition().Max(); ok && uint64(maxPages)*pidview.PageSize < limit {
		limit = uint64(maxPages) * pidview.PageSize
	}
	if uint64(base) >= limit {
		cerr := errors.New(errors.PhaseValidate, errors.KindInvalidData).
			Path(pidview.ExportHeapBase).
			Value(base).
			Detail("heap base %d leaves no room below the %d byte memory limit", base, limit).
			Build()
		return nil, multierr.Append(cerr, mod.Close(ctx))
	}
	capacity := limit - uint64(base)
	if capacity > uint64(^uint32(0)) {
		capacity = uint64(^uint32(0))
	}

	Logger().Debug("instance created",
		zap.Uint32("heap_base", base),
		zap.Uint64("capacity", capacity))

	return &Instance{
		mod:      mod,
		decode:   mod.ExportedFunction(pidview.ExportDecode),
		memory:   &Memory{mem: mem},
		heapBase: base,
		capacity: uint32(capacity),
	}, nil
}

// Close releases the compiled guest and the runtime.
func (e *Engine) Close(ctx context.Context) error {
	return multierr.Combine(
		e.compiled.Close(ctx),
		e.runtime.Close(ctx),
	)
}
