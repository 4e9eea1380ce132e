package guest

import (
	"bytes"
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/pidview"
)

func TestModule_Cached(t *testing.T) {
	a, err := Module()
	if err != nil {
		t.Fatalf("Module failed: %v", err)
	}
	b, err := Module()
	if err != nil {
		t.Fatalf("Module failed: %v", err)
	}
	if &a[0] != &b[0] {
		t.Error("expected the same binary on repeated calls")
	}
	if !bytes.HasPrefix(a, []byte{0x00, 0x61, 0x73, 0x6D}) {
		t.Errorf("missing wasm magic: % x", a[:8])
	}
}

func TestModule_ABI(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	bin, err := Module()
	if err != nil {
		t.Fatalf("Module failed: %v", err)
	}
	compiled, err := rt.CompileModule(ctx, bin)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	wantImports := []string{
		pidview.ImportReadU8,
		pidview.ImportReadU32LE,
		pidview.ImportReadI32LE,
		pidview.ImportAlloc,
	}
	imports := compiled.ImportedFunctions()
	if len(imports) != len(wantImports) {
		t.Fatalf("got %d imports, want %d", len(imports), len(wantImports))
	}
	for i, def := range imports {
		module, name, ok := def.Import()
		if !ok {
			t.Fatalf("import %d is not an import", i)
		}
		if module != pidview.HostModule || name != wantImports[i] {
			t.Errorf("import %d = %s.%s, want %s.%s", i, module, name, pidview.HostModule, wantImports[i])
		}
		if got := def.ParamTypes(); len(got) != 1 || got[0] != api.ValueTypeI32 {
			t.Errorf("import %s params = %v", name, got)
		}
		if got := def.ResultTypes(); len(got) != 1 || got[0] != api.ValueTypeI32 {
			t.Errorf("import %s results = %v", name, got)
		}
	}

	decode, ok := compiled.ExportedFunctions()[pidview.ExportDecode]
	if !ok {
		t.Fatal("decode not exported")
	}
	if len(decode.ParamTypes()) != 0 {
		t.Errorf("decode params = %v, want none", decode.ParamTypes())
	}
	if got := decode.ResultTypes(); len(got) != 1 || got[0] != api.ValueTypeI32 {
		t.Errorf("decode results = %v, want [i32]", got)
	}

	if _, ok := compiled.ExportedMemories()[pidview.ExportMemory]; !ok {
		t.Error("memory not exported")
	}
}

func TestModule_HeapBase(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	// Stub the bridge; decode is never called here.
	stub := api.GoModuleFunc(func(context.Context, api.Module, []uint64) {})
	i32 := []api.ValueType{api.ValueTypeI32}
	b := rt.NewHostModuleBuilder(pidview.HostModule)
	for _, name := range []string{pidview.ImportReadU8, pidview.ImportReadU32LE, pidview.ImportReadI32LE, pidview.ImportAlloc} {
		b.NewFunctionBuilder().WithGoModuleFunction(stub, i32, i32).Export(name)
	}
	if _, err := b.Instantiate(ctx); err != nil {
		t.Fatalf("host module: %v", err)
	}

	bin, _ := Module()
	mod, err := rt.Instantiate(ctx, bin)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	g := mod.ExportedGlobal(pidview.ExportHeapBase)
	if g == nil {
		t.Fatal("__heap_base not exported")
	}
	if got := uint32(g.Get()); got != HeapBase {
		t.Errorf("__heap_base = %d, want %d", got, HeapBase)
	}
	if size := mod.Memory().Size(); size != pidview.PageSize {
		t.Errorf("initial memory = %d, want one page", size)
	}
}
