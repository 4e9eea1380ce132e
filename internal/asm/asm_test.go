package asm

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

func TestEncode_EmptyModule(t *testing.T) {
	wasm, err := NewModule().Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(wasm, magic) {
		t.Errorf("expected bare header, got % x", wasm)
	}
}

func TestBuffer_LEB128(t *testing.T) {
	tests := []struct {
		name  string
		write func(*Buffer)
		want  []byte
	}{
		{"u32 zero", func(b *Buffer) { b.WriteU32(0) }, []byte{0x00}},
		{"u32 127", func(b *Buffer) { b.WriteU32(127) }, []byte{0x7F}},
		{"u32 128", func(b *Buffer) { b.WriteU32(128) }, []byte{0x80, 0x01}},
		{"u32 max", func(b *Buffer) { b.WriteU32(0xFFFFFFFF) }, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}},
		{"i32 -1", func(b *Buffer) { b.WriteI32(-1) }, []byte{0x7F}},
		{"i32 64", func(b *Buffer) { b.WriteI32(64) }, []byte{0xC0, 0x00}},
		{"i32 -65", func(b *Buffer) { b.WriteI32(-65) }, []byte{0xBF, 0x7F}},
		{"i64 1<<24", func(b *Buffer) { b.WriteI64(1 << 24) }, []byte{0x80, 0x80, 0x80, 0x08}},
		{"string", func(b *Buffer) { b.WriteString("env") }, []byte{0x03, 'e', 'n', 'v'}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Buffer{}
			tt.write(b)
			if !bytes.Equal(b.Bytes, tt.want) {
				t.Errorf("got % x, want % x", b.Bytes, tt.want)
			}
		})
	}
}

func TestEncode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		build   func(*Module)
		wantErr string
	}{
		{"unknown_label", func(m *Module) {
			m.Func(nil, nil).Block("a").Br("b").End()
		}, "unknown label"},
		{"unclosed", func(m *Module) {
			m.Func(nil, nil).Loop("l")
		}, "unclosed block"},
		{"stray_end", func(m *Module) {
			m.Func(nil, nil).End()
		}, "end without open block"},
		{"late_import", func(m *Module) {
			m.Func(nil, nil)
			m.Import("env", "late", nil, nil)
		}, "declared after a function"},
		{"double_memory", func(m *Module) {
			m.Memory(1, nil)
			m.Memory(2, nil)
		}, "memory declared twice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModule()
			tt.build(m)
			_, err := m.Encode()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q missing %q", err, tt.wantErr)
			}
		})
	}
}

func TestFunc_LabelDepth(t *testing.T) {
	f := (&Module{}).Func(nil, nil)
	f.Block("outer").Loop("inner").If()
	if d, _ := f.depth(""); d != 0 {
		t.Errorf("if depth = %d, want 0", d)
	}
	if d, _ := f.depth("inner"); d != 1 {
		t.Errorf("inner depth = %d, want 1", d)
	}
	if d, _ := f.depth("outer"); d != 2 {
		t.Errorf("outer depth = %d, want 2", d)
	}
}

func TestFunc_LocalsFollowParams(t *testing.T) {
	f := (&Module{}).Func([]ValType{I32, I32}, nil)
	if idx := f.Local(I32); idx != 2 {
		t.Errorf("first local = %d, want 2", idx)
	}
	if idx := f.Local(I64); idx != 3 {
		t.Errorf("second local = %d, want 3", idx)
	}
}

func TestModule_TypeDedup(t *testing.T) {
	m := NewModule()
	a := m.Import("env", "a", []ValType{I32}, []ValType{I32})
	b := m.Import("env", "b", []ValType{I32}, []ValType{I32})
	if a != 0 || b != 1 {
		t.Errorf("import indices = %d, %d", a, b)
	}
	if len(m.types) != 1 {
		t.Errorf("expected 1 deduplicated type, got %d", len(m.types))
	}
	f := m.Func(nil, []ValType{I32})
	if f.Index != 2 {
		t.Errorf("func index = %d, want 2 (after imports)", f.Index)
	}
}

// TestEncode_RunsInWazero assembles a module exercising loops, memory,
// globals and an import, then executes it.
func TestEncode_RunsInWazero(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	_, err := rt.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = uint64(uint32(stack[0]) * 2)
		}), []api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32}).
		Export("double").
		Instantiate(ctx)
	if err != nil {
		t.Fatalf("host module: %v", err)
	}

	m := NewModule()
	double := m.Import("env", "double", []ValType{I32}, []ValType{I32})
	m.Memory(1, nil)
	m.ExportMemory("memory")
	base := m.Global(I32, false, 1024)
	m.ExportGlobal("__heap_base", base)

	// sum = double(1) + double(2) + ... + double(n), stored at base
	f := m.Func([]ValType{I32}, []ValType{I32})
	n := uint32(0)
	i := f.Local(I32)
	sum := f.Local(I32)
	f.I32Const(1).LocalSet(i)
	f.Block("done").Loop("next")
	f.LocalGet(i).LocalGet(n).I32GtU().BrIf("done")
	f.LocalGet(sum).LocalGet(i).Call(double).I32Add().LocalSet(sum)
	f.LocalGet(i).I32Const(1).I32Add().LocalSet(i)
	f.Br("next")
	f.End().End()
	f.GlobalGet(base).I32Const(0xAB).I32Const(4).MemoryFill()
	f.GlobalGet(base).I32Const(4).I32Add().LocalGet(sum).I32Store(0)
	f.LocalGet(sum)
	m.ExportFunc("sum", f)

	wasm, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	mod, err := rt.Instantiate(ctx, wasm)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}

	results, err := mod.ExportedFunction("sum").Call(ctx, 4)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got := uint32(results[0]); got != 20 {
		t.Errorf("sum(4) = %d, want 20", got)
	}

	mem := mod.ExportedMemory("memory")
	fill, _ := mem.Read(1024, 4)
	if !bytes.Equal(fill, []byte{0xAB, 0xAB, 0xAB, 0xAB}) {
		t.Errorf("memory.fill wrote % x", fill)
	}
	stored, _ := mem.ReadUint32Le(1028)
	if stored != 20 {
		t.Errorf("stored sum = %d, want 20", stored)
	}
	if g := mod.ExportedGlobal("__heap_base").Get(); g != 1024 {
		t.Errorf("__heap_base = %d", g)
	}
}

func TestEncode_UnreachableTraps(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	m := NewModule()
	f := m.Func(nil, []ValType{I32})
	f.Unreachable()
	m.ExportFunc("boom", f)

	wasm, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	mod, err := rt.Instantiate(ctx, wasm)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	if _, err := mod.ExportedFunction("boom").Call(ctx); err == nil {
		t.Error("expected trap")
	}
}
