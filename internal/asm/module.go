// Package asm assembles small core wasm modules from Go.
//
// It covers the subset the PID decoder and its test guests need: i32/i64
// integer ops, linear memory load/store, memory.fill, structured control flow
// with named labels, function imports, globals and exports.
//
//	m := asm.NewModule()
//	alloc := m.Import("env", "alloc", []asm.ValType{asm.I32}, []asm.ValType{asm.I32})
//	m.Memory(1, nil)
//	m.ExportMemory("memory")
//
//	f := m.Func(nil, []asm.ValType{asm.I32})
//	f.I32Const(8).Call(alloc)
//	m.ExportFunc("decode", f)
//
//	wasm, err := m.Encode()
//
// All imports must be declared before the first Func.
package asm

import "fmt"

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

func (ft FuncType) Equal(other FuncType) bool {
	if len(ft.Params) != len(other.Params) || len(ft.Results) != len(other.Results) {
		return false
	}
	for i, p := range ft.Params {
		if p != other.Params[i] {
			return false
		}
	}
	for i, r := range ft.Results {
		if r != other.Results[i] {
			return false
		}
	}
	return true
}

// Import is an imported function.
type Import struct {
	Module  string
	Name    string
	TypeIdx uint32
}

// Limits bounds a memory in 64 KiB pages.
type Limits struct {
	Max *uint32
	Min uint32
}

// Global is a module global with a constant initializer.
type Global struct {
	Init    int64
	Type    ValType
	Mutable bool
}

// Export names a function, memory or global.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// Module is a core wasm module under construction.
type Module struct {
	memory  *Limits
	err     error
	types   []FuncType
	imports []Import
	funcs   []*Func
	globals []Global
	exports []Export
}

func NewModule() *Module {
	return &Module{}
}

func (m *Module) typeIndex(ft FuncType) uint32 {
	for i, t := range m.types {
		if t.Equal(ft) {
			return uint32(i)
		}
	}
	m.types = append(m.types, ft)
	return uint32(len(m.types) - 1)
}

func (m *Module) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}

// Import declares an imported function and returns its function index.
func (m *Module) Import(module, name string, params, results []ValType) uint32 {
	if len(m.funcs) > 0 {
		m.fail(fmt.Errorf("import %s.%s declared after a function", module, name))
	}
	idx := m.typeIndex(FuncType{Params: params, Results: results})
	m.imports = append(m.imports, Import{Module: module, Name: name, TypeIdx: idx})
	return uint32(len(m.imports) - 1)
}

// Memory declares the module's single linear memory.
func (m *Module) Memory(min uint32, max *uint32) {
	if m.memory != nil {
		m.fail(fmt.Errorf("memory declared twice"))
		return
	}
	m.memory = &Limits{Min: min, Max: max}
}

// Global declares a global and returns its index.
func (m *Module) Global(t ValType, mutable bool, init int64) uint32 {
	m.globals = append(m.globals, Global{Type: t, Mutable: mutable, Init: init})
	return uint32(len(m.globals) - 1)
}

// Func starts a new function body.
func (m *Module) Func(params, results []ValType) *Func {
	f := &Func{
		Index:   uint32(len(m.imports) + len(m.funcs)),
		typeIdx: m.typeIndex(FuncType{Params: params, Results: results}),
		nparams: uint32(len(params)),
	}
	m.funcs = append(m.funcs, f)
	return f
}

func (m *Module) ExportFunc(name string, f *Func) {
	m.exports = append(m.exports, Export{Name: name, Kind: KindFunc, Idx: f.Index})
}

func (m *Module) ExportMemory(name string) {
	m.exports = append(m.exports, Export{Name: name, Kind: KindMemory, Idx: 0})
}

func (m *Module) ExportGlobal(name string, idx uint32) {
	m.exports = append(m.exports, Export{Name: name, Kind: KindGlobal, Idx: idx})
}

// Encode returns the binary module, or the first construction error.
func (m *Module) Encode() ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, f := range m.funcs {
		if f.err != nil {
			return nil, fmt.Errorf("func %d: %w", f.Index, f.err)
		}
		if len(f.labels) > 0 {
			return nil, fmt.Errorf("func %d: %d unclosed block(s)", f.Index, len(f.labels))
		}
	}
	return encode(m), nil
}
