package asm

import "fmt"

// Instr is a single instruction with its immediate.
type Instr struct {
	Imm    any
	Opcode byte
}

// Memarg is the alignment/offset immediate of loads and stores.
type Memarg struct {
	Align  uint32
	Offset uint32
}

// Func is a function body under construction. Emitters return the receiver
// so short sequences can be chained.
type Func struct {
	err     error
	locals  []ValType
	code    []Instr
	labels  []string
	Index   uint32
	typeIdx uint32
	nparams uint32
}

// Local declares a new local and returns its index.
func (f *Func) Local(t ValType) uint32 {
	f.locals = append(f.locals, t)
	return f.nparams + uint32(len(f.locals)-1)
}

func (f *Func) emit(op byte, imm any) *Func {
	f.code = append(f.code, Instr{Opcode: op, Imm: imm})
	return f
}

func (f *Func) fail(err error) *Func {
	if f.err == nil {
		f.err = err
	}
	return f
}

// depth resolves a label to its relative branch depth.
func (f *Func) depth(label string) (uint32, bool) {
	for i := len(f.labels) - 1; i >= 0; i-- {
		if f.labels[i] == label {
			return uint32(len(f.labels) - 1 - i), true
		}
	}
	return 0, false
}

// Control flow

func (f *Func) Block(label string) *Func {
	f.labels = append(f.labels, label)
	return f.emit(opBlock, blockTypeEmpty)
}

func (f *Func) Loop(label string) *Func {
	f.labels = append(f.labels, label)
	return f.emit(opLoop, blockTypeEmpty)
}

// If opens an unlabeled if block consuming the i32 on the stack.
func (f *Func) If() *Func {
	f.labels = append(f.labels, "")
	return f.emit(opIf, blockTypeEmpty)
}

func (f *Func) Else() *Func {
	return f.emit(opElse, nil)
}

func (f *Func) End() *Func {
	if len(f.labels) == 0 {
		return f.fail(fmt.Errorf("end without open block"))
	}
	f.labels = f.labels[:len(f.labels)-1]
	return f.emit(opEnd, nil)
}

func (f *Func) Br(label string) *Func {
	d, ok := f.depth(label)
	if !ok {
		return f.fail(fmt.Errorf("unknown label %q", label))
	}
	return f.emit(opBr, d)
}

func (f *Func) BrIf(label string) *Func {
	d, ok := f.depth(label)
	if !ok {
		return f.fail(fmt.Errorf("unknown label %q", label))
	}
	return f.emit(opBrIf, d)
}

func (f *Func) Unreachable() *Func { return f.emit(opUnreachable, nil) }
func (f *Func) Return() *Func      { return f.emit(opReturn, nil) }
func (f *Func) Call(idx uint32) *Func {
	return f.emit(opCall, idx)
}
func (f *Func) Drop() *Func { return f.emit(opDrop, nil) }

// Variables

func (f *Func) LocalGet(idx uint32) *Func  { return f.emit(opLocalGet, idx) }
func (f *Func) LocalSet(idx uint32) *Func  { return f.emit(opLocalSet, idx) }
func (f *Func) LocalTee(idx uint32) *Func  { return f.emit(opLocalTee, idx) }
func (f *Func) GlobalGet(idx uint32) *Func { return f.emit(opGlobalGet, idx) }
func (f *Func) GlobalSet(idx uint32) *Func { return f.emit(opGlobalSet, idx) }

// Constants and arithmetic

func (f *Func) I32Const(v int32) *Func { return f.emit(opI32Const, v) }
func (f *Func) I64Const(v int64) *Func { return f.emit(opI64Const, v) }

func (f *Func) I32Add() *Func  { return f.emit(opI32Add, nil) }
func (f *Func) I32Sub() *Func  { return f.emit(opI32Sub, nil) }
func (f *Func) I32Mul() *Func  { return f.emit(opI32Mul, nil) }
func (f *Func) I32And() *Func  { return f.emit(opI32And, nil) }
func (f *Func) I32Or() *Func   { return f.emit(opI32Or, nil) }
func (f *Func) I32Shl() *Func  { return f.emit(opI32Shl, nil) }
func (f *Func) I32ShrU() *Func { return f.emit(opI32ShrU, nil) }
func (f *Func) I32Eqz() *Func  { return f.emit(opI32Eqz, nil) }
func (f *Func) I32Eq() *Func   { return f.emit(opI32Eq, nil) }
func (f *Func) I32Ne() *Func   { return f.emit(opI32Ne, nil) }
func (f *Func) I32LtU() *Func  { return f.emit(opI32LtU, nil) }
func (f *Func) I32GtU() *Func  { return f.emit(opI32GtU, nil) }
func (f *Func) I32LeU() *Func  { return f.emit(opI32LeU, nil) }
func (f *Func) I32GeU() *Func  { return f.emit(opI32GeU, nil) }

func (f *Func) I64ExtendI32U() *Func { return f.emit(opI64ExtendU, nil) }
func (f *Func) I64Mul() *Func        { return f.emit(opI64Mul, nil) }
func (f *Func) I64GtU() *Func        { return f.emit(opI64GtU, nil) }

// Memory

func (f *Func) I32Load(offset uint32) *Func {
	return f.emit(opI32Load, Memarg{Align: 2, Offset: offset})
}

func (f *Func) I32Load8U(offset uint32) *Func {
	return f.emit(opI32Load8U, Memarg{Align: 0, Offset: offset})
}

func (f *Func) I32Store(offset uint32) *Func {
	return f.emit(opI32Store, Memarg{Align: 2, Offset: offset})
}

func (f *Func) I32Store8(offset uint32) *Func {
	return f.emit(opI32Store8, Memarg{Align: 0, Offset: offset})
}

func (f *Func) MemorySize() *Func { return f.emit(opMemorySize, nil) }

// MemoryFill consumes dst, value and length from the stack.
func (f *Func) MemoryFill() *Func {
	return f.emit(opPrefixMisc, []uint32{miscOpMemoryFill, 0})
}
