// Package guest provides the PID decode module that runs inside the sandbox.
//
// The module is assembled from Go at first use; it has no embedded binary.
// It imports the accessor bridge from "env", pulls the PID header and
// pixel data one accessor call at a time, obtains every byte of working and
// output memory through the host "alloc" import, and returns a pointer to
// the decoded frame.
//
// Format handled by the guest:
//
//	offset  size  field
//	0       4     id (i32)
//	4       4     flags (u32)
//	8       4     width (u32)
//	12      4     height (u32)
//	16      16    user values (4 x i32)
//	32      ...   pixel indices, default or RLE packed
//	...     768   RGB palette, present when flags&0x80
//
// Default packing: a byte a > 192 is a run of a-192 copies of the next byte,
// otherwise a single pixel a. RLE packing (flags&0x20): a byte a > 128 is a
// run of a-128 zero pixels, otherwise a literal run of the next a bytes.
// Runs are clamped to width*height. With flags&0x01 palette index 0 is
// fully transparent. Without a palette every pixel is transparent black.
package guest

import (
	"sync"

	"github.com/wippyai/pidview"
	"github.com/wippyai/pidview/internal/asm"
)

const (
	// HeapBase is where the guest's arena region starts.
	HeapBase = 1024

	// MaxPixels bounds width*height; larger images trap.
	MaxPixels = 1 << 24

	headerSize  = 32
	paletteSize = 256 * 3
)

const (
	flagTransparent = 0x01
	flagRLE         = 0x20
	flagPalette     = 0x80
)

var (
	once     sync.Once
	wasmBin  []byte
	buildErr error
)

// Module returns the compiled wasm binary of the decoder. The result is
// shared; callers must not modify it.
func Module() ([]byte, error) {
	once.Do(func() {
		wasmBin, buildErr = build()
	})
	return wasmBin, buildErr
}

// Imports declares the bridge imports on m in ABI order and returns their
// function indices.
func Imports(m *asm.Module) (readU8, readU32, readI32, alloc uint32) {
	i32 := []asm.ValType{asm.I32}
	readU8 = m.Import(pidview.HostModule, pidview.ImportReadU8, i32, i32)
	readU32 = m.Import(pidview.HostModule, pidview.ImportReadU32LE, i32, i32)
	readI32 = m.Import(pidview.HostModule, pidview.ImportReadI32LE, i32, i32)
	alloc = m.Import(pidview.HostModule, pidview.ImportAlloc, i32, i32)
	return
}

func build() ([]byte, error) {
	m := asm.NewModule()
	readU8, readU32, readI32, alloc := Imports(m)

	m.Memory(1, nil)
	m.ExportMemory(pidview.ExportMemory)
	heapBase := m.Global(asm.I32, false, HeapBase)
	m.ExportGlobal(pidview.ExportHeapBase, heapBase)

	d := &decoder{
		readU8: readU8,
		alloc:  alloc,
	}
	f := m.Func(nil, []asm.ValType{asm.I32})
	d.f = f
	d.declareLocals()

	d.header(readU32, readI32)
	f.LocalGet(d.flags).I32Const(flagRLE).I32And().If()
	d.unpackRLE()
	f.Else()
	d.unpackDefault()
	f.End()
	d.palette()
	d.output()

	m.ExportFunc(pidview.ExportDecode, f)
	return m.Encode()
}

type decoder struct {
	f      *asm.Func
	readU8 uint32
	alloc  uint32

	cur, flags, width, height, count uint32
	scratch, pal, out                uint32
	pixel, a, n, b, i, px, c         uint32
}

func (d *decoder) declareLocals() {
	for _, l := range []*uint32{
		&d.cur, &d.flags, &d.width, &d.height, &d.count,
		&d.scratch, &d.pal, &d.out,
		&d.pixel, &d.a, &d.n, &d.b, &d.i, &d.px, &d.c,
	} {
		*l = d.f.Local(asm.I32)
	}
}

// next reads the byte under the cursor into local dst and advances.
func (d *decoder) next(dst uint32) {
	d.f.LocalGet(d.cur).Call(d.readU8).LocalSet(dst)
	d.advance(1)
}

func (d *decoder) advance(n int32) {
	d.f.LocalGet(d.cur).I32Const(n).I32Add().LocalSet(d.cur)
}

func (d *decoder) incr(local uint32) {
	d.f.LocalGet(local).I32Const(1).I32Add().LocalSet(local)
}

func (d *decoder) header(readU32, readI32 uint32) {
	f := d.f
	f.I32Const(0).Call(readI32).Drop() // id
	f.I32Const(4).Call(readU32).LocalSet(d.flags)
	f.I32Const(8).Call(readU32).LocalSet(d.width)
	f.I32Const(12).Call(readU32).LocalSet(d.height)
	for off := int32(16); off < headerSize; off += 4 {
		f.I32Const(off).Call(readI32).Drop() // user values
	}
	f.I32Const(headerSize).LocalSet(d.cur)

	f.LocalGet(d.width).I64ExtendI32U().
		LocalGet(d.height).I64ExtendI32U().
		I64Mul().I64Const(MaxPixels).I64GtU().
		If().Unreachable().End()

	f.LocalGet(d.width).LocalGet(d.height).I32Mul().LocalSet(d.count)
	f.LocalGet(d.count).Call(d.alloc).LocalSet(d.scratch)
	f.I32Const(0).LocalSet(d.pixel)
}

// fillRun writes n copies of local b at the current pixel, clamped to count.
func (d *decoder) fillRun() {
	f := d.f
	f.LocalGet(d.n).
		LocalGet(d.count).LocalGet(d.pixel).I32Sub().
		I32GtU().If()
	f.LocalGet(d.count).LocalGet(d.pixel).I32Sub().LocalSet(d.n)
	f.End()

	f.LocalGet(d.scratch).LocalGet(d.pixel).I32Add().
		LocalGet(d.b).
		LocalGet(d.n).
		MemoryFill()
	f.LocalGet(d.pixel).LocalGet(d.n).I32Add().LocalSet(d.pixel)
}

func (d *decoder) unpackDefault() {
	f := d.f
	f.Block("done").Loop("next")
	f.LocalGet(d.pixel).LocalGet(d.count).I32GeU().BrIf("done")
	d.next(d.a)

	f.LocalGet(d.a).I32Const(192).I32GtU().If()
	f.LocalGet(d.a).I32Const(192).I32Sub().LocalSet(d.n)
	d.next(d.b)
	f.Else()
	f.I32Const(1).LocalSet(d.n)
	f.LocalGet(d.a).LocalSet(d.b)
	f.End()

	d.fillRun()
	f.Br("next")
	f.End().End()
}

func (d *decoder) unpackRLE() {
	f := d.f
	f.Block("done").Loop("next")
	f.LocalGet(d.pixel).LocalGet(d.count).I32GeU().BrIf("done")
	d.next(d.a)

	f.LocalGet(d.a).I32Const(128).I32GtU().If()
	f.LocalGet(d.a).I32Const(128).I32Sub().LocalSet(d.n)
	f.I32Const(0).LocalSet(d.b)
	d.fillRun()
	f.Else()
	f.I32Const(0).LocalSet(d.i)
	f.Block("literal_done").Loop("literal")
	f.LocalGet(d.i).LocalGet(d.a).I32GeU().BrIf("literal_done")
	d.next(d.b)
	f.LocalGet(d.pixel).LocalGet(d.count).I32LtU().If()
	f.LocalGet(d.scratch).LocalGet(d.pixel).I32Add().LocalGet(d.b).I32Store8(0)
	f.End()
	d.incr(d.pixel)
	d.incr(d.i)
	f.Br("literal")
	f.End().End()
	f.End()

	f.Br("next")
	f.End().End()
}

func (d *decoder) palette() {
	f := d.f
	f.LocalGet(d.flags).I32Const(flagPalette).I32And().If()
	f.I32Const(paletteSize).Call(d.alloc).LocalSet(d.pal)
	f.I32Const(0).LocalSet(d.i)
	f.Block("done").Loop("next")
	f.LocalGet(d.i).I32Const(paletteSize).I32GeU().BrIf("done")
	f.LocalGet(d.pal).LocalGet(d.i).I32Add().
		LocalGet(d.cur).Call(d.readU8).
		I32Store8(0)
	d.advance(1)
	d.incr(d.i)
	f.Br("next")
	f.End().End()
	f.End()
}

func (d *decoder) output() {
	f := d.f
	f.LocalGet(d.count).I32Const(2).I32Shl().
		I32Const(pidview.FrameHeaderSize).I32Add().
		Call(d.alloc).LocalSet(d.out)
	f.LocalGet(d.out).LocalGet(d.width).I32Store(0)
	f.LocalGet(d.out).LocalGet(d.height).I32Store(4)

	f.LocalGet(d.flags).I32Const(flagPalette).I32And().I32Eqz().If()
	f.LocalGet(d.out).I32Const(pidview.FrameHeaderSize).I32Add().
		I32Const(0).
		LocalGet(d.count).I32Const(2).I32Shl().
		MemoryFill()
	f.Else()
	f.I32Const(0).LocalSet(d.i)
	f.LocalGet(d.out).I32Const(pidview.FrameHeaderSize).I32Add().LocalSet(d.px)
	f.Block("done").Loop("next")
	f.LocalGet(d.i).LocalGet(d.count).I32GeU().BrIf("done")
	f.LocalGet(d.scratch).LocalGet(d.i).I32Add().I32Load8U(0).LocalSet(d.c)

	f.LocalGet(d.flags).I32Const(flagTransparent).I32And().
		LocalGet(d.c).I32Eqz().
		I32And().If()
	f.LocalGet(d.px).I32Const(0).I32Store(0)
	f.Else()
	f.LocalGet(d.pal).LocalGet(d.c).I32Const(3).I32Mul().I32Add().LocalSet(d.c)
	f.LocalGet(d.px).LocalGet(d.c).I32Load8U(0).I32Store8(0)
	f.LocalGet(d.px).LocalGet(d.c).I32Load8U(1).I32Store8(1)
	f.LocalGet(d.px).LocalGet(d.c).I32Load8U(2).I32Store8(2)
	f.LocalGet(d.px).I32Const(255).I32Store8(3)
	f.End()

	f.LocalGet(d.px).I32Const(4).I32Add().LocalSet(d.px)
	d.incr(d.i)
	f.Br("next")
	f.End().End()
	f.End()

	f.LocalGet(d.out)
}
