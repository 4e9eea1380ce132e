package pidtest

import (
	"github.com/wippyai/pidview"
	"github.com/wippyai/pidview/guest"
	"github.com/wippyai/pidview/internal/asm"
)

// stub is a guest with the bridge imports, one page of exported memory and
// a decode function under construction.
type stub struct {
	m                               *asm.Module
	f                               *asm.Func
	readU8, readU32, readI32, alloc uint32
}

func newStub() *stub {
	s := &stub{m: asm.NewModule()}
	s.readU8, s.readU32, s.readI32, s.alloc = guest.Imports(s.m)
	s.m.Memory(1, nil)
	s.m.ExportMemory(pidview.ExportMemory)
	s.f = s.m.Func(nil, []asm.ValType{asm.I32})
	return s
}

func (s *stub) finish() []byte {
	s.m.ExportFunc(pidview.ExportDecode, s.f)
	return mustEncode(s.m)
}

// TrapGuest returns a module whose decode executes unreachable.
func TrapGuest() []byte {
	s := newStub()
	s.f.Unreachable()
	return s.finish()
}

// FrameGuest returns a module whose decode allocates an 8-byte frame header
// holding width and height, with no payload behind it.
func FrameGuest(width, height uint32) []byte {
	s := newStub()
	ptr := s.f.Local(asm.I32)
	s.f.I32Const(pidview.FrameHeaderSize).Call(s.alloc).LocalSet(ptr)
	s.f.LocalGet(ptr).I32Const(int32(width)).I32Store(0)
	s.f.LocalGet(ptr).I32Const(int32(height)).I32Store(4)
	s.f.LocalGet(ptr)
	return s.finish()
}

// PointerGuest returns a module whose decode returns ptr without touching
// memory.
func PointerGuest(ptr uint32) []byte {
	s := newStub()
	s.f.I32Const(int32(ptr))
	return s.finish()
}

// AllocGuest returns a module whose decode calls alloc once per entry in
// sizes and returns the last address.
func AllocGuest(sizes ...uint32) []byte {
	s := newStub()
	s.f.I32Const(0)
	for _, size := range sizes {
		s.f.Drop().I32Const(int32(size)).Call(s.alloc)
	}
	return s.finish()
}

// ReadGuest returns a module whose decode returns read_u8(offset).
func ReadGuest(offset uint32) []byte {
	s := newStub()
	s.f.I32Const(int32(offset)).Call(s.readU8)
	return s.finish()
}

// ReadU32Guest returns a module whose decode returns read_u32_le(offset).
func ReadU32Guest(offset uint32) []byte {
	s := newStub()
	s.f.I32Const(int32(offset)).Call(s.readU32)
	return s.finish()
}

// ReadI32Guest returns a module whose decode returns read_i32_le(offset).
func ReadI32Guest(offset uint32) []byte {
	s := newStub()
	s.f.I32Const(int32(offset)).Call(s.readI32)
	return s.finish()
}

// NoMemoryGuest returns a module that exports decode but no memory.
func NoMemoryGuest() []byte {
	m := asm.NewModule()
	f := m.Func(nil, []asm.ValType{asm.I32})
	f.I32Const(0)
	m.ExportFunc(pidview.ExportDecode, f)
	return mustEncode(m)
}

// NoDecodeGuest returns a module with memory but no decode export.
func NoDecodeGuest() []byte {
	m := asm.NewModule()
	m.Memory(1, nil)
	m.ExportMemory(pidview.ExportMemory)
	return mustEncode(m)
}

func mustEncode(m *asm.Module) []byte {
	bin, err := m.Encode()
	if err != nil {
		panic(err)
	}
	return bin
}
