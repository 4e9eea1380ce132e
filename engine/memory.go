package engine

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/pidview"
)

// Memory adapts a wazero api.Memory to pidview.Memory.
type Memory struct {
	mem api.Memory
}

var _ pidview.Memory = (*Memory)(nil)

// WrapMemory wraps a wazero memory.
func WrapMemory(mem api.Memory) *Memory {
	return &Memory{mem: mem}
}

// Read returns a view of length bytes at offset. The view aliases guest
// memory and is only valid until the next guest call.
func (m *Memory) Read(offset uint32, length uint32) ([]byte, error) {
	if m.mem == nil {
		return nil, fmt.Errorf("memory closed")
	}
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("memory read out of bounds: offset=%d, length=%d", offset, length)
	}
	return data, nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (m *Memory) ReadU32(offset uint32) (uint32, error) {
	if m.mem == nil {
		return 0, fmt.Errorf("memory closed")
	}
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

// Size returns the current memory size in bytes.
func (m *Memory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}
