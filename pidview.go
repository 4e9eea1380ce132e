package pidview

// ByteSource is a read-only random-access view over the bytes of a PID file.
// Reads outside [0, Len()) fail; they never return partial data.
type ByteSource interface {
	Len() uint32
	ReadU8(offset uint32) (uint8, error)
	ReadU32LE(offset uint32) (uint32, error)
	ReadI32LE(offset uint32) (int32, error)
}

// Memory is a read view over guest linear memory.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	ReadU32(offset uint32) (uint32, error)
	Size() uint32
}

// Allocator hands out forward-only regions of the shared memory.
// Regions are never freed individually; Reset releases all of them at once.
type Allocator interface {
	Alloc(size uint32) (uint32, error)
	Reset()
}

// Host/guest ABI names. The guest imports the accessor and allocator
// functions from HostModule and exports ExportDecode and ExportMemory.
const (
	HostModule = "env"

	ImportReadU8    = "read_u8"
	ImportReadU32LE = "read_u32_le"
	ImportReadI32LE = "read_i32_le"
	ImportAlloc     = "alloc"

	ExportDecode   = "decode"
	ExportMemory   = "memory"
	ExportHeapBase = "__heap_base"
)

// FrameHeaderSize is the width+height prefix of a frame in guest memory.
const FrameHeaderSize = 8

// PageSize is the wasm linear memory page size.
const PageSize = 65536
