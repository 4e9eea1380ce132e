// Package source holds the input side of a decode: an immutable view over
// the bytes of one PID file.
package source

import (
	"crypto/sha256"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"

	"github.com/wippyai/pidview/errors"
)

// Extension is the only file extension Open accepts.
const Extension = ".pid"

// Buffer is an immutable, bounds-checked PID file buffer.
// It implements pidview.ByteSource and is safe for concurrent reads.
type Buffer struct {
	name   string
	data   []byte
	digest [sha256.Size]byte
}

// New copies data into a new Buffer. Later changes to data are not visible
// through the Buffer.
func New(name string, data []byte) *Buffer {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Buffer{
		name:   name,
		data:   buf,
		digest: sha256.Sum256(buf),
	}
}

// Open reads a .pid file from disk.
func Open(path string) (*Buffer, error) {
	if !strings.EqualFold(filepath.Ext(path), Extension) {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Path(path).
			Detail("expected a %s file", Extension).
			Build()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read file", err)
	}
	if uint64(len(data)) > uint64(^uint32(0)) {
		return nil, errors.InvalidInput(errors.PhaseLoad, "file larger than 4 GiB")
	}

	b := &Buffer{name: filepath.Base(path), data: data}
	b.digest = sha256.Sum256(data)
	return b, nil
}

// Name returns the file name the buffer was loaded from.
func (b *Buffer) Name() string {
	return b.name
}

// Len returns the number of bytes in the buffer.
func (b *Buffer) Len() uint32 {
	return uint32(len(b.data))
}

// Bytes returns a copy of the buffer contents.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Digest returns the SHA-256 of the buffer contents.
func (b *Buffer) Digest() [sha256.Size]byte {
	return b.digest
}

// ReadU8 reads one byte at offset.
func (b *Buffer) ReadU8(offset uint32) (uint8, error) {
	if err := b.check("read_u8", offset, 1); err != nil {
		return 0, err
	}
	return b.data[offset], nil
}

// ReadU32LE reads a little-endian uint32 at offset.
func (b *Buffer) ReadU32LE(offset uint32) (uint32, error) {
	if err := b.check("read_u32_le", offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b.data[offset:]), nil
}

// ReadI32LE reads a little-endian int32 at offset.
func (b *Buffer) ReadI32LE(offset uint32) (int32, error) {
	if err := b.check("read_i32_le", offset, 4); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b.data[offset:])), nil
}

// check is done in 64-bit so offsets near 2^32 cannot wrap.
func (b *Buffer) check(op string, offset, size uint32) error {
	if uint64(offset)+uint64(size) > uint64(len(b.data)) {
		return errors.OutOfBoundsRead(op, offset, size, uint32(len(b.data)))
	}
	return nil
}
