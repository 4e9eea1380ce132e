package source

import (
	"crypto/sha256"
	goerrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/pidview"
	"github.com/wippyai/pidview/errors"
)

var _ pidview.ByteSource = (*Buffer)(nil)

func TestNew_Copies(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	b := New("a.pid", data)
	data[0] = 9

	v, err := b.ReadU8(0)
	require.NoError(t, err)
	require.Equal(t, uint8(1), v)
	require.Equal(t, uint32(4), b.Len())
	require.Equal(t, "a.pid", b.Name())

	out := b.Bytes()
	out[1] = 9
	v, _ = b.ReadU8(1)
	require.Equal(t, uint8(2), v, "Bytes must return a copy")
}

func TestReaders(t *testing.T) {
	b := New("a.pid", []byte{0x78, 0x56, 0x34, 0x12, 0xFE, 0xFF, 0xFF, 0xFF})

	u8, err := b.ReadU8(7)
	require.NoError(t, err)
	require.Equal(t, uint8(0xFF), u8)

	u32, err := b.ReadU32LE(0)
	require.NoError(t, err)
	require.Equal(t, uint32(0x12345678), u32)

	i32, err := b.ReadI32LE(4)
	require.NoError(t, err)
	require.Equal(t, int32(-2), i32)

	u32, err = b.ReadU32LE(4)
	require.NoError(t, err)
	require.Equal(t, uint32(0xFFFFFFFE), u32)
}

func TestReaders_Bounds(t *testing.T) {
	b := New("a.pid", []byte{1, 2, 3, 4, 5})

	tests := []struct {
		read func() error
		name string
	}{
		{func() error { _, err := b.ReadU8(5); return err }, "u8 at len"},
		{func() error { _, err := b.ReadU8(0xFFFFFFFF); return err }, "u8 max"},
		{func() error { _, err := b.ReadU32LE(2); return err }, "u32 straddle"},
		{func() error { _, err := b.ReadU32LE(0xFFFFFFFD); return err }, "u32 wrap"},
		{func() error { _, err := b.ReadI32LE(4); return err }, "i32 straddle"},
		{func() error { _, err := b.ReadI32LE(0xFFFFFFFC); return err }, "i32 wrap"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read()
			require.Error(t, err)
			require.True(t, goerrors.Is(err, errors.ErrOutOfBoundsRead), "got %v", err)
		})
	}

	_, err := b.ReadU32LE(1)
	require.NoError(t, err, "last full word must be readable")
}

func TestReaders_Empty(t *testing.T) {
	b := New("empty.pid", nil)
	require.Equal(t, uint32(0), b.Len())
	_, err := b.ReadU8(0)
	require.True(t, goerrors.Is(err, errors.ErrOutOfBoundsRead))
}

func TestDigest(t *testing.T) {
	a := New("a.pid", []byte("same"))
	b := New("b.pid", []byte("same"))
	c := New("c.pid", []byte("different"))

	require.Equal(t, sha256.Sum256([]byte("same")), a.Digest())
	require.Equal(t, a.Digest(), b.Digest())
	require.NotEqual(t, a.Digest(), c.Digest())
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "tree.PID")
	require.NoError(t, os.WriteFile(good, []byte{1, 2, 3}, 0o644))
	b, err := Open(good)
	require.NoError(t, err)
	require.Equal(t, "tree.PID", b.Name())
	require.Equal(t, uint32(3), b.Len())

	wrong := filepath.Join(dir, "tree.png")
	require.NoError(t, os.WriteFile(wrong, []byte{1}, 0o644))
	_, err = Open(wrong)
	require.True(t, goerrors.Is(err, errors.ErrInvalidInput), "got %v", err)

	_, err = Open(filepath.Join(dir, "missing.pid"))
	require.Error(t, err)
	var e *errors.Error
	require.True(t, goerrors.As(err, &e))
	require.Equal(t, errors.PhaseLoad, e.Phase)
}

func TestReadHeader(t *testing.T) {
	data := []byte{
		0x07, 0x00, 0x00, 0x00, // id
		0xA1, 0x00, 0x00, 0x00, // flags: transparent|rle|palette
		0x10, 0x00, 0x00, 0x00, // width
		0x20, 0x00, 0x00, 0x00, // height
		0xFF, 0xFF, 0xFF, 0xFF, // user values
		0x02, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x80,
	}
	h, err := ReadHeader(New("h.pid", data))
	require.NoError(t, err)
	require.Equal(t, Header{
		ID:         7,
		Flags:      FlagTransparent | FlagRLE | FlagPalette,
		Width:      16,
		Height:     32,
		UserValues: [4]int32{-1, 2, 0, -2147483648},
	}, h)
	require.Equal(t, uint64(512), h.Pixels())
	require.True(t, h.Flags.Transparent())
	require.True(t, h.Flags.HasPalette())
	require.Equal(t, CompressionRLE, h.Flags.Compression())
	require.Equal(t, "transparent|rle|palette", h.Flags.String())
	require.Equal(t, "id=7 16x32 flags=transparent|rle|palette", h.String())

	_, err = ReadHeader(New("short.pid", data[:HeaderSize-1]))
	require.True(t, goerrors.Is(err, errors.ErrOutOfBoundsRead))
}

func TestFlags_String(t *testing.T) {
	require.Equal(t, "none", Flags(0).String())
	require.Equal(t, "video-memory|system-memory|flip-h|flip-v|lights", (FlagVideoMemory | FlagSystemMemory | FlagFlipH | FlagFlipV | FlagLights).String())
	require.Equal(t, CompressionDefault, Flags(0).Compression())
	require.Equal(t, "default", CompressionDefault.String())
	require.Equal(t, "rle", CompressionRLE.String())
}
