// Package pidtest builds PID byte streams and small hostile guest modules
// for tests.
package pidtest

import (
	"encoding/binary"

	"github.com/wippyai/pidview/source"
)

// Image describes a PID file to synthesize. Data is the already-packed
// pixel stream; use EncodeDefault or EncodeRLE to produce it.
type Image struct {
	ID         int32
	Flags      source.Flags
	Width      uint32
	Height     uint32
	UserValues [4]int32
	Data       []byte
	Palette    []byte
}

// Bytes serializes the image. The palette is appended only when
// FlagPalette is set.
func (img Image) Bytes() []byte {
	out := make([]byte, source.HeaderSize, source.HeaderSize+len(img.Data)+len(img.Palette))
	binary.LittleEndian.PutUint32(out[0:], uint32(img.ID))
	binary.LittleEndian.PutUint32(out[4:], uint32(img.Flags))
	binary.LittleEndian.PutUint32(out[8:], img.Width)
	binary.LittleEndian.PutUint32(out[12:], img.Height)
	for i, v := range img.UserValues {
		binary.LittleEndian.PutUint32(out[16+i*4:], uint32(v))
	}
	out = append(out, img.Data...)
	if img.Flags.HasPalette() {
		out = append(out, img.Palette...)
	}
	return out
}

// New returns a palettized image of the given indices using default packing.
func New(width, height uint32, indices []byte) Image {
	return Image{
		Flags:   source.FlagPalette,
		Width:   width,
		Height:  height,
		Data:    EncodeDefault(indices),
		Palette: GrayPalette(),
	}
}

// Gradient returns width*height indices that vary along both axes.
func Gradient(width, height uint32) []byte {
	out := make([]byte, 0, width*height)
	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			out = append(out, byte(x*7+y*13))
		}
	}
	return out
}

// EncodeDefault packs indices with the default scheme: runs of up to 63
// equal bytes become (192+n, v); lone values above 192 are escaped as a
// run of one.
func EncodeDefault(indices []byte) []byte {
	var out []byte
	for i := 0; i < len(indices); {
		v := indices[i]
		n := 1
		for i+n < len(indices) && indices[i+n] == v && n < 63 {
			n++
		}
		switch {
		case n > 1 || v > 192:
			out = append(out, byte(192+n), v)
		default:
			out = append(out, v)
		}
		i += n
	}
	return out
}

// EncodeRLE packs indices with the RLE scheme: runs of up to 127 zeros
// become 128+n, everything else is emitted as literal runs of up to 128
// bytes.
func EncodeRLE(indices []byte) []byte {
	var out []byte
	for i := 0; i < len(indices); {
		if indices[i] == 0 {
			n := 1
			for i+n < len(indices) && indices[i+n] == 0 && n < 127 {
				n++
			}
			out = append(out, byte(128+n))
			i += n
			continue
		}
		n := 1
		for i+n < len(indices) && indices[i+n] != 0 && n < 128 {
			n++
		}
		out = append(out, byte(n))
		out = append(out, indices[i:i+n]...)
		i += n
	}
	return out
}

// GrayPalette maps index i to (i, i, i).
func GrayPalette() []byte {
	p := make([]byte, 256*3)
	for i := 0; i < 256; i++ {
		p[i*3], p[i*3+1], p[i*3+2] = byte(i), byte(i), byte(i)
	}
	return p
}

// Expected computes the RGBA8 pixels the guest should produce for indices.
// A nil palette yields transparent black.
func Expected(indices, palette []byte, transparent bool) []byte {
	out := make([]byte, len(indices)*4)
	if palette == nil {
		return out
	}
	for i, c := range indices {
		if transparent && c == 0 {
			continue
		}
		copy(out[i*4:], palette[int(c)*3:int(c)*3+3])
		out[i*4+3] = 0xFF
	}
	return out
}
