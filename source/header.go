package source

import (
	"fmt"
	"strings"

	"github.com/wippyai/pidview"
)

// HeaderSize is the fixed size of a PID header in bytes.
const HeaderSize = 32

// Flags is the PID image flag word.
type Flags uint32

const (
	FlagTransparent  Flags = 0x01
	FlagVideoMemory  Flags = 0x02
	FlagSystemMemory Flags = 0x04
	FlagFlipH        Flags = 0x08
	FlagFlipV        Flags = 0x10
	FlagRLE          Flags = 0x20
	FlagLights       Flags = 0x40
	FlagPalette      Flags = 0x80
)

var flagNames = []struct {
	name string
	flag Flags
}{
	{"transparent", FlagTransparent},
	{"video-memory", FlagVideoMemory},
	{"system-memory", FlagSystemMemory},
	{"flip-h", FlagFlipH},
	{"flip-v", FlagFlipV},
	{"rle", FlagRLE},
	{"lights", FlagLights},
	{"palette", FlagPalette},
}

func (f Flags) Has(flag Flags) bool { return f&flag != 0 }

func (f Flags) Transparent() bool { return f.Has(FlagTransparent) }
func (f Flags) HasPalette() bool  { return f.Has(FlagPalette) }

// Compression returns the pixel compression scheme selected by the flags.
func (f Flags) Compression() Compression {
	if f.Has(FlagRLE) {
		return CompressionRLE
	}
	return CompressionDefault
}

func (f Flags) String() string {
	var names []string
	for _, n := range flagNames {
		if f.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Compression identifies how pixel indices are packed.
type Compression int

const (
	CompressionDefault Compression = iota
	CompressionRLE
)

func (c Compression) String() string {
	if c == CompressionRLE {
		return "rle"
	}
	return "default"
}

// Header is the fixed leading record of a PID file.
type Header struct {
	ID         int32
	Flags      Flags
	Width      uint32
	Height     uint32
	UserValues [4]int32
}

// Pixels returns width*height without overflow.
func (h Header) Pixels() uint64 {
	return uint64(h.Width) * uint64(h.Height)
}

func (h Header) String() string {
	return fmt.Sprintf("id=%d %dx%d flags=%s", h.ID, h.Width, h.Height, h.Flags)
}

// ReadHeader reads the PID header through src's bounds-checked accessors.
// It only inspects metadata; pixel decoding happens in the guest.
func ReadHeader(src pidview.ByteSource) (Header, error) {
	var h Header
	var err error

	if h.ID, err = src.ReadI32LE(0); err != nil {
		return Header{}, err
	}
	flags, err := src.ReadU32LE(4)
	if err != nil {
		return Header{}, err
	}
	h.Flags = Flags(flags)
	if h.Width, err = src.ReadU32LE(8); err != nil {
		return Header{}, err
	}
	if h.Height, err = src.ReadU32LE(12); err != nil {
		return Header{}, err
	}
	for i := range h.UserValues {
		if h.UserValues[i], err = src.ReadI32LE(16 + uint32(i)*4); err != nil {
			return Header{}, err
		}
	}
	return h, nil
}
