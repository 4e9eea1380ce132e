// Package frame reads decoded frames out of guest memory.
//
// A frame at pointer p is laid out as:
//
//	[p,   p+4)          width  u32 LE
//	[p+4, p+8)          height u32 LE
//	[p+8, p+8+w*h*4)    RGBA8 pixels, row-major, top to bottom, no padding
package frame

import (
	"fmt"
	"image"
	"image/color"

	"github.com/wippyai/pidview"
	"github.com/wippyai/pidview/errors"
)

// Frame is a decoded image detached from guest memory.
// Invariant: len(Pixels) == Width*Height*4.
type Frame struct {
	Pixels []byte
	Width  uint32
	Height uint32
}

// Read validates the frame header at ptr and copies the frame out of mem.
// Nothing is allocated for the payload until the header has been checked
// against the memory size.
func Read(mem pidview.Memory, ptr uint32) (*Frame, error) {
	size := mem.Size()
	if uint64(ptr)+pidview.FrameHeaderSize > uint64(size) {
		return nil, errors.FrameOverrun(ptr, 0, 0, size)
	}

	width, err := mem.ReadU32(ptr)
	if err != nil {
		return nil, overrun(ptr, 0, 0, size, err)
	}
	height, err := mem.ReadU32(ptr + 4)
	if err != nil {
		return nil, overrun(ptr, width, 0, size, err)
	}
	if width == 0 || height == 0 {
		return nil, errors.FrameOverrun(ptr, width, height, size)
	}

	payload := uint64(width) * uint64(height) * 4
	if uint64(ptr)+pidview.FrameHeaderSize+payload > uint64(size) {
		return nil, errors.FrameOverrun(ptr, width, height, size)
	}

	view, err := mem.Read(ptr+pidview.FrameHeaderSize, uint32(payload))
	if err != nil {
		return nil, overrun(ptr, width, height, size, err)
	}
	pixels := make([]byte, len(view))
	copy(pixels, view)

	return &Frame{Width: width, Height: height, Pixels: pixels}, nil
}

func overrun(ptr, width, height, size uint32, cause error) error {
	e := errors.FrameOverrun(ptr, width, height, size)
	e.Cause = cause
	return e
}

// Len returns the payload size in bytes.
func (f *Frame) Len() int {
	return len(f.Pixels)
}

// At returns the pixel at (x, y).
func (f *Frame) At(x, y uint32) color.NRGBA {
	if x >= f.Width || y >= f.Height {
		return color.NRGBA{}
	}
	i := (uint64(y)*uint64(f.Width) + uint64(x)) * 4
	p := f.Pixels[i : i+4 : i+4]
	return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

// Image returns the frame as an image.NRGBA. Pixels are copied verbatim;
// the guest emits straight (non-premultiplied) alpha.
func (f *Frame) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, int(f.Width), int(f.Height)))
	copy(img.Pix, f.Pixels)
	return img
}

// Clone returns a deep copy of f.
func (f *Frame) Clone() *Frame {
	pixels := make([]byte, len(f.Pixels))
	copy(pixels, f.Pixels)
	return &Frame{Width: f.Width, Height: f.Height, Pixels: pixels}
}

func (f *Frame) String() string {
	return fmt.Sprintf("%dx%d frame (%d bytes)", f.Width, f.Height, len(f.Pixels))
}
