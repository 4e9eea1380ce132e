// Package present hands decoded frames to whatever displays them.
//
// A load ends in exactly one call on its Sink: Present with the decoded
// frame, or Fail with the error that stopped the decode. Sinks never see a
// partially decoded frame.
package present

import (
	"context"
	"sync"

	"github.com/wippyai/pidview/errors"
	"github.com/wippyai/pidview/frame"
)

// Sink receives the outcome of a load.
type Sink interface {
	// Present displays f. The sink may keep f; it is not shared with the
	// decoder.
	Present(ctx context.Context, f *frame.Frame) error

	// Fail reports that the load produced no image.
	Fail(ctx context.Context, err error)
}

// Canvas is an in-memory drawing surface. It resizes itself to each frame
// it is given and copies the pixels verbatim.
type Canvas struct {
	mu      sync.Mutex
	width   uint32
	height  uint32
	pixels  []byte
	message string
}

var _ Sink = (*Canvas)(nil)

func NewCanvas() *Canvas {
	return &Canvas{}
}

func (c *Canvas) Present(_ context.Context, f *frame.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cap(c.pixels) < len(f.Pixels) {
		c.pixels = make([]byte, len(f.Pixels))
	}
	c.pixels = c.pixels[:len(f.Pixels)]
	copy(c.pixels, f.Pixels)
	c.width, c.height = f.Width, f.Height
	c.message = ""
	return nil
}

// Fail clears the surface and records the message to show in its place.
func (c *Canvas) Fail(_ context.Context, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.width, c.height = 0, 0
	c.pixels = c.pixels[:0]
	c.message = errors.UserMessage(err)
}

// Size returns the current surface dimensions.
func (c *Canvas) Size() (width, height uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// Snapshot returns a copy of the surface, or nil if nothing is shown.
func (c *Canvas) Snapshot() *frame.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.width == 0 || c.height == 0 {
		return nil
	}
	pixels := make([]byte, len(c.pixels))
	copy(pixels, c.pixels)
	return &frame.Frame{Width: c.width, Height: c.height, Pixels: pixels}
}

// Message returns the failure text shown instead of an image, if any.
func (c *Canvas) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}
