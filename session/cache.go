package session

import (
	"crypto/sha256"
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/klauspost/compress/zstd"

	"github.com/wippyai/pidview/frame"
)

// frameCache keeps recently decoded frames keyed by the digest of their
// input. Decoding is deterministic, so equal input bytes always yield an
// equal frame. Payloads are stored zstd-compressed.
type frameCache struct {
	mu  sync.Mutex
	lru *lru.Cache
	enc *zstd.Encoder
	dec *zstd.Decoder
}

type cachedFrame struct {
	payload []byte
	width   uint32
	height  uint32
}

func newFrameCache(entries int) (*frameCache, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &frameCache{
		lru: lru.New(entries),
		enc: enc,
		dec: dec,
	}, nil
}

func (c *frameCache) get(key [sha256.Size]byte) (*frame.Frame, bool) {
	c.mu.Lock()
	v, ok := c.lru.Get(key)
	c.mu.Unlock()
	if !ok {
		return nil, false
	}

	cf := v.(*cachedFrame)
	pixels, err := c.dec.DecodeAll(cf.payload, make([]byte, 0, int(cf.width)*int(cf.height)*4))
	if err != nil {
		c.mu.Lock()
		c.lru.Remove(key)
		c.mu.Unlock()
		return nil, false
	}
	return &frame.Frame{Width: cf.width, Height: cf.height, Pixels: pixels}, true
}

func (c *frameCache) put(key [sha256.Size]byte, f *frame.Frame) {
	cf := &cachedFrame{
		payload: c.enc.EncodeAll(f.Pixels, nil),
		width:   f.Width,
		height:  f.Height,
	}
	c.mu.Lock()
	c.lru.Add(key, cf)
	c.mu.Unlock()
}

func (c *frameCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *frameCache) close() {
	c.enc.Close()
	c.dec.Close()
}
