// Package arena implements the forward-only allocator that supplies working
// and output memory to the guest.
//
// Offsets are relative to the start of the arena region; the bridge adds the
// guest's heap base to turn them into guest addresses. Regions are never
// freed individually. Reset releases every region at once and invalidates
// all previously returned offsets.
package arena

import (
	"sync"

	"github.com/wippyai/pidview/errors"
)

// Arena is a bump allocator over [0, capacity).
// Invariant: 0 <= top <= capacity.
type Arena struct {
	mu       sync.Mutex
	top      uint32
	capacity uint32
	held     bool
}

// New returns an empty arena of the given capacity in bytes.
func New(capacity uint32) *Arena {
	return &Arena{capacity: capacity}
}

// Alloc reserves size bytes and returns the offset of the region, which is
// the top before the call. Zero-size requests return the current top.
// A request that does not fit fails with AllocationOverflow and leaves top
// unchanged.
func (a *Arena) Alloc(size uint32) (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if uint64(a.top)+uint64(size) > uint64(a.capacity) {
		return 0, errors.AllocationOverflow(a.top, size, a.capacity)
	}
	off := a.top
	a.top += size
	return off, nil
}

// Reset releases all regions.
func (a *Arena) Reset() {
	a.mu.Lock()
	a.top = 0
	a.mu.Unlock()
}

// Top returns the offset of the next allocation.
func (a *Arena) Top() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.top
}

// Capacity returns the arena size in bytes.
func (a *Arena) Capacity() uint32 {
	return a.capacity
}

// Remaining returns how many bytes can still be allocated.
func (a *Arena) Remaining() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.capacity - a.top
}

// Acquire marks the arena as held by one session. The returned Guard resets
// the arena when released. Acquiring a held arena fails with InvalidState.
func (a *Arena) Acquire() (*Guard, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.held {
		return nil, errors.New(errors.PhaseArena, errors.KindInvalidState).
			Detail("arena already held by another session").
			Build()
	}
	a.held = true
	return &Guard{arena: a}, nil
}

// Held reports whether a Guard is outstanding.
func (a *Arena) Held() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.held
}

// Guard scopes a session's use of an arena.
type Guard struct {
	arena *Arena
	once  sync.Once
}

// Arena returns the guarded arena.
func (g *Guard) Arena() *Arena {
	return g.arena
}

// Release resets the arena and returns it for the next session.
// Calling Release more than once has no further effect.
func (g *Guard) Release() {
	g.once.Do(func() {
		a := g.arena
		a.mu.Lock()
		a.top = 0
		a.held = false
		a.mu.Unlock()
	})
}
