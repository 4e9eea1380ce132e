package bridge

import (
	"context"
	"sync"

	"github.com/wippyai/pidview"
)

// Allocation records one successful alloc call.
type Allocation struct {
	Offset uint32 // arena-relative
	Addr   uint32 // guest address
	Size   uint32
}

// Binding is the per-session state the host functions operate on.
type Binding struct {
	Source pidview.ByteSource
	Arena  pidview.Allocator
	Base   uint32

	mu     sync.Mutex
	fault  error
	allocs []Allocation
}

// NewBinding binds src and arena for one decode. base is the guest address
// at which arena offset zero lives.
func NewBinding(src pidview.ByteSource, arena pidview.Allocator, base uint32) *Binding {
	return &Binding{Source: src, Arena: arena, Base: base}
}

// Fault returns the first error raised by a host function, if any.
func (b *Binding) Fault() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fault
}

// Allocations returns the alloc calls made so far, in order.
func (b *Binding) Allocations() []Allocation {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Allocation, len(b.allocs))
	copy(out, b.allocs)
	return out
}

func (b *Binding) fail(err error) {
	b.mu.Lock()
	if b.fault == nil {
		b.fault = err
	}
	b.mu.Unlock()
}

func (b *Binding) record(a Allocation) {
	b.mu.Lock()
	b.allocs = append(b.allocs, a)
	b.mu.Unlock()
}

type bindingKey struct{}

// WithBinding returns a context carrying b for host calls made under it.
func WithBinding(ctx context.Context, b *Binding) context.Context {
	return context.WithValue(ctx, bindingKey{}, b)
}

// FromContext returns the binding attached to ctx.
func FromContext(ctx context.Context) (*Binding, bool) {
	b, ok := ctx.Value(bindingKey{}).(*Binding)
	return b, ok && b != nil
}
