package session

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/pidview/arena"
	"github.com/wippyai/pidview/bridge"
	"github.com/wippyai/pidview/errors"
	"github.com/wippyai/pidview/frame"
	"github.com/wippyai/pidview/present"
	"github.com/wippyai/pidview/source"
)

// Session is one load: a buffer bound to a guest instance, decoded at most
// once, then closed. A Session is NOT safe for concurrent use.
type Session struct {
	decoder *Decoder
	slot    *slot
	guard   *arena.Guard
	src     *source.Buffer
	binding *bridge.Binding
	frame   *frame.Frame
	fault   error
	log     *zap.Logger
	id      string
	state   State
	closed  bool
}

func newSession(d *Decoder, s *slot, src *source.Buffer) (*Session, error) {
	guard, err := s.arena.Acquire()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	sess := &Session{
		decoder: d,
		slot:    s,
		guard:   guard,
		src:     src,
		binding: bridge.NewBinding(src, s.arena, s.inst.HeapBase()),
		log: d.log.With(
			zap.String("session", id),
			zap.String("file", src.Name()),
		),
		id:    id,
		state: Idle,
	}
	if err := sess.transition(errors.PhaseBind, BufferBound); err != nil {
		guard.Release()
		return nil, err
	}
	sess.log.Debug("buffer bound", zap.Uint32("bytes", src.Len()))
	return sess, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Fault returns the error that moved the session to Faulted, if any.
func (s *Session) Fault() error {
	return s.fault
}

// Frame returns the decoded frame once the session reached FrameRead.
func (s *Session) Frame() *frame.Frame {
	return s.frame
}

// Allocations returns the arena allocations the guest made in this session.
func (s *Session) Allocations() []bridge.Allocation {
	return s.binding.Allocations()
}

// ArenaTop returns the arena's current top. It is zero after Close.
func (s *Session) ArenaTop() uint32 {
	return s.slot.arena.Top()
}

// HeapBase returns the guest address of arena offset zero.
func (s *Session) HeapBase() uint32 {
	return s.binding.Base
}

func (s *Session) transition(phase errors.Phase, to State) error {
	if err := checkTransition(phase, s.state, to); err != nil {
		return err
	}
	s.log.Debug("state", zap.Stringer("from", s.state), zap.Stringer("to", to))
	s.state = to
	return nil
}

// Decode runs the guest over the bound buffer and reads the frame it
// returns. Any of the four decode failures moves the session to Faulted;
// only Close leaves that state.
func (s *Session) Decode(ctx context.Context) (*frame.Frame, error) {
	if err := s.transition(errors.PhaseDecode, Decoding); err != nil {
		return nil, err
	}

	if c := s.decoder.cache; c != nil {
		if f, ok := c.get(s.src.Digest()); ok {
			s.log.Debug("frame cache hit")
			return s.read(f)
		}
	}

	ptr, err := s.slot.inst.Decode(ctx, s.binding)
	if err != nil {
		return nil, s.fail(err)
	}
	s.log.Debug("guest returned", zap.Uint32("ptr", ptr), zap.Uint32("top", s.slot.arena.Top()))

	f, err := frame.Read(s.slot.inst.Memory(), ptr)
	if err != nil {
		return nil, s.fail(err)
	}
	if c := s.decoder.cache; c != nil {
		c.put(s.src.Digest(), f)
	}
	return s.read(f)
}

func (s *Session) read(f *frame.Frame) (*frame.Frame, error) {
	if err := s.transition(errors.PhaseFrame, FrameRead); err != nil {
		return nil, err
	}
	s.frame = f
	s.log.Debug("frame read", zap.Uint32("width", f.Width), zap.Uint32("height", f.Height))
	return f, nil
}

func (s *Session) fail(err error) error {
	if terr := s.transition(errors.PhaseDecode, Faulted); terr != nil {
		return multierr.Append(err, terr)
	}
	s.fault = err
	s.log.Warn("decode failed", zap.Error(err), zap.Uint32("top", s.slot.arena.Top()))
	return err
}

// Present hands the decoded frame to sink.
func (s *Session) Present(ctx context.Context, sink present.Sink) error {
	if err := checkTransition(errors.PhasePresent, s.state, Presented); err != nil {
		return err
	}
	if err := sink.Present(ctx, s.frame); err != nil {
		return errors.Wrap(errors.PhasePresent, errors.KindIO, err, "sink rejected frame")
	}
	return s.transition(errors.PhasePresent, Presented)
}

// Close resets the arena, returns the instance to the decoder and moves
// the session to Idle. A faulted session's instance is discarded rather
// than reused. Calling Close more than once is a no-op.
func (s *Session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.guard.Release()

	var err error
	if s.state == Faulted {
		err = s.slot.inst.Close(ctx)
		s.slot.inst = nil
	}
	if s.state != Idle {
		s.log.Debug("state", zap.Stringer("from", s.state), zap.Stringer("to", Idle))
		s.state = Idle
	}
	s.decoder.slots <- s.slot
	return err
}
