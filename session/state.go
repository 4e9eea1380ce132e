package session

import (
	"github.com/wippyai/pidview/errors"
)

// State is the lifecycle position of a Session.
type State int

const (
	Idle State = iota
	BufferBound
	Decoding
	FrameRead
	Presented
	Faulted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case BufferBound:
		return "buffer-bound"
	case Decoding:
		return "decoding"
	case FrameRead:
		return "frame-read"
	case Presented:
		return "presented"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// transitions lists the legal moves other than Close, which returns any
// state to Idle.
var transitions = map[State][]State{
	Idle:        {BufferBound},
	BufferBound: {Decoding},
	Decoding:    {FrameRead, Faulted},
	FrameRead:   {Presented},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func checkTransition(phase errors.Phase, from, to State) error {
	if !canTransition(from, to) {
		return errors.InvalidState(phase, from, to)
	}
	return nil
}
