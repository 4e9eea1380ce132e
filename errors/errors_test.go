package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

type state string

func (s state) String() string { return string(s) }

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseBridge,
				Kind:   KindOutOfBoundsRead,
				Path:   []string{"env", "read_u8"},
				Detail: "offset 9 past end",
			},
			contains: []string{"[bridge]", "out_of_bounds_read", "env.read_u8", "offset 9 past end"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseFrame,
				Kind:  KindFrameOverrun,
			},
			contains: []string{"[frame]", "frame_overrun"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseDecode,
				Kind:   KindModuleTrap,
				Detail: "guest aborted",
				Cause:  errors.New("unreachable"),
			},
			contains: []string{"[decode]", "module_trap", "guest aborted", "caused by", "unreachable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseDecode,
		Kind:  KindModuleTrap,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not reach cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseArena,
		Kind:  KindAllocationOverflow,
	}

	if !err.Is(&Error{Phase: PhaseArena, Kind: KindAllocationOverflow}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseBridge, Kind: KindAllocationOverflow}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseArena, Kind: KindFrameOverrun}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, ErrAllocationOverflow) {
		t.Error("sentinel without phase should match on kind")
	}
	if err.Is(errors.New("other")) {
		t.Error("Is should not match foreign errors")
	}
}

func TestSentinels_ThroughWrapping(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
		name     string
	}{
		{OutOfBoundsRead("read_u8", 4, 1, 4), ErrOutOfBoundsRead, "oob"},
		{AllocationOverflow(10, 20, 16), ErrAllocationOverflow, "alloc"},
		{FrameOverrun(8, 0xFFFFFFFF, 1, 65536), ErrFrameOverrun, "overrun"},
		{ModuleTrap("decode", errors.New("boom")), ErrModuleTrap, "trap"},
		{InvalidState(PhaseRuntime, state("idle"), state("decoding")), ErrInvalidState, "state"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("load sprite.pid: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", wrapped, tt.sentinel)
			}
		})
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("short file")
	err := New(PhaseBridge, KindOutOfBoundsRead).
		Path("env", "read_i32_le").
		Value(uint32(12)).
		Cause(cause).
		Detail("offset %d", 12).
		Build()

	if err.Phase != PhaseBridge || err.Kind != KindOutOfBoundsRead {
		t.Errorf("unexpected phase/kind: %s/%s", err.Phase, err.Kind)
	}
	if err.Value.(uint32) != 12 {
		t.Errorf("Value = %v", err.Value)
	}
	if err.Detail != "offset 12" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not preserved")
	}

	plain := New(PhaseFrame, KindFrameOverrun).Detail("no args").Build()
	if plain.Detail != "no args" {
		t.Errorf("Detail = %q", plain.Detail)
	}
}

func TestConstructors(t *testing.T) {
	oob := OutOfBoundsRead("read_u32_le", 2, 4, 5)
	if !strings.Contains(oob.Error(), "offset 2 exceeds input length 5") {
		t.Errorf("unexpected message: %s", oob)
	}

	ov := AllocationOverflow(100, 50, 120)
	if !strings.Contains(ov.Error(), "capacity 120") {
		t.Errorf("unexpected message: %s", ov)
	}

	fo := FrameOverrun(0x400, 16, 16, 65536)
	if !strings.Contains(fo.Error(), "16x16 at 0x400") {
		t.Errorf("unexpected message: %s", fo)
	}

	nf := NotFound(PhaseValidate, "export", "decode")
	if nf.Kind != KindNotFound || !strings.Contains(nf.Error(), `"decode"`) {
		t.Errorf("unexpected error: %s", nf)
	}

	ni := NotInitialized(PhaseBridge, "binding")
	if !strings.Contains(ni.Error(), "binding not initialized") {
		t.Errorf("unexpected error: %s", ni)
	}

	if Instantiation(errors.New("x")).Kind != KindInstantiation {
		t.Error("Instantiation kind")
	}
	if Load("read", errors.New("x")).Phase != PhaseLoad {
		t.Error("Load phase")
	}
	if Unsupported(PhaseCompile, "simd").Kind != KindUnsupported {
		t.Error("Unsupported kind")
	}
	if InvalidInput(PhaseLoad, "ext").Kind != KindInvalidInput {
		t.Error("InvalidInput kind")
	}
	if Wrap(PhaseRuntime, KindInvalidData, errors.New("x"), "d").Cause == nil {
		t.Error("Wrap lost cause")
	}
}

func TestFatal(t *testing.T) {
	if !Fatal(fmt.Errorf("x: %w", FrameOverrun(0, 0, 0, 0))) {
		t.Error("frame overrun should be fatal")
	}
	if Fatal(InvalidInput(PhaseLoad, "bad extension")) {
		t.Error("invalid input is not a decode failure")
	}
	if Fatal(nil) {
		t.Error("nil is not fatal")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{OutOfBoundsRead("read_u8", 0, 1, 0), "failed to decode image: file is truncated or malformed"},
		{fmt.Errorf("wrapped: %w", ModuleTrap("decode", nil)), "failed to decode image: decoder aborted"},
		{errors.New("disk on fire"), "failed to decode image: disk on fire"},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
