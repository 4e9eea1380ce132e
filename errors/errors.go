package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in a load the error occurred
type Phase string

const (
	PhaseLoad     Phase = "load"     // reading and validating the input file
	PhaseCompile  Phase = "compile"  // guest assembly and compilation
	PhaseBind     Phase = "bind"     // binding a file to a session
	PhaseBridge   Phase = "bridge"   // host accessor calls from the guest
	PhaseArena    Phase = "arena"    // arena allocation
	PhaseDecode   Phase = "decode"   // guest decode invocation
	PhaseFrame    Phase = "frame"    // output frame reading
	PhasePresent  Phase = "present"  // handing a frame to a sink
	PhaseRuntime  Phase = "runtime"  // runtime and instance lifecycle
	PhaseValidate Phase = "validate" // guest export/import validation
)

// Kind categorizes the error
type Kind string

const (
	KindOutOfBoundsRead    Kind = "out_of_bounds_read"
	KindAllocationOverflow Kind = "allocation_overflow"
	KindFrameOverrun       Kind = "frame_overrun"
	KindModuleTrap         Kind = "module_trap"
	KindInvalidInput       Kind = "invalid_input"
	KindInvalidData        Kind = "invalid_data"
	KindInvalidState       Kind = "invalid_state"
	KindNotInitialized     Kind = "not_initialized"
	KindNotFound           Kind = "not_found"
	KindInstantiation      Kind = "instantiation"
	KindUnsupported        Kind = "unsupported"
	KindIO                 Kind = "io"
)

// Sentinels for errors.Is. They carry no Phase, so they match any error of
// the same Kind regardless of where it was raised.
var (
	ErrOutOfBoundsRead    = &Error{Kind: KindOutOfBoundsRead}
	ErrAllocationOverflow = &Error{Kind: KindAllocationOverflow}
	ErrFrameOverrun       = &Error{Kind: KindFrameOverrun}
	ErrModuleTrap         = &Error{Kind: KindModuleTrap}
	ErrInvalidState       = &Error{Kind: KindInvalidState}
	ErrInvalidInput       = &Error{Kind: KindInvalidInput}
)

// Error is the structured error type used throughout pidview
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the operation path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the decode failure taxonomy

// OutOfBoundsRead creates an error for an accessor read past the input.
func OutOfBoundsRead(op string, offset uint32, size, length uint32) *Error {
	return &Error{
		Phase:  PhaseBridge,
		Kind:   KindOutOfBoundsRead,
		Path:   []string{op},
		Detail: fmt.Sprintf("read of %d byte(s) at offset %d exceeds input length %d", size, offset, length),
		Value:  offset,
	}
}

// AllocationOverflow creates an error for an arena allocation past capacity.
func AllocationOverflow(top, size, capacity uint32) *Error {
	return &Error{
		Phase:  PhaseArena,
		Kind:   KindAllocationOverflow,
		Detail: fmt.Sprintf("allocating %d bytes at top %d exceeds capacity %d", size, top, capacity),
		Value:  size,
	}
}

// FrameOverrun creates an error for a frame header that does not fit memory.
func FrameOverrun(ptr uint32, width, height uint32, memSize uint32) *Error {
	return &Error{
		Phase:  PhaseFrame,
		Kind:   KindFrameOverrun,
		Detail: fmt.Sprintf("frame %dx%d at 0x%x does not fit %d bytes of memory", width, height, ptr, memSize),
		Value:  ptr,
	}
}

// ModuleTrap wraps a guest-side abort.
func ModuleTrap(export string, cause error) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindModuleTrap,
		Path:   []string{export},
		Detail: "guest aborted",
		Cause:  cause,
	}
}

// InvalidState creates an error for an illegal lifecycle transition.
func InvalidState(phase Phase, from, to fmt.Stringer) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidState,
		Detail: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// NotInitialized creates a not-initialized error for a missing dependency
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindInstantiation,
		Detail: "instantiate guest",
		Cause:  cause,
	}
}

// Load creates a file loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// Fatal reports whether err belongs to the decode failure taxonomy: the
// four kinds that end a load attempt and require an arena reset.
func Fatal(err error) bool {
	return errors.Is(err, ErrOutOfBoundsRead) ||
		errors.Is(err, ErrAllocationOverflow) ||
		errors.Is(err, ErrFrameOverrun) ||
		errors.Is(err, ErrModuleTrap)
}

// UserMessage renders err as the failure line shown to a user in place of
// the image.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case KindOutOfBoundsRead:
			return "failed to decode image: file is truncated or malformed"
		case KindAllocationOverflow:
			return "failed to decode image: image needs more memory than allowed"
		case KindFrameOverrun:
			return "failed to decode image: decoder produced an invalid frame"
		case KindModuleTrap:
			return "failed to decode image: decoder aborted"
		}
	}
	return "failed to decode image: " + err.Error()
}
