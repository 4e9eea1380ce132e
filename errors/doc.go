// Package errors provides structured error types for pidview.
//
// Errors are categorized by Phase (where in a load the error occurred) and
// Kind (error category). Four kinds form the decode failure taxonomy and end
// the current load attempt:
//
//	out_of_bounds_read   an accessor read fell outside the input file
//	allocation_overflow  an arena allocation would exceed capacity
//	frame_overrun        the returned frame does not fit guest memory
//	module_trap          the guest aborted
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBridge, errors.KindOutOfBoundsRead).
//		Path("read_u32_le").
//		Value(offset).
//		Detail("offset %d past end", offset).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.AllocationOverflow(top, size, capacity)
//	err := errors.ModuleTrap("decode", cause)
//
// Sentinels such as ErrFrameOverrun match any error of the same Kind:
//
//	if errors.Is(err, errors.ErrFrameOverrun) { ... }
package errors
