// Package pidview decodes PID raster images inside an isolated WebAssembly
// module and hands the decoded RGBA8 frames to a presentation sink.
//
// The host and the decode module share one flat linear memory with no
// pointer safety between them. Everything in this module exists to keep that
// boundary honest: bounds-checked reads of the input file, a capacity-bounded
// bump arena for guest allocations, and a checked copy of the frame the guest
// hands back.
//
// # Architecture Overview
//
//	pidview/             Root package with ByteSource, Memory and Allocator interfaces
//	├── source/          Immutable PID file buffer and header inspection
//	├── arena/           Bump allocator with scoped release
//	├── bridge/          Host functions imported by the guest ("env" module)
//	├── guest/           The PID decode module, assembled to wasm at init
//	├── engine/          wazero runtime, guest compilation and invocation
//	├── frame/           Output frame reader and decoded frame type
//	├── session/         Per-load state machine and the Decoder facade
//	├── present/         Presentation sinks (canvas, PNG, terminal)
//	├── errors/          Structured error types
//	└── cmd/pidview/     CLI: terminal render, PNG export, interactive viewer
//
// # Quick Start
//
//	dec, err := session.New(ctx, session.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dec.Close(ctx)
//
//	src, err := source.Open("sprite.pid")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	f, err := dec.Decode(ctx, src)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(f.Width, f.Height, len(f.Pixels))
//
// # Host/Guest ABI
//
// The guest imports four functions from module "env":
//
//	read_u8(offset i32) -> i32
//	read_u32_le(offset i32) -> i32
//	read_i32_le(offset i32) -> i32
//	alloc(size i32) -> i32
//
// and exports "decode" () -> i32, its "memory", and optionally
// "__heap_base". The pointer returned by decode addresses a frame laid out
// as width (u32 LE), height (u32 LE), then width*height*4 bytes of RGBA8.
//
// # Thread Safety
//
// Decoder is safe for concurrent use. Each running session holds its own
// guest instance and arena from the decoder's pool, and its own file
// binding. Session is NOT thread-safe.
//
// # Memory Model
//
// Guest memory only grows. Arena space is reclaimed by resetting the whole
// arena when a session ends; frames are always copied out before that.
package pidview
