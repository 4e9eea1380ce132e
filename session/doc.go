// Package session drives one image load from bound buffer to presented frame.
//
// # Lifecycle
//
//	Idle -> BufferBound -> Decoding -> FrameRead -> Presented -> Idle
//	                          |
//	                          +-> Faulted -> Idle (Close only)
//
// Decoding moves to Faulted on an out-of-bounds read, an allocation
// overflow, a frame overrun or a guest trap. Any other move not shown above
// fails with an invalid state error. Close is legal from every state and
// always resets the arena, so the next session starts at offset zero.
//
// # Concurrency
//
// A Decoder keeps a pool of guest instances, each with its own linear
// memory and arena. Sessions take an instance from the pool and give it
// back on Close; concurrent sessions never share mutable state. After a
// fault the instance is discarded and replaced on next use.
//
// # Example
//
//	dec, err := session.New(ctx, session.Config{})
//	if err != nil {
//		return err
//	}
//	defer dec.Close(ctx)
//
//	src, err := source.Open("tree.pid")
//	if err != nil {
//		return err
//	}
//	return dec.Load(ctx, src, present.NewPNG("tree.png"))
package session
