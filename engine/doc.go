// Package engine provides the wazero-backed memory used by the in-process
// host runtime.
//
// The host keeps string payloads in the linear memory of a memory-only
// WebAssembly module, so that decoded characters handed to native code can
// be either a view into runtime memory or a private copy, the same choice a
// real managed runtime makes.
//
// # Arena
//
//	arena, err := engine.NewArena(ctx, &engine.Config{MemoryLimitPages: 64})
//	defer arena.Close(ctx)
//
//	ptr, err := arena.Alloc(uint32(len(b)))
//	err = arena.Write(ptr, b)
//	view, err := arena.Read(ptr, uint32(len(b))) // aliases linear memory
//	arena.Free(ptr)
//
// Blocks are 8-byte aligned and freed blocks are reused for requests of the
// same rounded size. Offset 0 is never handed out. Memory grows a page at a
// time up to MemoryLimitPages and never shrinks.
package engine
