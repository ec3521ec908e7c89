package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/hostref/errors"
)

const (
	pageSize  = 65536
	alignment = 8

	// DefaultMemoryLimitPages caps the arena at 16MB.
	DefaultMemoryLimitPages = 256
)

// Config holds configuration for arena creation
type Config struct {
	// MemoryLimitPages sets the maximum arena size in pages (64KB each).
	// 0 means DefaultMemoryLimitPages.
	MemoryLimitPages uint32
}

// Arena is a block allocator over the linear memory of a wazero module.
// Blocks are never moved or rewritten while allocated, so a view returned by
// Read keeps its bytes until the block is freed, even if memory grows.
type Arena struct {
	runtime wazero.Runtime
	module  api.Module
	mem     api.Memory
	blocks  map[uint32]uint32   // ptr -> rounded size
	free    map[uint32][]uint32 // rounded size -> ptrs
	mu      sync.Mutex
	next    uint32
	inUse   uint32
	limit   uint32
}

// NewArena instantiates a memory-only module and returns an arena over its memory.
func NewArena(ctx context.Context, cfg *Config) (*Arena, error) {
	limit := uint32(DefaultMemoryLimitPages)
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		limit = cfg.MemoryLimitPages
	}

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithMemoryLimitPages(limit))

	compiled, err := rt.CompileModule(ctx, memoryModule(1, limit))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseMemory, errors.KindAllocation, err, "compile heap module")
	}

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("heap"))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseMemory, errors.KindAllocation, err, "instantiate heap module")
	}

	mem := mod.ExportedMemory("memory")
	if mem == nil {
		_ = rt.Close(ctx)
		return nil, errors.NotFound(errors.PhaseMemory, "export", "memory")
	}

	return &Arena{
		runtime: rt,
		module:  mod,
		mem:     mem,
		blocks:  make(map[uint32]uint32),
		free:    make(map[uint32][]uint32),
		next:    alignment, // offset 0 is never handed out
		limit:   limit,
	}, nil
}

// Alloc reserves size bytes and returns their offset. Zero-sized requests
// still get a distinct non-zero offset.
func (a *Arena) Alloc(size uint32) (uint32, error) {
	rounded := roundUp(size)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.mem == nil {
		return 0, errors.InvalidInput(errors.PhaseMemory, "arena closed")
	}

	if ptrs := a.free[rounded]; len(ptrs) > 0 {
		ptr := ptrs[len(ptrs)-1]
		a.free[rounded] = ptrs[:len(ptrs)-1]
		a.blocks[ptr] = rounded
		a.inUse += rounded
		return ptr, nil
	}

	end := uint64(a.next) + uint64(rounded)
	if end > uint64(a.mem.Size()) {
		need := (end - uint64(a.mem.Size()) + pageSize - 1) / pageSize
		if _, ok := a.mem.Grow(uint32(need)); !ok {
			Logger().Warn("arena exhausted",
				zap.Uint32("size", size),
				zap.Uint32("in_use", a.inUse),
				zap.Uint32("limit_pages", a.limit))
			return 0, errors.AllocationFailed(size, fmt.Errorf("memory limit of %d pages reached", a.limit))
		}
	}

	ptr := a.next
	a.next = uint32(end)
	a.blocks[ptr] = rounded
	a.inUse += rounded
	return ptr, nil
}

// Free returns a block to the arena. Unknown offsets are ignored.
func (a *Arena) Free(ptr uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	size, ok := a.blocks[ptr]
	if !ok {
		if ptr != 0 {
			Logger().Debug("free of unknown block", zap.Uint32("ptr", ptr))
		}
		return
	}
	delete(a.blocks, ptr)
	a.free[size] = append(a.free[size], ptr)
	a.inUse -= size
}

// Read returns a view of length bytes at offset. The view aliases linear
// memory; it is not a copy.
func (a *Arena) Read(offset, length uint32) ([]byte, error) {
	a.mu.Lock()
	mem := a.mem
	a.mu.Unlock()
	if mem == nil {
		return nil, errors.InvalidInput(errors.PhaseMemory, "arena closed")
	}

	data, ok := mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseMemory, "Read", int(offset)+int(length), int(mem.Size()))
	}
	return data, nil
}

// Write copies data into linear memory at offset.
func (a *Arena) Write(offset uint32, data []byte) error {
	a.mu.Lock()
	mem := a.mem
	a.mu.Unlock()
	if mem == nil {
		return errors.InvalidInput(errors.PhaseMemory, "arena closed")
	}

	if !mem.Write(offset, data) {
		return errors.OutOfBounds(errors.PhaseMemory, "Write", int(offset)+len(data), int(mem.Size()))
	}
	return nil
}

// Size returns the current size of linear memory in bytes.
func (a *Arena) Size() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mem == nil {
		return 0
	}
	return a.mem.Size()
}

// InUse returns the number of bytes held by live blocks.
func (a *Arena) InUse() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inUse
}

// Close releases the wazero runtime backing the arena.
func (a *Arena) Close(ctx context.Context) error {
	a.mu.Lock()
	rt := a.runtime
	a.runtime = nil
	a.module = nil
	a.mem = nil
	a.blocks = nil
	a.free = nil
	a.mu.Unlock()

	if rt == nil {
		return nil
	}
	return rt.Close(ctx)
}

func roundUp(size uint32) uint32 {
	if size == 0 {
		return alignment
	}
	return (size + alignment - 1) &^ (alignment - 1)
}

// memoryModule encodes a module whose only content is an exported memory
// with the given page limits.
func memoryModule(minPages, maxPages uint32) []byte {
	limits := append([]byte{0x01}, leb128(minPages)...)
	limits = append(limits, leb128(maxPages)...)

	memSec := append([]byte{0x01}, limits...) // one memory
	exportSec := []byte{0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00}

	bin := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	bin = append(bin, 0x05)
	bin = append(bin, leb128(uint32(len(memSec)))...)
	bin = append(bin, memSec...)
	bin = append(bin, 0x07)
	bin = append(bin, leb128(uint32(len(exportSec)))...)
	bin = append(bin, exportSec...)
	return bin
}

func leb128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}
