// Package memsys provides the engine's pluggable memory-timing backend.
// The default FlatMemorySystem charges the fixed LW/SW latency from
// timing/latency.Table. An optional CachedMemorySystem wraps an
// akita/v4/mem/cache set-associative directory to charge a cheaper hit
// latency and a more expensive miss latency instead — an opt-in knob
// enabled only via engine.WithCachedMemory.
package memsys

import (
	"github.com/sarchlab/tomasulo/core"
	"github.com/sarchlab/tomasulo/isa"
	"github.com/sarchlab/tomasulo/timing/latency"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// System is how the engine's LSB asks "how many cycles does this memory
// operation take, and what's the value". Read/Write always go straight to
// the backing core.Memory; only Latency varies by implementation.
type System interface {
	Latency(op isa.Op, addr uint64) uint64
	Read(addr uint64) int64
	Write(addr uint64, value int64)
}

// FlatMemorySystem is the default: every LW/SW takes the latency table's
// fixed cycle count regardless of address.
type FlatMemorySystem struct {
	mem   *core.Memory
	table *latency.Table
}

// NewFlat wraps mem with table's fixed per-opcode latencies.
func NewFlat(mem *core.Memory, table *latency.Table) *FlatMemorySystem {
	return &FlatMemorySystem{mem: mem, table: table}
}

// Latency returns table.GetLatency(op), ignoring addr.
func (f *FlatMemorySystem) Latency(op isa.Op, addr uint64) uint64 {
	return f.table.GetLatency(op)
}

// Read returns mem.Read(addr).
func (f *FlatMemorySystem) Read(addr uint64) int64 { return f.mem.Read(addr) }

// Write sets mem[addr] = value.
func (f *FlatMemorySystem) Write(addr uint64, value int64) { f.mem.Write(addr, value) }

// CacheConfig sizes the directory and its hit/miss latencies.
type CacheConfig struct {
	NumSets     int
	Associativity int
	BlockSize   int // bytes per block; word-addressed, so >=8 to hold one word
	HitLatency  uint64
	MissLatency uint64
}

// DefaultCacheConfig returns a small 4-set, 2-way, 32-byte-block cache with
// a 1-cycle hit and a 6-cycle miss.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		NumSets:       4,
		Associativity: 2,
		BlockSize:     32,
		HitLatency:    1,
		MissLatency:   6,
	}
}

// CachedMemorySystem charges LW/SW the directory's hit or miss latency
// instead of the flat table value. BEQ/NOP still fall back to the flat
// table, since they are not memory operations. Data still lives entirely
// in the backing core.Memory; the directory only tracks which blocks are
// resident, separating tag tracking (akitacache.DirectoryImpl) from the
// data array.
type CachedMemorySystem struct {
	mem       *core.Memory
	directory *akitacache.DirectoryImpl
	table     *latency.Table
	cfg       CacheConfig
}

// NewCached builds a CachedMemorySystem over mem, falling back to table
// for non-memory opcodes.
func NewCached(mem *core.Memory, table *latency.Table, cfg CacheConfig) *CachedMemorySystem {
	return &CachedMemorySystem{
		mem:       mem,
		directory: akitacache.NewDirectory(cfg.NumSets, cfg.Associativity, cfg.BlockSize, akitacache.NewLRUVictimFinder()),
		table:     table,
		cfg:       cfg,
	}
}

// Latency looks up addr's block in the directory, returning HitLatency on
// a hit (after promoting the block's LRU position) or MissLatency on a
// miss (after installing the block into a victim way).
func (c *CachedMemorySystem) Latency(op isa.Op, addr uint64) uint64 {
	if op != isa.OpLW && op != isa.OpSW {
		return c.table.GetLatency(op)
	}

	blockAddr := (addr / uint64(c.cfg.BlockSize)) * uint64(c.cfg.BlockSize)

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.directory.Visit(block)
		return c.cfg.HitLatency
	}

	victim := c.directory.FindVictim(blockAddr)
	if victim != nil {
		victim.Tag = blockAddr
		victim.IsValid = true
		c.directory.Visit(victim)
	}
	return c.cfg.MissLatency
}

// Read returns mem.Read(addr). Cache residency only affects Latency.
func (c *CachedMemorySystem) Read(addr uint64) int64 { return c.mem.Read(addr) }

// Write sets mem[addr] = value. Cache residency only affects Latency.
func (c *CachedMemorySystem) Write(addr uint64, value int64) { c.mem.Write(addr, value) }
