// Package lsb implements the Load/Store Buffer: a fixed-size array of
// memory-operand-waiting slots with per-slot latency countdown, used for
// LW and SW. There is no address-based load/store disambiguation —
// entries do not check each other's addresses.
package lsb

import "github.com/sarchlab/tomasulo/isa"

// NoTag marks the store-value operand as already resolved.
const NoTag = -1

// Entry is one load/store buffer slot.
type Entry struct {
	Busy    bool
	Op      isa.Op // OpLW or OpSW
	Addr    uint64
	Vt      int64 // store value (SW only)
	Qt      int   // ROB id producing Vt, or NoTag
	ROBID   int
	PC      uint64
	RemainingCycles uint64
}

func (e *Entry) clear() {
	*e = Entry{Qt: NoTag, ROBID: -1}
}

// Buffer is the fixed-size load/store buffer array.
type Buffer struct {
	entries []Entry
}

// New returns an empty buffer with the given number of slots.
func New(size int) *Buffer {
	b := &Buffer{entries: make([]Entry, size)}
	for i := range b.entries {
		b.entries[i].clear()
	}
	return b
}

// Size returns the number of slots.
func (b *Buffer) Size() int { return len(b.entries) }

// Entry returns a pointer to slot i for direct inspection/mutation.
func (b *Buffer) Entry(i int) *Entry { return &b.entries[i] }

// FreeSlot returns the lowest-numbered free slot index, or (-1, false).
func (b *Buffer) FreeSlot() (int, bool) {
	for i := range b.entries {
		if !b.entries[i].Busy {
			return i, true
		}
	}
	return -1, false
}

// Allocate claims slot i for a LW/SW at addr feeding robID.
func (b *Buffer) Allocate(i int, op isa.Op, pc uint64, robID int, addr uint64, latency uint64) {
	e := &b.entries[i]
	e.Busy = true
	e.Op = op
	e.PC = pc
	e.ROBID = robID
	e.Addr = addr
	e.RemainingCycles = latency
	e.Qt = NoTag
	e.Vt = 0
}

// Free clears slot i.
func (b *Buffer) Free(i int) { b.entries[i].clear() }

// Occupancy returns how many slots are busy.
func (b *Buffer) Occupancy() int {
	n := 0
	for i := range b.entries {
		if b.entries[i].Busy {
			n++
		}
	}
	return n
}

// Empty reports whether every slot is free.
func (b *Buffer) Empty() bool { return b.Occupancy() == 0 }

// FreeByROB frees whichever slot (if any) is owned by robID.
func (b *Buffer) FreeByROB(robID int) {
	for i := range b.entries {
		if b.entries[i].Busy && b.entries[i].ROBID == robID {
			b.entries[i].clear()
			return
		}
	}
}

// CaptureBroadcast copies value into any entry waiting on robID via Qt,
// clearing the tag. Called once per CDB broadcast.
func (b *Buffer) CaptureBroadcast(robID int, value int64) {
	for i := range b.entries {
		e := &b.entries[i]
		if e.Busy && e.Qt == robID {
			e.Vt = value
			e.Qt = NoTag
		}
	}
}

// Reset clears every slot.
func (b *Buffer) Reset() {
	for i := range b.entries {
		b.entries[i].clear()
	}
}
