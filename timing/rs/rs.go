// Package rs implements the arithmetic/branch reservation stations: a
// fixed-size array of operand-waiting slots with per-slot latency
// countdown, used for ADD, SUB, MUL, DIV, and BEQ.
package rs

import "github.com/sarchlab/tomasulo/isa"

// NoTag marks an operand as already resolved (no station is waiting to
// produce it).
const NoTag = -1

// Station is one reservation station slot.
type Station struct {
	Busy       bool
	Op         isa.Op
	Vj, Vk     int64
	Qj, Qk     int // ROB ids that will produce Vj/Vk, or NoTag
	ROBID      int
	PC         uint64
	RemainingCycles uint64
}

func (s *Station) clear() {
	*s = Station{Qj: NoTag, Qk: NoTag, ROBID: -1}
}

// Table is the fixed-size reservation station array.
type Table struct {
	stations []Station
}

// New returns an empty table with the given number of slots.
func New(size int) *Table {
	t := &Table{stations: make([]Station, size)}
	for i := range t.stations {
		t.stations[i].clear()
	}
	return t
}

// Size returns the number of slots.
func (t *Table) Size() int { return len(t.stations) }

// Station returns a pointer to slot i for direct inspection/mutation.
func (t *Table) Station(i int) *Station { return &t.stations[i] }

// FreeSlot returns the lowest-numbered free slot index, or (-1, false).
func (t *Table) FreeSlot() (int, bool) {
	for i := range t.stations {
		if !t.stations[i].Busy {
			return i, true
		}
	}
	return -1, false
}

// Allocate claims slot i for opcode op feeding robID, with the given
// initial latency.
func (t *Table) Allocate(i int, op isa.Op, pc uint64, robID int, latency uint64) {
	s := &t.stations[i]
	s.Busy = true
	s.Op = op
	s.PC = pc
	s.ROBID = robID
	s.RemainingCycles = latency
	s.Qj, s.Qk = NoTag, NoTag
	s.Vj, s.Vk = 0, 0
}

// Free clears slot i.
func (t *Table) Free(i int) { t.stations[i].clear() }

// Occupancy returns how many slots are busy.
func (t *Table) Occupancy() int {
	n := 0
	for i := range t.stations {
		if t.stations[i].Busy {
			n++
		}
	}
	return n
}

// Empty reports whether every slot is free.
func (t *Table) Empty() bool { return t.Occupancy() == 0 }

// FreeByROB frees whichever slot (if any) is owned by robID, e.g. during
// misprediction recovery.
func (t *Table) FreeByROB(robID int) {
	for i := range t.stations {
		if t.stations[i].Busy && t.stations[i].ROBID == robID {
			t.stations[i].clear()
			return
		}
	}
}

// CaptureBroadcast copies value into any station waiting on robID via Qj
// or Qk, clearing the corresponding tag. Called once per CDB broadcast.
func (t *Table) CaptureBroadcast(robID int, value int64) {
	for i := range t.stations {
		s := &t.stations[i]
		if !s.Busy {
			continue
		}
		if s.Qj == robID {
			s.Vj = value
			s.Qj = NoTag
		}
		if s.Qk == robID {
			s.Vk = value
			s.Qk = NoTag
		}
	}
}

// Reset clears every slot.
func (t *Table) Reset() {
	for i := range t.stations {
		t.stations[i].clear()
	}
}
