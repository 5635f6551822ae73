// Package rat implements the Register Alias Table: a mapping from
// architectural register to the ROB id that will produce its next value,
// plus checkpoint snapshot/restore for branch speculation rollback.
package rat

import "github.com/sarchlab/tomasulo/core"

// NoTag marks a register as not renamed (its value is current in the
// architectural register file).
const NoTag = -1

// Table is the RAT: one optional ROB id per architectural register.
type Table struct {
	tag [core.RegisterCount]int
}

// New returns a RAT with every register unrenamed.
func New() *Table {
	t := &Table{}
	for i := range t.tag {
		t.tag[i] = NoTag
	}
	return t
}

// Lookup returns the ROB id renaming reg, or (NoTag, false) if reg is
// current in the register file or out of range.
func (t *Table) Lookup(reg int) (robID int, renamed bool) {
	if reg < 0 || reg >= core.RegisterCount {
		return NoTag, false
	}
	tag := t.tag[reg]
	return tag, tag != NoTag
}

// Rename sets reg's tag to robID.
func (t *Table) Rename(reg, robID int) {
	if reg <= 0 || reg >= core.RegisterCount {
		return // R0 is never renamed, matching core.RegFile's hardwired zero.
	}
	t.tag[reg] = robID
}

// Clear resets reg to "no rename", but only if it is still pointing at
// robID — a later rename must not be clobbered by an earlier commit
// (a write-after-write safety check).
func (t *Table) Clear(reg, robID int) {
	if reg < 0 || reg >= core.RegisterCount {
		return
	}
	if t.tag[reg] == robID {
		t.tag[reg] = NoTag
	}
}

// Snapshot returns a deep copy of the table for checkpointing.
func (t *Table) Snapshot() Table {
	return Table{tag: t.tag}
}

// Restore overwrites this table's contents from a snapshot.
func (t *Table) Restore(snap Table) {
	t.tag = snap.tag
}

// Checkpoint is a RAT snapshot taken at branch issue, used to restore
// rename state on misprediction.
type Checkpoint struct {
	ID                   int
	RAT                  Table
	EnqueueSeqWatermark  int
}
