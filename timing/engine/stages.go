package engine

import (
	"github.com/sarchlab/tomasulo/events"
	"github.com/sarchlab/tomasulo/isa"
	"github.com/sarchlab/tomasulo/parser"
	"github.com/sarchlab/tomasulo/timing/rat"
	"github.com/sarchlab/tomasulo/timing/rob"
	"github.com/sarchlab/tomasulo/timing/rs"
)

// doCommit retires up to CommitWidth ready entries in ascending
// enqueue-sequence order, stopping at the first not-yet-ready entry —
// commit is strictly in order, independent of which ROB slot an entry
// happens to occupy.
func (e *Engine) doCommit(log *events.Log) int {
	committed := 0
	for _, idx := range e.rob.BusyIndices() {
		if committed >= e.cfg.CommitWidth {
			break
		}
		entry := e.rob.Entry(idx)
		if !entry.Ready {
			break
		}
		in := e.byPC[entry.PC]

		switch entry.Type {
		case rob.TypeReg:
			if entry.HasDest {
				e.regFile.Write(entry.Dest, entry.Value)
				e.rat.Clear(entry.Dest, idx)
			}
		case rob.TypeStore:
			e.memSys.Write(entry.Addr, entry.Value)
		case rob.TypeBranch:
			// No architectural write; the branch only redirects the PC,
			// already done in doResolveBranches.
		}

		if in != nil {
			in.State = isa.StateCommitted
			in.CommitCycle = e.cycle
		}
		entry.Committed = true
		e.rob.Free(idx)
		e.stats.Committed++
		committed++
	}
	return committed
}

// writeResultOutcome is one CDB broadcast produced this cycle.
type writeResultOutcome struct {
	robID   int
	value   int64
	isStore bool
	addr    uint64
}

// doWriteResult drains every station/buffer slot whose countdown reached
// zero on a prior Execute, computes its result, frees the slot, and
// broadcasts the value onto every station/buffer still waiting for it.
// BEQ entries are handled specially: they resolve to a
// taken/not-taken outcome consumed by doResolveBranches, not a value
// broadcast on the CDB.
func (e *Engine) doWriteResult(log *events.Log) {
	var outcomes []writeResultOutcome

	for i := 0; i < e.rs.Size(); i++ {
		st := e.rs.Station(i)
		if !st.Busy || st.RemainingCycles != 0 || st.Qj != rs.NoTag || st.Qk != rs.NoTag {
			continue
		}
		in := e.byPC[st.PC]

		if st.Op == isa.OpBEQ {
			entry := e.rob.Entry(st.ROBID)
			entry.BranchTaken = st.Vj == st.Vk
			entry.Ready = true
			if in != nil {
				in.State = isa.StateWB
				in.WBCycle = e.cycle
			}
			e.rs.Free(i)
			continue
		}

		outcomes = append(outcomes, writeResultOutcome{robID: st.ROBID, value: computeArith(st.Op, st.Vj, st.Vk)})
		if in != nil {
			in.State = isa.StateWB
			in.WBCycle = e.cycle
		}
		e.rs.Free(i)
	}

	for i := 0; i < e.lsb.Size(); i++ {
		en := e.lsb.Entry(i)
		if !en.Busy || en.RemainingCycles != 0 || en.Qt != rs.NoTag {
			continue
		}
		in := e.byPC[en.PC]

		switch en.Op {
		case isa.OpLW:
			outcomes = append(outcomes, writeResultOutcome{robID: en.ROBID, value: e.memSys.Read(en.Addr)})
		case isa.OpSW:
			outcomes = append(outcomes, writeResultOutcome{robID: en.ROBID, value: en.Vt, isStore: true, addr: en.Addr})
		}
		if in != nil {
			in.State = isa.StateWB
			in.WBCycle = e.cycle
		}
		e.lsb.Free(i)
	}

	for _, o := range outcomes {
		entry := e.rob.Entry(o.robID)
		entry.Value = o.value
		entry.Ready = true
		if o.isStore {
			entry.Addr = o.addr
		}
		e.rs.CaptureBroadcast(o.robID, o.value)
		e.lsb.CaptureBroadcast(o.robID, o.value)
	}
}

func computeArith(op isa.Op, a, b int64) int64 {
	switch op {
	case isa.OpADD:
		return a + b
	case isa.OpSUB:
		return a - b
	case isa.OpMUL:
		return a * b
	case isa.OpDIV:
		if b == 0 {
			return 0
		}
		return a / b
	default:
		return 0
	}
}

// doResolveBranches resolves every BRANCH ROB entry that became ready this
// cycle. entry.Speculative doubles as the "not yet
// resolved" guard: issue sets it true for a branch's own entry, and this
// is the only place that clears it, so a resolved branch is never
// revisited on a later cycle while it waits to commit.
func (e *Engine) doResolveBranches(log *events.Log) {
	for _, idx := range e.rob.BusyIndices() {
		entry := e.rob.Entry(idx)
		if entry.Type != rob.TypeBranch || !entry.Ready || !entry.Speculative {
			continue
		}

		in := e.byPC[entry.PC]
		predicted := e.predictor.Predict(entry.PC)
		actual := entry.BranchTaken

		var nextPC uint64
		if actual {
			nextPC = uint64(in.Imm)
		} else {
			nextPC = entry.PC + 4
		}

		log.Resolve(entry.PC, predicted, actual, nextPC)
		e.predictor.Update(entry.PC, predicted, actual)

		entry.Speculative = false
		if in != nil {
			in.Speculative = false
		}

		checkpointID := entry.CheckpointID
		cp, hasCP := e.checkpoints[checkpointID]

		if predicted == actual {
			for _, j := range e.rob.BusyIndices() {
				if j == idx {
					continue
				}
				o := e.rob.Entry(j)
				if o.CheckpointID != checkpointID {
					continue
				}
				o.Speculative = false
				o.CheckpointID = rob.NoCheckpoint
				if oin := e.byPC[o.PC]; oin != nil {
					oin.Speculative = false
				}
			}
		} else {
			e.stats.Mispredictions++
			for _, j := range e.rob.BusyIndices() {
				if j == idx {
					continue
				}
				o := e.rob.Entry(j)
				if !o.Speculative {
					continue
				}
				e.rs.FreeByROB(j)
				e.lsb.FreeByROB(j)
				e.rob.Free(j)
			}
			if hasCP {
				e.rat.Restore(cp.RAT)
			}
			e.pc = nextPC

			// Every instruction issued during this window is discarded,
			// regardless of whether its PC falls on the correct side of
			// the redirect.
			for _, in2 := range e.program {
				if in2.Speculative {
					in2.State = isa.StateFlushed
					in2.Speculative = false
				}
			}
		}

		delete(e.checkpoints, checkpointID)
		if e.activeCheckpoint == checkpointID {
			e.activeCheckpoint = rob.NoCheckpoint
		}
		entry.CheckpointID = rob.NoCheckpoint
	}
}

// doExecute decrements the countdown of every busy station/buffer entry
// whose operands are all resolved, one cycle at a time.
// An entry whose countdown reaches zero this cycle is only picked up by
// doWriteResult on the following Step call, since doWriteResult already
// ran earlier in this one — the one-cycle execute/writeback gap falls
// out of the stage ordering for free.
func (e *Engine) doExecute() {
	for i := 0; i < e.rs.Size(); i++ {
		st := e.rs.Station(i)
		if !st.Busy || st.RemainingCycles == 0 || st.Qj != rs.NoTag || st.Qk != rs.NoTag {
			continue
		}
		st.RemainingCycles--
		if in, ok := e.byPC[st.PC]; ok {
			in.State = isa.StateExecuting
			if in.ExecStartCycle == 0 {
				in.ExecStartCycle = e.cycle
			}
			if st.RemainingCycles == 0 {
				in.ExecEndCycle = e.cycle
			}
		}
	}

	for i := 0; i < e.lsb.Size(); i++ {
		en := e.lsb.Entry(i)
		if !en.Busy || en.RemainingCycles == 0 || en.Qt != rs.NoTag {
			continue
		}
		en.RemainingCycles--
		if in, ok := e.byPC[en.PC]; ok {
			in.State = isa.StateExecuting
			if in.ExecStartCycle == 0 {
				in.ExecStartCycle = e.cycle
			}
			if en.RemainingCycles == 0 {
				in.ExecEndCycle = e.cycle
			}
		}
	}
}

// doIssue dispatches up to IssueWidth instructions per cycle: renaming
// destinations into the RAT, allocating a ROB slot plus
// an RS or LSB slot, and — for BEQ — consulting the predictor and opening
// a new speculation window.
func (e *Engine) doIssue(log *events.Log) int {
	issued := 0

	for i := 0; i < e.cfg.IssueWidth; i++ {
		in, ok := e.byPC[e.pc]
		if !ok || in.State != isa.StateNotFetched {
			if e.hasNotFetched() {
				e.pc += 4
				continue
			}
			break
		}

		// NOP never occupies a ROB/RS/LSB slot: it carries no operands and
		// no destination, so it has nothing to rename, execute, or commit.
		// Halt detection (allInstructionsRetired) already treats NOP as
		// retired regardless of its State.
		if in.Op == isa.OpNOP {
			e.pc += 4
			continue
		}

		robIdx, ok := e.rob.FreeSlot()
		if !ok {
			e.stats.Stalls++
			log.Stall("reorder buffer full")
			break
		}

		isMem := in.Op == isa.OpLW || in.Op == isa.OpSW
		var lsbIdx, rsIdx int
		if isMem {
			idx, ok := e.lsb.FreeSlot()
			if !ok {
				e.stats.Stalls++
				log.Stall("load/store buffer full")
				break
			}
			lsbIdx = idx
		} else {
			idx, ok := e.rs.FreeSlot()
			if !ok {
				e.stats.Stalls++
				log.Stall("reservation stations full")
				break
			}
			rsIdx = idx
		}

		robType := rob.TypeReg
		switch in.Op {
		case isa.OpSW:
			robType = rob.TypeStore
		case isa.OpBEQ:
			robType = rob.TypeBranch
		}
		e.rob.Allocate(robIdx, in.PC, robType)
		entry := e.rob.Entry(robIdx)

		dest := in.Destination()
		if dest.Valid {
			if destIdx, ok := parser.RegisterIndex(dest.Name); ok {
				entry.Dest = destIdx
				entry.HasDest = true
			}
		}

		if in.Op == isa.OpBEQ {
			e.openSpeculationWindow(in, entry, log)
		} else {
			if e.activeCheckpoint != rob.NoCheckpoint {
				entry.Speculative = true
				entry.CheckpointID = e.activeCheckpoint
				in.Speculative = true
			}
			e.pc = in.PC + 4
		}

		if isMem {
			e.issueMemOp(in, lsbIdx, robIdx)
			in.StationID = lsbIdx
		} else {
			e.issueArithOp(in, rsIdx, robIdx)
			in.StationID = rsIdx
		}

		if dest.Valid {
			if destIdx, ok := parser.RegisterIndex(dest.Name); ok {
				e.rat.Rename(destIdx, robIdx)
			}
		}

		in.State = isa.StateIssued
		in.IssueCycle = e.cycle
		in.ROBID = robIdx
		e.stats.Fetched++
		issued++
	}

	return issued
}

func (e *Engine) openSpeculationWindow(in *isa.Instruction, entry *rob.Entry, log *events.Log) {
	cpID := e.nextCheckpointID
	e.nextCheckpointID++
	e.checkpoints[cpID] = rat.Checkpoint{ID: cpID, RAT: e.rat.Snapshot(), EnqueueSeqWatermark: entry.EnqueueSeq}

	entry.Speculative = true
	entry.CheckpointID = cpID
	in.Speculative = true
	e.activeCheckpoint = cpID

	taken := e.predictor.Predict(in.PC)
	var nextPC uint64
	if taken {
		nextPC = uint64(in.Imm)
	} else {
		nextPC = in.PC + 4
	}
	log.Predict(in.PC, taken, nextPC)
	e.pc = nextPC
}

func (e *Engine) issueArithOp(in *isa.Instruction, rsIdx, robIdx int) {
	vj, qj, hasQj := e.resolveOperand(in.Rs)
	vk, qk, hasQk := e.resolveOperand(in.Rt)
	latencyCycles := e.latTbl.GetLatency(in.Op)

	e.rs.Allocate(rsIdx, in.Op, in.PC, robIdx, latencyCycles)
	st := e.rs.Station(rsIdx)
	if hasQj {
		st.Qj = qj
	} else {
		st.Vj = vj
	}
	if hasQk {
		st.Qk = qk
	} else {
		st.Vk = vk
	}
}

// issueMemOp computes the effective address eagerly from the current
// architectural register file, not the RAT: the load/store buffer entry
// has a single resolved-address field with no pending tag, so a
// not-yet-committed base register is read as its last committed value
// rather than stalled on.
func (e *Engine) issueMemOp(in *isa.Instruction, lsbIdx, robIdx int) {
	var base uint64
	if in.Rs.Valid {
		if idx, ok := parser.RegisterIndex(in.Rs.Name); ok {
			base = uint64(e.regFile.Read(idx))
		}
	}
	addr := base + uint64(in.Imm)
	latencyCycles := e.memSys.Latency(in.Op, addr)

	e.lsb.Allocate(lsbIdx, in.Op, in.PC, robIdx, addr, latencyCycles)
	if in.Op == isa.OpSW {
		val, tag, hasTag := e.resolveOperand(in.Rt)
		en := e.lsb.Entry(lsbIdx)
		if hasTag {
			en.Qt = tag
		} else {
			en.Vt = val
		}
	}
}

// resolveOperand reads ref through the RAT: if renamed, returns its
// producing ROB id as a tag; otherwise returns its current architectural
// value.
func (e *Engine) resolveOperand(ref isa.RegRef) (value int64, tag int, hasTag bool) {
	if !ref.Valid {
		return 0, rs.NoTag, false
	}
	idx, _ := parser.RegisterIndex(ref.Name)
	if robID, renamed := e.rat.Lookup(idx); renamed {
		return 0, robID, true
	}
	return e.regFile.Read(idx), rs.NoTag, false
}

func (e *Engine) hasNotFetched() bool {
	for _, in := range e.program {
		if in.State == isa.StateNotFetched {
			return true
		}
	}
	return false
}
