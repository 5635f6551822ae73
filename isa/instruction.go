// Package isa defines the instruction set and per-instruction pipeline
// annotations for the Tomasulo simulator: a small MIPS-like stream of
// ADD, SUB, MUL, DIV, LW, SW, BEQ, and NOP.
package isa

import "fmt"

// Op identifies an instruction opcode.
type Op uint8

const (
	// OpNOP is a no-op. Unknown or malformed lines decode to this.
	OpNOP Op = iota
	// OpADD computes Rd = Rs + Rt.
	OpADD
	// OpSUB computes Rd = Rs - Rt.
	OpSUB
	// OpMUL computes Rd = Rs * Rt.
	OpMUL
	// OpDIV computes Rd = Rs / Rt (0 on divide-by-zero, no trap).
	OpDIV
	// OpLW loads Rt = memory[Rs + imm].
	OpLW
	// OpSW stores memory[Rs + imm] = Rt.
	OpSW
	// OpBEQ branches to the absolute PC in Imm if Rs == Rt.
	OpBEQ
)

// String returns the opcode's mnemonic.
func (o Op) String() string {
	switch o {
	case OpADD:
		return "ADD"
	case OpSUB:
		return "SUB"
	case OpMUL:
		return "MUL"
	case OpDIV:
		return "DIV"
	case OpLW:
		return "LW"
	case OpSW:
		return "SW"
	case OpBEQ:
		return "BEQ"
	default:
		return "NOP"
	}
}

// IsArithmetic reports whether the opcode is a register-writing ALU op.
func (o Op) IsArithmetic() bool {
	switch o {
	case OpADD, OpSUB, OpMUL, OpDIV:
		return true
	default:
		return false
	}
}

// State is the lifecycle of an instruction as it moves through the engine.
type State uint8

const (
	// StateNotFetched has not yet reached Issue.
	StateNotFetched State = iota
	// StateIssued has been renamed and allocated into the ROB plus an RS/LSB slot.
	StateIssued
	// StateExecuting has a busy station counting down remaining latency.
	StateExecuting
	// StateWB has broadcast its result on the CDB this cycle (or resolved, for branches).
	StateWB
	// StateCommitted has retired and is terminal.
	StateCommitted
	// StateFlushed was discarded by misprediction recovery and is terminal.
	StateFlushed
)

// String renders the state as a short label, suitable for a pipeline
// diagram or status table.
func (s State) String() string {
	switch s {
	case StateIssued:
		return "Issued"
	case StateExecuting:
		return "Executing"
	case StateWB:
		return "WB"
	case StateCommitted:
		return "Committed"
	case StateFlushed:
		return "Flushed"
	default:
		return "NotFetched"
	}
}

// RegRef is an optional register operand. Valid is false when the
// instruction has no such operand (e.g. SW has no Rd).
type RegRef struct {
	Valid bool
	Name  string // "R0".."R31"
}

// Reg returns a populated, valid RegRef.
func Reg(name string) RegRef {
	return RegRef{Valid: true, Name: name}
}

// Instruction is an immutable decoded instruction plus mutable pipeline
// annotations tracked by the cycle engine.
type Instruction struct {
	// Immutable fields, set once by the parser.
	PC   uint64
	Text string
	Seq  int // 1-based sequence index in program order
	Op   Op
	Rd   RegRef
	Rs   RegRef
	Rt   RegRef
	Imm  int64
	HasImm bool

	// Mutable pipeline annotations.
	State       State
	ROBID       int // -1 if not assigned
	StationID   int // -1 if not assigned
	Speculative bool

	IssueCycle    uint64
	ExecStartCycle uint64
	ExecEndCycle  uint64
	WBCycle       uint64
	CommitCycle   uint64
}

// NewNOP returns a NOP instruction at the given PC and sequence index.
func NewNOP(pc uint64, seq int, text string) *Instruction {
	return &Instruction{
		PC:        pc,
		Text:      text,
		Seq:       seq,
		Op:        OpNOP,
		ROBID:     -1,
		StationID: -1,
	}
}

// String renders the instruction for debugging/tracing.
func (i *Instruction) String() string {
	return fmt.Sprintf("#%d @0x%X %s [%s]", i.Seq, i.PC, i.Text, i.State)
}

// Destination returns the register this instruction writes, if any.
// For LW this is Rt; for ADD/SUB/MUL/DIV this is Rd. SW and BEQ write none.
func (i *Instruction) Destination() RegRef {
	switch i.Op {
	case OpLW:
		return i.Rt
	case OpADD, OpSUB, OpMUL, OpDIV:
		return i.Rd
	default:
		return RegRef{}
	}
}
