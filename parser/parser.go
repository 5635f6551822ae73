// Package parser is the external collaborator that turns program text
// into a parsed instruction list for the engine. It is intentionally
// outside the core's scope: the engine only ever receives an
// already-parsed []*isa.Instruction.
package parser

import (
	"strconv"
	"strings"

	"github.com/sarchlab/tomasulo/isa"
)

// Parse turns program text into a sequence of instructions with
// sequential, word-aligned program counters (0, 4, 8, ...). Blank lines
// and lines starting with '#' are skipped entirely (they do not consume a
// PC). Malformed or unrecognized lines degrade to NOP rather than
// producing an error — the core must never see a parse
// failure, only a NOP.
func Parse(text string) []*isa.Instruction {
	var program []*isa.Instruction
	var pc uint64
	seq := 1

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		program = append(program, parseLine(line, pc, seq))
		pc += 4
		seq++
	}

	return program
}

func parseLine(line string, pc uint64, seq int) *isa.Instruction {
	fields := tokenize(line)
	if len(fields) == 0 {
		return isa.NewNOP(pc, seq, line)
	}

	inst := &isa.Instruction{
		PC:        pc,
		Text:      line,
		Seq:       seq,
		ROBID:     -1,
		StationID: -1,
	}

	switch strings.ToUpper(fields[0]) {
	case "ADD":
		parseArith(inst, isa.OpADD, fields)
	case "SUB":
		parseArith(inst, isa.OpSUB, fields)
	case "MUL":
		parseArith(inst, isa.OpMUL, fields)
	case "DIV":
		parseArith(inst, isa.OpDIV, fields)
	case "LW":
		parseLoadStore(inst, isa.OpLW, fields)
	case "SW":
		parseLoadStore(inst, isa.OpSW, fields)
	case "BEQ":
		parseBranch(inst, fields)
	default:
		inst.Op = isa.OpNOP
	}

	return inst
}

// tokenize splits on commas and whitespace, which are interchangeable
// separators.
func tokenize(line string) []string {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	return fields
}

func parseArith(inst *isa.Instruction, op isa.Op, fields []string) {
	if len(fields) < 4 {
		inst.Op = isa.OpNOP
		return
	}
	inst.Op = op
	inst.Rd = isa.Reg(normalizeReg(fields[1]))
	inst.Rs = isa.Reg(normalizeReg(fields[2]))
	inst.Rt = isa.Reg(normalizeReg(fields[3]))
}

// parseLoadStore handles both "LW Rt, imm(Rs)" and "LW Rt, imm" forms.
func parseLoadStore(inst *isa.Instruction, op isa.Op, fields []string) {
	if len(fields) < 3 {
		inst.Op = isa.OpNOP
		return
	}

	imm, base, ok := parseOffset(fields[2])
	if !ok {
		inst.Op = isa.OpNOP
		return
	}

	inst.Op = op
	inst.Rt = isa.Reg(normalizeReg(fields[1]))
	inst.Imm = imm
	inst.HasImm = true
	if base.Valid {
		inst.Rs = base
	}
}

// parseOffset parses "imm(Rs)" or a bare "imm", returning the immediate
// and, if present, the base register.
func parseOffset(token string) (imm int64, base isa.RegRef, ok bool) {
	if open := strings.IndexByte(token, '('); open >= 0 {
		close := strings.IndexByte(token, ')')
		if close < open {
			return 0, isa.RegRef{}, false
		}
		immStr := token[:open]
		regStr := token[open+1 : close]

		n, err := strconv.ParseInt(immStr, 10, 64)
		if err != nil {
			return 0, isa.RegRef{}, false
		}
		return n, isa.Reg(normalizeReg(regStr)), true
	}

	n, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, isa.RegRef{}, false
	}
	return n, isa.RegRef{}, true
}

func parseBranch(inst *isa.Instruction, fields []string) {
	if len(fields) < 4 {
		inst.Op = isa.OpNOP
		return
	}

	target, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		inst.Op = isa.OpNOP
		return
	}

	inst.Op = isa.OpBEQ
	inst.Rs = isa.Reg(normalizeReg(fields[1]))
	inst.Rt = isa.Reg(normalizeReg(fields[2]))
	inst.Imm = target
	inst.HasImm = true
}

// normalizeReg upper-cases a register name so "r1", "R1" are equivalent.
func normalizeReg(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// RegisterIndex parses "R0".."R31" into its numeric index. Returns
// (0, false) for anything else, which callers treat as register R0.
func RegisterIndex(name string) (int, bool) {
	if len(name) < 2 || (name[0] != 'R' && name[0] != 'r') {
		return 0, false
	}
	n, err := strconv.Atoi(name[1:])
	if err != nil || n < 0 || n >= 32 {
		return 0, false
	}
	return n, true
}
