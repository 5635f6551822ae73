// Package main provides a CLI tool that runs the engine's reference
// scenarios and reports which ones match their expected architectural
// state, the way cmd/spec-check checked benchmark availability.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sarchlab/tomasulo/core"
	"github.com/sarchlab/tomasulo/timing/engine"
)

type scenario struct {
	name    string
	program string
	setup   func(regFile *core.RegFile)
	check   func(e *engine.Engine) error
	opts    []engine.Option
}

func main() {
	scenarios := []scenario{
		rawForwarding(),
		loadStorePair(),
		divideByZero(),
		predictedNotTaken(),
		mispredictedBranch(),
		structuralStall(),
	}

	failures := 0
	for _, s := range scenarios {
		err := run(s)
		status := "PASS"
		if err != nil {
			status = "FAIL"
			failures++
		}
		fmt.Printf("%-4s %s\n", status, s.name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %v\n", err)
		}
	}

	fmt.Printf("\n%d/%d scenarios passed\n", len(scenarios)-failures, len(scenarios))
	if failures > 0 {
		os.Exit(1)
	}
}

func run(s scenario) error {
	regFile := core.NewRegFile()
	mem := core.NewMemory()
	e := engine.New(regFile, mem, s.opts...)
	e.Load(s.program)
	if s.setup != nil {
		s.setup(regFile)
	}

	for i := uint64(0); i < 1000 && !e.Halted(); i++ {
		e.Step()
	}
	if !e.Halted() {
		return fmt.Errorf("did not halt within 1000 cycles")
	}

	return s.check(e)
}

func rawForwarding() scenario {
	return scenario{
		name:    "raw-forwarding",
		program: "ADD R1, R2, R3\nADD R4, R1, R5\n",
		setup: func(r *core.RegFile) {
			r.Write(2, 5)
			r.Write(3, 7)
			r.Write(5, 1)
		},
		check: func(e *engine.Engine) error {
			return expectRegs(e, map[int]int64{1: 12, 4: 13})
		},
	}
}

func loadStorePair() scenario {
	return scenario{
		name:    "load-store-pair",
		program: "SW R2, 0(R3)\nLW R1, 0(R3)\n",
		setup: func(r *core.RegFile) {
			r.Write(2, 42)
			r.Write(3, 100)
		},
		check: func(e *engine.Engine) error {
			if v := e.Memory().Read(100); v != 42 {
				return fmt.Errorf("memory[100] = %d, want 42", v)
			}
			return expectRegs(e, map[int]int64{1: 42})
		},
	}
}

func divideByZero() scenario {
	return scenario{
		name:    "divide-by-zero",
		program: "DIV R1, R2, R0\n",
		check: func(e *engine.Engine) error {
			return expectRegs(e, map[int]int64{1: 0})
		},
	}
}

func predictedNotTaken() scenario {
	return scenario{
		name:    "predicted-not-taken",
		program: "ADD R1, R0, R0\nBEQ R1, R2, 20\nADD R3, R4, R5\n",
		setup: func(r *core.RegFile) {
			r.Write(2, 5)
			r.Write(4, 1)
			r.Write(5, 2)
		},
		check: func(e *engine.Engine) error {
			if e.Stats().Mispredictions != 0 {
				return fmt.Errorf("mispredictions = %d, want 0", e.Stats().Mispredictions)
			}
			return expectRegs(e, map[int]int64{1: 0, 3: 3})
		},
	}
}

func mispredictedBranch() scenario {
	return scenario{
		name: "mispredicted-branch",
		program: strings.Join([]string{
			"ADD R1, R0, R0",
			"BEQ R1, R0, 16",
			"ADD R7, R4, R5",
			"ADD R8, R4, R5",
			"ADD R9, R4, R5",
		}, "\n"),
		setup: func(r *core.RegFile) {
			r.Write(4, 1)
			r.Write(5, 2)
		},
		check: func(e *engine.Engine) error {
			if e.Stats().Mispredictions != 1 {
				return fmt.Errorf("mispredictions = %d, want 1", e.Stats().Mispredictions)
			}
			return expectRegs(e, map[int]int64{7: 0, 8: 0, 9: 3})
		},
	}
}

func structuralStall() scenario {
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, fmt.Sprintf("ADD R%d, R0, R0", (i%30)+1))
	}
	return scenario{
		name:    "structural-stall",
		program: strings.Join(lines, "\n"),
		opts:    []engine.Option{engine.WithROBSize(16)},
		check: func(e *engine.Engine) error {
			if e.Stats().Stalls == 0 {
				return fmt.Errorf("expected at least one stall cycle with a full ROB")
			}
			if e.Stats().Committed != 20 {
				return fmt.Errorf("committed = %d, want 20", e.Stats().Committed)
			}
			return nil
		},
	}
}

func expectRegs(e *engine.Engine, want map[int]int64) error {
	for reg, v := range want {
		if got := e.RegFile().Read(reg); got != v {
			return fmt.Errorf("R%d = %d, want %d", reg, got, v)
		}
	}
	return nil
}
