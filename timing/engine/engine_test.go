package engine_test

import (
	"fmt"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasulo/core"
	"github.com/sarchlab/tomasulo/isa"
	"github.com/sarchlab/tomasulo/timing/engine"
)

func TestEngine(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Engine Suite")
}

func newEngine(opts ...engine.Option) (*engine.Engine, *core.RegFile, *core.Memory) {
	regFile := core.NewRegFile()
	mem := core.NewMemory()
	return engine.New(regFile, mem, opts...), regFile, mem
}

// runToHalt steps e until it halts or maxCycles is exceeded, failing the
// spec if the program never halts — every scenario here is finite.
func runToHalt(e *engine.Engine, maxCycles uint64) {
	for i := uint64(0); i < maxCycles; i++ {
		if e.Halted() {
			return
		}
		e.Step()
	}
	Expect(e.Halted()).To(BeTrue(), "program did not halt within %d cycles", maxCycles)
}

var _ = Describe("Engine", func() {
	Describe("S1 — RAW dependency and forwarding", func() {
		It("forwards the producer's result through the RAT tag", func() {
			e, regFile, _ := newEngine()
			e.Load("ADD R1, R2, R3\nADD R4, R1, R5\n")
			regFile.Write(2, 5)
			regFile.Write(3, 7)
			regFile.Write(5, 1)

			runToHalt(e, 100)

			Expect(regFile.Read(1)).To(Equal(int64(12)))
			Expect(regFile.Read(4)).To(Equal(int64(13)))
			Expect(e.Stats().Mispredictions).To(Equal(uint64(0)))
			Expect(e.Stats().Committed).To(Equal(uint64(2)))
		})
	})

	Describe("S2 — Load/Store pair", func() {
		It("stores then loads the same address", func() {
			e, regFile, mem := newEngine()
			e.Load("SW R2, 0(R3)\nLW R1, 0(R3)\n")
			regFile.Write(2, 42)
			regFile.Write(3, 100)

			runToHalt(e, 100)

			Expect(mem.Read(100)).To(Equal(int64(42)))
			Expect(regFile.Read(1)).To(Equal(int64(42)))
		})
	})

	Describe("S3 — Divide-by-zero", func() {
		It("produces zero instead of faulting", func() {
			e, _, _ := newEngine()
			e.Load("DIV R1, R2, R0\n")

			runToHalt(e, 100)

			Expect(e.RegFile().Read(1)).To(Equal(int64(0)))
		})
	})

	Describe("S4 — Correct not-taken prediction", func() {
		It("falls through without a flush", func() {
			e, regFile, _ := newEngine()
			e.Load("ADD R1, R0, R0\nBEQ R1, R2, 20\nADD R3, R4, R5\n")
			regFile.Write(2, 5)
			regFile.Write(4, 1)
			regFile.Write(5, 2)

			runToHalt(e, 100)

			Expect(regFile.Read(1)).To(Equal(int64(0)))
			Expect(regFile.Read(3)).To(Equal(int64(3)))
			Expect(e.Stats().Mispredictions).To(Equal(uint64(0)))
		})
	})

	Describe("S5 — Mispredicted branch", func() {
		It("flushes the speculative path and executes only the target", func() {
			e, regFile, _ := newEngine()
			e.Load(strings.Join([]string{
				"ADD R1, R0, R0",  // PC 0
				"BEQ R1, R0, 16",  // PC 4, taken
				"ADD R7, R4, R5",  // PC 8, speculative
				"ADD R8, R4, R5",  // PC 12, speculative
				"ADD R9, R4, R5",  // PC 16, the target
			}, "\n"))
			regFile.Write(4, 1)
			regFile.Write(5, 2)

			runToHalt(e, 100)

			Expect(e.Stats().Mispredictions).To(Equal(uint64(1)))
			Expect(regFile.Read(7)).To(Equal(int64(0)))
			Expect(regFile.Read(8)).To(Equal(int64(0)))
			Expect(regFile.Read(9)).To(Equal(int64(3)))

			program := e.Program()
			Expect(program[2].State).To(Equal(isa.StateFlushed))
			Expect(program[3].State).To(Equal(isa.StateFlushed))
			Expect(program[4].State).To(Equal(isa.StateCommitted))
		})
	})

	Describe("S6 — Structural stall", func() {
		It("stalls at least once with a full ROB, but still commits everything", func() {
			var lines []string
			for i := 0; i < 20; i++ {
				lines = append(lines, fmt.Sprintf("ADD R%d, R0, R0", (i%30)+1))
			}
			e, _, _ := newEngine(engine.WithROBSize(16))
			e.Load(strings.Join(lines, "\n"))

			runToHalt(e, 200)

			Expect(e.Stats().Stalls).To(BeNumerically(">", 0))
			Expect(e.Stats().Committed).To(Equal(uint64(20)))
		})
	})

	Describe("stage ordering", func() {
		It("cannot commit a value in the same cycle it was produced (invariant: commit precedes write-result)", func() {
			e, regFile, _ := newEngine()
			e.Load("ADD R1, R2, R3\n")
			regFile.Write(2, 5)
			regFile.Write(3, 7)

			r := e.Step() // cycle 1: issues, nothing ready yet
			Expect(r.CommittedCount).To(Equal(0))
			Expect(regFile.Read(1)).To(Equal(int64(0)))

			e.Step()     // cycle 2: countdown 2 -> 1
			e.Step()     // cycle 3: countdown 1 -> 0
			r = e.Step() // cycle 4: result broadcast, after Commit already ran
			Expect(e.ROB().Entry(0).Ready).To(BeTrue())
			Expect(r.CommittedCount).To(Equal(0))
			Expect(regFile.Read(1)).To(Equal(int64(0)))

			r = e.Step() // cycle 5: the earliest cycle it can commit
			Expect(r.CommittedCount).To(Equal(1))
			Expect(regFile.Read(1)).To(Equal(int64(12)))
		})
	})

	Describe("Reset", func() {
		It("restores the state to just after the last Load", func() {
			e, regFile, _ := newEngine()
			e.Load("ADD R1, R2, R3\n")
			regFile.Write(2, 5)
			regFile.Write(3, 7)
			runToHalt(e, 100)
			Expect(regFile.Read(1)).To(Equal(int64(12)))

			e.Reset()

			Expect(e.Cycle()).To(Equal(uint64(0)))
			Expect(e.Halted()).To(BeFalse())
			Expect(regFile.Read(1)).To(Equal(int64(0))) // preload is gone too
			Expect(e.Program()[0].State).To(Equal(isa.StateNotFetched))
		})
	})

	Describe("a halted engine", func() {
		It("makes every further Step a no-op", func() {
			e, _, _ := newEngine()
			e.Load("ADD R1, R0, R0\n")
			runToHalt(e, 100)

			r := e.Step()
			Expect(r).To(Equal(engine.StepResult{}))
		})
	})

	Describe("malformed program lines", func() {
		It("degrades to NOP and still halts", func() {
			e, _, _ := newEngine()
			e.Load("GARBAGE\nADD R1, R0, R0\n")
			runToHalt(e, 100)
			Expect(e.Stats().Committed).To(Equal(uint64(1))) // the NOP never reaches Commit
		})
	})

	Describe("Config", func() {
		It("SuperscalarConfig doubles width and slot counts over ScalarConfig", func() {
			Expect(engine.ScalarConfig().IssueWidth).To(Equal(1))
			Expect(engine.SuperscalarConfig().IssueWidth).To(Equal(2))
			Expect(engine.SuperscalarConfig().ROBSize).To(Equal(32))
		})

		It("WidthMultiplier scales issue and commit width uniformly", func() {
			cfg := engine.ScalarConfig().WidthMultiplier(3)
			Expect(cfg.IssueWidth).To(Equal(3))
			Expect(cfg.CommitWidth).To(Equal(3))
		})
	})
})
