package engine

import (
	"github.com/sarchlab/tomasulo/core"
	"github.com/sarchlab/tomasulo/events"
	"github.com/sarchlab/tomasulo/isa"
	"github.com/sarchlab/tomasulo/parser"
	"github.com/sarchlab/tomasulo/timing/latency"
	"github.com/sarchlab/tomasulo/timing/lsb"
	"github.com/sarchlab/tomasulo/timing/memsys"
	"github.com/sarchlab/tomasulo/timing/predictor"
	"github.com/sarchlab/tomasulo/timing/rat"
	"github.com/sarchlab/tomasulo/timing/rob"
	"github.com/sarchlab/tomasulo/timing/rs"
)

// MemorySystem is what the LSB consults for memory-operation latency and
// data. timing/memsys.FlatMemorySystem and CachedMemorySystem both satisfy
// it without the engine importing their concrete types by name.
type MemorySystem interface {
	Latency(op isa.Op, addr uint64) uint64
	Read(addr uint64) int64
	Write(addr uint64, value int64)
}

// Stats accumulates the counters an external collaborator reads after any
// number of Step calls.
type Stats struct {
	Cycle          uint64
	Fetched        uint64
	Committed      uint64
	Stalls         uint64
	Mispredictions uint64

	// MeanROB/RS/LSBOccupancy are cumulative-average slot occupancy, summed
	// once per cycle and divided by Cycle, the same running-sum shape as a
	// pipeline's per-cycle stat counters.
	occupancySumROB int64
	occupancySumRS  int64
	occupancySumLSB int64
}

// MeanROBOccupancy returns the cumulative average of ROB occupancy across
// every cycle so far.
func (s Stats) MeanROBOccupancy() float64 { return meanOf(s.occupancySumROB, s.Cycle) }

// MeanRSOccupancy returns the cumulative average of RS occupancy.
func (s Stats) MeanRSOccupancy() float64 { return meanOf(s.occupancySumRS, s.Cycle) }

// MeanLSBOccupancy returns the cumulative average of LSB occupancy.
func (s Stats) MeanLSBOccupancy() float64 { return meanOf(s.occupancySumLSB, s.Cycle) }

func meanOf(sum int64, cycles uint64) float64 {
	if cycles == 0 {
		return 0
	}
	return float64(sum) / float64(cycles)
}

// StepResult is what a single Step call reports: the cycle just completed,
// how much work happened, and the opaque event strings produced along the
// way. A halted engine returns the zero StepResult.
type StepResult struct {
	Cycle          uint64
	IssuedCount    int
	CommittedCount int
	TotalStalls    uint64
	TotalCommitted uint64
	Events         []string
}

// options configures a new Engine; see the WithX functions below.
type options struct {
	cfg          Config
	latencyTable *latency.Table
	memSystem    MemorySystem
}

// Option configures an Engine at construction, the same functional-options
// shape as a pipeline's construction-time option type.
type Option func(*options)

// WithConfig overrides the structural Config outright (e.g.
// engine.SuperscalarConfig()).
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithROBSize overrides just the ROB size.
func WithROBSize(n int) Option {
	return func(o *options) { o.cfg = o.cfg.WithROBSize(n) }
}

// WithRSCount overrides just the reservation-station count.
func WithRSCount(n int) Option {
	return func(o *options) { o.cfg = o.cfg.WithRSCount(n) }
}

// WithLSBSize overrides just the load/store buffer size.
func WithLSBSize(n int) Option {
	return func(o *options) { o.cfg = o.cfg.WithLSBSize(n) }
}

// WithIssueWidth overrides just the issue width; CommitWidth is unchanged.
func WithIssueWidth(n int) Option {
	return func(o *options) { o.cfg = o.cfg.WithIssueWidth(n) }
}

// WithWidthMultiplier scales Issue/CommitWidth by n, supplementing
// the base engine with a multithreading-width knob (see
// Config.WidthMultiplier's doc comment).
func WithWidthMultiplier(n int) Option {
	return func(o *options) { o.cfg = o.cfg.WidthMultiplier(n) }
}

// WithLatencyTable overrides the default per-opcode latency table, e.g.
// loaded from timing/latency.LoadConfig.
func WithLatencyTable(t *latency.Table) Option {
	return func(o *options) { o.latencyTable = t }
}

// WithMemorySystem overrides the memory-timing backend outright.
func WithMemorySystem(m MemorySystem) Option {
	return func(o *options) { o.memSystem = m }
}

// WithCachedMemory swaps in a cache-backed MemorySystem (timing/memsys.
// CachedMemorySystem) over mem, using cfg's hit/miss latencies for LW/SW
// instead of the flat latency table. Off by default; wiring this in
// changes only memory-operation timing, never the instruction semantics.
func WithCachedMemory(mem *core.Memory, cfg memsys.CacheConfig) Option {
	return func(o *options) {
		o.memSystem = memsys.NewCached(mem, o.latencyTable, cfg)
	}
}

// Engine is the Tomasulo cycle engine: one register file, one memory, and
// the five speculative-execution structures (ROB, two RS/LSB operand
// tables, RAT, predictor), advanced one cycle at a time by Step.
type Engine struct {
	cfg Config

	regFile *core.RegFile
	mem     *core.Memory
	memSys  MemorySystem
	latTbl  *latency.Table

	rob       *rob.ROB
	rs        *rs.Table
	lsb       *lsb.Buffer
	rat       *rat.Table
	predictor *predictor.Predictor

	initialProgram []*isa.Instruction // pristine clone, for Reset
	program        []*isa.Instruction
	byPC           map[uint64]*isa.Instruction

	pc               uint64
	cycle            uint64
	halted           bool
	checkpoints      map[int]rat.Checkpoint
	nextCheckpointID int
	activeCheckpoint int // rob.NoCheckpoint if none

	stats Stats
}

// New builds an Engine over regFile and mem, empty of any program until
// Load is called.
func New(regFile *core.RegFile, mem *core.Memory, opts ...Option) *Engine {
	o := options{cfg: DefaultConfig(), latencyTable: latency.NewTable()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.memSystem == nil {
		o.memSystem = memsys.NewFlat(mem, o.latencyTable)
	}

	e := &Engine{
		cfg:     o.cfg,
		regFile: regFile,
		mem:     mem,
		memSys:  o.memSystem,
		latTbl:  o.latencyTable,
	}
	e.rebuildStructures()
	return e
}

func (e *Engine) rebuildStructures() {
	e.rob = rob.New(e.cfg.ROBSize)
	e.rs = rs.New(e.cfg.RSCount)
	e.lsb = lsb.New(e.cfg.LSBSize)
	e.rat = rat.New()
	e.predictor = predictor.New()
	e.pc = 0
	e.cycle = 0
	e.halted = false
	e.checkpoints = make(map[int]rat.Checkpoint)
	e.nextCheckpointID = 1
	e.activeCheckpoint = rob.NoCheckpoint
	e.stats = Stats{}
}

// Load parses programText, resetting every piece of engine state — ROB,
// RS, LSB, RAT, predictor, checkpoints, register file, memory, program
// counter, and statistics — to a fresh start. Malformed lines degrade to
// NOP (parser.Parse never fails).
func (e *Engine) Load(programText string) {
	e.LoadProgram(parser.Parse(programText))
}

// LoadProgram installs an already-parsed instruction stream, with the
// same full reset Load performs.
func (e *Engine) LoadProgram(program []*isa.Instruction) {
	e.initialProgram = cloneProgram(program)
	e.regFile.Reset()
	e.mem.Reset()
	e.rebuildStructures()
	e.installProgram()
}

func (e *Engine) installProgram() {
	e.program = cloneProgram(e.initialProgram)
	e.byPC = make(map[uint64]*isa.Instruction, len(e.program))
	for _, in := range e.program {
		e.byPC[in.PC] = in
	}
}

func cloneProgram(program []*isa.Instruction) []*isa.Instruction {
	out := make([]*isa.Instruction, len(program))
	for i, in := range program {
		cp := *in
		out[i] = &cp
	}
	return out
}

// Reset restores the engine to the state it was in immediately after the
// last Load/LoadProgram call: same program, zeroed register file and
// memory, empty ROB/RS/LSB/RAT, and zeroed statistics.
func (e *Engine) Reset() {
	e.regFile.Reset()
	e.mem.Reset()
	e.rebuildStructures()
	e.installProgram()
}

// Halted reports whether the engine has reached the halt condition
// ROB, RS, and LSB all empty, and every instruction is
// Committed, Flushed, or a NOP.
func (e *Engine) Halted() bool { return e.halted }

// Cycle returns the number of cycles executed so far.
func (e *Engine) Cycle() uint64 { return e.cycle }

// Stats returns a copy of the accumulated statistics.
func (e *Engine) Stats() Stats { return e.stats }

// Config returns the engine's structural configuration.
func (e *Engine) Config() Config { return e.cfg }

// RegFile returns the architectural register file for read-only
// rendering.
func (e *Engine) RegFile() *core.RegFile { return e.regFile }

// Memory returns the backing memory for read-only rendering.
func (e *Engine) Memory() *core.Memory { return e.mem }

// ROB returns the reorder buffer for read-only rendering.
func (e *Engine) ROB() *rob.ROB { return e.rob }

// RS returns the reservation station table for read-only rendering.
func (e *Engine) RS() *rs.Table { return e.rs }

// LSB returns the load/store buffer for read-only rendering.
func (e *Engine) LSB() *lsb.Buffer { return e.lsb }

// Predictor returns the branch predictor for read-only rendering.
func (e *Engine) Predictor() *predictor.Predictor { return e.predictor }

// Program returns the current instruction stream, including every
// mutable pipeline annotation (state, cycles, speculative flag). Callers
// must not mutate it.
func (e *Engine) Program() []*isa.Instruction { return e.program }

// PC returns the current program counter.
func (e *Engine) PC() uint64 { return e.pc }

// Step advances the engine by exactly one cycle, running the five stages
// in a fixed order: Commit, Write-Result/CDB, Branch Resolution, Execute,
// Issue. A halted engine is a no-op, returning the zero StepResult.
func (e *Engine) Step() StepResult {
	if e.halted {
		return StepResult{}
	}

	e.cycle++
	log := &events.Log{}

	committedCount := e.doCommit(log)
	e.doWriteResult(log)
	e.doResolveBranches(log)
	e.doExecute()
	issuedCount := e.doIssue(log)

	e.stats.Cycle = e.cycle
	e.stats.occupancySumROB += int64(e.rob.Occupancy())
	e.stats.occupancySumRS += int64(e.rs.Occupancy())
	e.stats.occupancySumLSB += int64(e.lsb.Occupancy())

	if e.rob.Empty() && e.rs.Empty() && e.lsb.Empty() && e.allInstructionsRetired() {
		e.halted = true
		log.Halt(e.cycle)
	}

	return StepResult{
		Cycle:          e.cycle,
		IssuedCount:    issuedCount,
		CommittedCount: committedCount,
		TotalStalls:    e.stats.Stalls,
		TotalCommitted: e.stats.Committed,
		Events:         log.Strings(),
	}
}

// Run repeatedly steps the engine until it halts or maxCycles is reached
// (0 means unbounded), returning the events from every cycle in order.
// This is a convenience wrapper; it adds no semantics beyond calling Step
// in a loop.
func (e *Engine) Run(maxCycles uint64) []string {
	var all []string
	for !e.halted {
		if maxCycles > 0 && e.cycle >= maxCycles {
			break
		}
		r := e.Step()
		all = append(all, r.Events...)
	}
	return all
}

func (e *Engine) allInstructionsRetired() bool {
	for _, in := range e.program {
		if in.Op == isa.OpNOP {
			continue
		}
		if in.State != isa.StateCommitted && in.State != isa.StateFlushed {
			return false
		}
	}
	return true
}
