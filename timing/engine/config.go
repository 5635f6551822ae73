// Package engine implements the Tomasulo cycle engine: the data structures
// and per-cycle stage ordering (Commit, Write-Result/CDB, Branch
// Resolution, Execute, Issue). It is the single synchronous core; external
// collaborators (a text parser, a GUI) only ever call Load, Step, and the
// read-only accessors.
package engine

// Config controls the structural sizing and width of the engine: a plain
// struct with named default constructors instead of a long parameter list.
type Config struct {
	// IssueWidth, CommitWidth bound how many instructions the Issue and
	// Commit stages process per cycle. Default 1. There is no separate
	// fetch stage: Issue both selects the next instruction and dispatches
	// it in the same step.
	IssueWidth  int
	CommitWidth int

	// ROBSize, RSCount, LSBSize are the fixed slot-array sizes.
	// Defaults: 16/8/8 (scalar), 32/16/16 (superscalar).
	ROBSize int
	RSCount int
	LSBSize int
}

// DefaultConfig returns the scalar configuration: width 1, ROB/RS/LSB =
// 16/8/8.
func DefaultConfig() Config {
	return Config{
		IssueWidth:  1,
		CommitWidth: 1,
		ROBSize:     16,
		RSCount:     8,
		LSBSize:     8,
	}
}

// ScalarConfig is an alias for DefaultConfig, named to mirror the
// single-issue "scalar" architecture mode.
func ScalarConfig() Config {
	return DefaultConfig()
}

// SuperscalarConfig returns width-2, ROB/RS/LSB = 32/16/16, the dual-issue
// "superscalar" architecture mode.
func SuperscalarConfig() Config {
	return Config{
		IssueWidth:  2,
		CommitWidth: 2,
		ROBSize:     32,
		RSCount:     16,
		LSBSize:     16,
	}
}

// WidthMultiplier scales Issue/CommitWidth uniformly by n, a coarse
// stand-in for a multithreading-mode selector without modeling actual
// multithreading — there is still exactly one program counter and one
// register file. n=1 is a no-op.
func (c Config) WidthMultiplier(n int) Config {
	if n < 1 {
		n = 1
	}
	c.IssueWidth *= n
	c.CommitWidth *= n
	return c
}

// WithROBSize returns a copy of c with ROBSize overridden.
func (c Config) WithROBSize(n int) Config { c.ROBSize = n; return c }

// WithRSCount returns a copy of c with RSCount overridden.
func (c Config) WithRSCount(n int) Config { c.RSCount = n; return c }

// WithLSBSize returns a copy of c with LSBSize overridden.
func (c Config) WithLSBSize(n int) Config { c.LSBSize = n; return c }

// WithIssueWidth returns a copy of c with IssueWidth overridden.
func (c Config) WithIssueWidth(n int) Config {
	c.IssueWidth = n
	return c
}
