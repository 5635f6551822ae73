// Package main provides the entry point for the Tomasulo simulator CLI.
// It loads a MIPS-like assembly program, runs it to completion on the
// cycle engine, and prints a timing report.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/tomasulo/core"
	"github.com/sarchlab/tomasulo/timing/engine"
	"github.com/sarchlab/tomasulo/timing/latency"
	"github.com/sarchlab/tomasulo/timing/memsys"
)

var (
	configPath  = flag.String("config", "", "Path to timing configuration JSON file")
	superscalar = flag.Bool("superscalar", false, "Use the superscalar configuration (width 2, larger ROB/RS/LSB)")
	width       = flag.Int("width", 1, "Multiply issue/commit width by this factor")
	robSize     = flag.Int("rob", 0, "Override ROB size (0 keeps the selected config's default)")
	useCache    = flag.Bool("cache", false, "Route loads/stores through a directory cache instead of the flat latency table")
	maxCycles   = flag.Uint64("max-cycles", 100000, "Safety bound on cycles to run (0 means unbounded)")
	verbose     = flag.Bool("v", false, "Print the per-cycle event log once the run finishes")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: tomasulo [options] <program.asm>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)
	text, err := os.ReadFile(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading program: %v\n", err)
		os.Exit(1)
	}

	timingConfig := latency.DefaultTimingConfig()
	if *configPath != "" {
		timingConfig, err = latency.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading timing config: %v\n", err)
			os.Exit(1)
		}
	}
	latencyTable := latency.NewTableWithConfig(timingConfig)

	cfg := engine.ScalarConfig()
	if *superscalar {
		cfg = engine.SuperscalarConfig()
	}
	if *width > 1 {
		cfg = cfg.WidthMultiplier(*width)
	}
	if *robSize > 0 {
		cfg = cfg.WithROBSize(*robSize)
	}

	regFile := core.NewRegFile()
	mem := core.NewMemory()

	opts := []engine.Option{
		engine.WithConfig(cfg),
		engine.WithLatencyTable(latencyTable),
	}
	if *useCache {
		opts = append(opts, engine.WithCachedMemory(mem, memsys.DefaultCacheConfig()))
	}

	e := engine.New(regFile, mem, opts...)
	e.Load(string(text))

	events := e.Run(*maxCycles)

	if *verbose {
		for _, line := range events {
			fmt.Println(line)
		}
		fmt.Println()
	}

	if !e.Halted() {
		fmt.Fprintf(os.Stderr, "did not halt within %d cycles\n", *maxCycles)
		os.Exit(1)
	}

	printReport(programPath, e)
}

func printReport(programPath string, e *engine.Engine) {
	stats := e.Stats()

	fmt.Printf("Program: %s\n", programPath)
	fmt.Printf("Cycles: %d\n", stats.Cycle)
	fmt.Printf("Committed: %d\n", stats.Committed)
	fmt.Printf("Stalls: %d\n", stats.Stalls)
	fmt.Printf("Mispredictions: %d\n", stats.Mispredictions)
	fmt.Printf("Mean ROB occupancy: %.2f\n", stats.MeanROBOccupancy())
	fmt.Printf("Mean RS occupancy:  %.2f\n", stats.MeanRSOccupancy())
	fmt.Printf("Mean LSB occupancy: %.2f\n", stats.MeanLSBOccupancy())

	fmt.Printf("\nRegisters:\n")
	snap := e.RegFile().Snapshot()
	for i, v := range snap {
		if v == 0 {
			continue
		}
		fmt.Printf("  R%-2d = %d\n", i, v)
	}

	fmt.Printf("\nMemory:\n")
	for addr, v := range e.Memory().Snapshot() {
		fmt.Printf("  [%d] = %d\n", addr, v)
	}
}
