// Package main provides a banner entry point for the Tomasulo simulator.
// It is a cycle-accurate out-of-order dynamic scheduler for a MIPS-like
// instruction set, built around reservation stations, a reorder buffer,
// and register renaming.
//
// For the full CLI, use: go run ./cmd/tomasulo
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("Tomasulo - out-of-order CPU simulator")
	fmt.Println("")
	fmt.Println("Usage: tomasulo [options] <program.asm>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -superscalar   Use the superscalar configuration (width 2)")
	fmt.Println("  -width         Multiply issue/commit width")
	fmt.Println("  -rob           Override ROB size")
	fmt.Println("  -cache         Route loads/stores through a directory cache")
	fmt.Println("  -config        Path to timing configuration JSON file")
	fmt.Println("  -v             Verbose per-cycle event output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/tomasulo' for the full CLI, or")
	fmt.Println("'go run ./cmd/tomasulo-check' for the scenario validator.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/tomasulo' instead.")
	}
}
