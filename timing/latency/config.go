// Package latency provides instruction timing models for cycle-accurate
// Tomasulo simulation. Values follow the reference latency table and can
// be overridden via TimingConfig, a JSON-backed configuration struct.
package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds the per-opcode execution latency, in cycles.
type TimingConfig struct {
	// ADDLatency is the latency for ADD. Default: 2 cycles.
	ADDLatency uint64 `json:"add_latency"`
	// SUBLatency is the latency for SUB. Default: 2 cycles.
	SUBLatency uint64 `json:"sub_latency"`
	// MULLatency is the latency for MUL. Default: 4 cycles.
	MULLatency uint64 `json:"mul_latency"`
	// DIVLatency is the latency for DIV. Default: 8 cycles.
	DIVLatency uint64 `json:"div_latency"`
	// LWLatency is the latency for LW. Default: 3 cycles.
	LWLatency uint64 `json:"lw_latency"`
	// SWLatency is the latency for SW. Default: 2 cycles.
	SWLatency uint64 `json:"sw_latency"`
	// BEQLatency is the latency for BEQ. Default: 1 cycle.
	BEQLatency uint64 `json:"beq_latency"`
	// NOPLatency is the latency for NOP. Default: 1 cycle.
	NOPLatency uint64 `json:"nop_latency"`
}

// DefaultTimingConfig returns the reference per-opcode latencies.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ADDLatency: 2,
		SUBLatency: 2,
		MULLatency: 4,
		DIVLatency: 8,
		LWLatency:  3,
		SWLatency:  2,
		BEQLatency: 1,
		NOPLatency: 1,
	}
}

// LoadConfig loads a TimingConfig from a JSON file, starting from the
// defaults so a partial file only overrides what it specifies.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that every latency is at least 1 cycle.
func (c *TimingConfig) Validate() error {
	for name, v := range map[string]uint64{
		"add_latency": c.ADDLatency,
		"sub_latency": c.SUBLatency,
		"mul_latency": c.MULLatency,
		"div_latency": c.DIVLatency,
		"lw_latency":  c.LWLatency,
		"sw_latency":  c.SWLatency,
		"beq_latency": c.BEQLatency,
		"nop_latency": c.NOPLatency,
	} {
		if v == 0 {
			return fmt.Errorf("%s must be > 0", name)
		}
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
