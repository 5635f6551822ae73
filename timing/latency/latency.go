package latency

import "github.com/sarchlab/tomasulo/isa"

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with the reference default values.
func NewTable() *Table {
	return &Table{config: DefaultTimingConfig()}
}

// NewTableWithConfig creates a new latency table with a custom configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{config: config}
}

// GetLatency returns the execution latency in cycles for the given opcode.
func (t *Table) GetLatency(op isa.Op) uint64 {
	switch op {
	case isa.OpADD:
		return t.config.ADDLatency
	case isa.OpSUB:
		return t.config.SUBLatency
	case isa.OpMUL:
		return t.config.MULLatency
	case isa.OpDIV:
		return t.config.DIVLatency
	case isa.OpLW:
		return t.config.LWLatency
	case isa.OpSW:
		return t.config.SWLatency
	case isa.OpBEQ:
		return t.config.BEQLatency
	default:
		return t.config.NOPLatency
	}
}

// Config returns the underlying timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
