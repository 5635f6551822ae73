package memsys_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasulo/core"
	"github.com/sarchlab/tomasulo/isa"
	"github.com/sarchlab/tomasulo/timing/latency"
	"github.com/sarchlab/tomasulo/timing/memsys"
)

func TestMemSys(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Memory System Suite")
}

var _ = Describe("FlatMemorySystem", func() {
	It("charges the fixed latency-table cycle count regardless of address", func() {
		mem := core.NewMemory()
		tbl := latency.NewTable()
		sys := memsys.NewFlat(mem, tbl)

		Expect(sys.Latency(isa.OpLW, 0)).To(Equal(uint64(3)))
		Expect(sys.Latency(isa.OpLW, 4096)).To(Equal(uint64(3)))
		Expect(sys.Latency(isa.OpSW, 0)).To(Equal(uint64(2)))
	})

	It("reads and writes straight through to the backing memory", func() {
		mem := core.NewMemory()
		sys := memsys.NewFlat(mem, latency.NewTable())

		sys.Write(100, 42)
		Expect(sys.Read(100)).To(Equal(int64(42)))
		Expect(mem.Read(100)).To(Equal(int64(42)))
	})
})

var _ = Describe("CachedMemorySystem", func() {
	It("charges miss latency the first time a block is touched, then hit latency", func() {
		mem := core.NewMemory()
		cfg := memsys.DefaultCacheConfig()
		sys := memsys.NewCached(mem, latency.NewTable(), cfg)

		Expect(sys.Latency(isa.OpLW, 0)).To(Equal(cfg.MissLatency))
		Expect(sys.Latency(isa.OpLW, 0)).To(Equal(cfg.HitLatency))
	})

	It("still reads and writes through to the backing memory regardless of hit/miss", func() {
		mem := core.NewMemory()
		sys := memsys.NewCached(mem, latency.NewTable(), memsys.DefaultCacheConfig())

		sys.Write(64, 7)
		Expect(sys.Read(64)).To(Equal(int64(7)))
	})

	It("falls back to the flat latency table for non-memory opcodes", func() {
		mem := core.NewMemory()
		tbl := latency.NewTable()
		sys := memsys.NewCached(mem, tbl, memsys.DefaultCacheConfig())

		Expect(sys.Latency(isa.OpBEQ, 0)).To(Equal(tbl.GetLatency(isa.OpBEQ)))
	})
})
