package latency_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasulo/isa"
	"github.com/sarchlab/tomasulo/timing/latency"
)

func tempConfigPath() string {
	return filepath.Join(GinkgoT().TempDir(), "timing.json")
}

func TestLatency(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Latency Suite")
}

var _ = Describe("Table", func() {
	It("returns the reference per-opcode default latencies", func() {
		tbl := latency.NewTable()
		Expect(tbl.GetLatency(isa.OpADD)).To(Equal(uint64(2)))
		Expect(tbl.GetLatency(isa.OpSUB)).To(Equal(uint64(2)))
		Expect(tbl.GetLatency(isa.OpMUL)).To(Equal(uint64(4)))
		Expect(tbl.GetLatency(isa.OpDIV)).To(Equal(uint64(8)))
		Expect(tbl.GetLatency(isa.OpLW)).To(Equal(uint64(3)))
		Expect(tbl.GetLatency(isa.OpSW)).To(Equal(uint64(2)))
		Expect(tbl.GetLatency(isa.OpBEQ)).To(Equal(uint64(1)))
		Expect(tbl.GetLatency(isa.OpNOP)).To(Equal(uint64(1)))
	})

	It("honors a custom configuration", func() {
		cfg := latency.DefaultTimingConfig()
		cfg.MULLatency = 40
		tbl := latency.NewTableWithConfig(cfg)
		Expect(tbl.GetLatency(isa.OpMUL)).To(Equal(uint64(40)))
	})
})

var _ = Describe("TimingConfig", func() {
	It("round-trips through JSON, overriding only what the file specifies", func() {
		path := tempConfigPath()
		Expect(os.WriteFile(path, []byte(`{"mul_latency": 10}`), 0644)).To(Succeed())

		cfg, err := latency.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.MULLatency).To(Equal(uint64(10)))
		Expect(cfg.ADDLatency).To(Equal(uint64(2))) // untouched, stays default
	})

	It("fails to load a missing file", func() {
		_, err := latency.LoadConfig("/nonexistent/timing.json")
		Expect(err).To(HaveOccurred())
	})

	It("validates that every latency is positive", func() {
		cfg := latency.DefaultTimingConfig()
		Expect(cfg.Validate()).To(Succeed())
		cfg.ADDLatency = 0
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("clones independently of the original", func() {
		cfg := latency.DefaultTimingConfig()
		clone := cfg.Clone()
		clone.ADDLatency = 99
		Expect(cfg.ADDLatency).To(Equal(uint64(2)))
	})

	It("saves and reloads to the same values", func() {
		path := tempConfigPath()
		cfg := latency.DefaultTimingConfig()
		cfg.DIVLatency = 20
		Expect(cfg.SaveConfig(path)).To(Succeed())

		reloaded, err := latency.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(reloaded.DIVLatency).To(Equal(uint64(20)))
	})
})
