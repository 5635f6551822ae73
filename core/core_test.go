package core_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasulo/core"
)

func TestCore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Core Suite")
}

var _ = Describe("RegFile", func() {
	var rf *core.RegFile

	BeforeEach(func() {
		rf = core.NewRegFile()
	})

	It("hardwires R0 to zero", func() {
		rf.Write(0, 99)
		Expect(rf.Read(0)).To(Equal(int64(0)))
	})

	It("reads back a written register", func() {
		rf.Write(5, 42)
		Expect(rf.Read(5)).To(Equal(int64(42)))
	})

	It("reads zero for an out-of-range index", func() {
		Expect(rf.Read(-1)).To(Equal(int64(0)))
		Expect(rf.Read(32)).To(Equal(int64(0)))
	})

	It("discards writes to an out-of-range index", func() {
		rf.Write(32, 7)
		Expect(rf.Read(32)).To(Equal(int64(0)))
	})

	It("resets every register to zero", func() {
		rf.Write(3, 10)
		rf.Reset()
		Expect(rf.Read(3)).To(Equal(int64(0)))
	})

	It("snapshots all 32 registers", func() {
		rf.Write(1, 1)
		snap := rf.Snapshot()
		Expect(snap[1]).To(Equal(int64(1)))
		Expect(len(snap)).To(Equal(core.RegisterCount))
	})
})

var _ = Describe("Memory", func() {
	var mem *core.Memory

	BeforeEach(func() {
		mem = core.NewMemory()
	})

	It("reads zero from an address never written", func() {
		Expect(mem.Read(100)).To(Equal(int64(0)))
	})

	It("reads back a written word", func() {
		mem.Write(100, 42)
		Expect(mem.Read(100)).To(Equal(int64(42)))
	})

	It("tracks how many addresses have been written", func() {
		mem.Write(0, 1)
		mem.Write(4, 2)
		Expect(mem.Len()).To(Equal(2))
	})

	It("resets to empty", func() {
		mem.Write(0, 1)
		mem.Reset()
		Expect(mem.Len()).To(Equal(0))
		Expect(mem.Read(0)).To(Equal(int64(0)))
	})

	It("snapshots without aliasing internal state", func() {
		mem.Write(8, 5)
		snap := mem.Snapshot()
		snap[8] = 999
		Expect(mem.Read(8)).To(Equal(int64(5)))
	})
})
