package cpu_test

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rv32i/rv32isim/pkg/cpu"
	"github.com/rv32i/rv32isim/pkg/memory"
	"github.com/rv32i/rv32isim/pkg/regfile"
	"github.com/rv32i/rv32isim/pkg/rvasm"
)

func loadWords(mem *memory.Memory, addr uint32, words ...uint32) {
	for _, w := range words {
		Expect(mem.WriteU32LE(addr, w)).To(Succeed())
		addr += 4
	}
}

var _ = Describe("CPU", func() {
	var (
		mem     *memory.Memory
		machine *cpu.CPU
	)

	BeforeEach(func() {
		mem = memory.New()
		machine = cpu.New(mem)
	})

	Describe("S1: minimal halt", func() {
		It("retires slli then ebreak and halts", func() {
			loadWords(mem, memory.Base,
				rvasm.SLLI(0, 0, 31), // slli zero,zero,31
				rvasm.EBREAK(),
			)
			line1, err := machine.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(line1).To(ContainSubstring("slli"))
			Expect(machine.Reg.Get(0)).To(Equal(uint32(0)))

			line2, err := machine.Step()
			Expect(errors.Is(err, cpu.ErrHalted)).To(BeTrue())
			Expect(line2).To(ContainSubstring("ebreak"))
		})
	})

	Describe("S2: jal + halt", func() {
		It("jumps from 0x80000000 to 0x80000100 then halts at ebreak", func() {
			loadWords(mem, memory.Base, rvasm.JAL(0, 0x100))
			loadWords(mem, memory.Base+0x100,
				rvasm.SLLI(0, 0, 0x1f),
				rvasm.EBREAK(),
				rvasm.SRAI(0, 0, 0x7),
			)

			_, err := machine.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(machine.PC).To(Equal(memory.Base + 0x100))

			_, err = machine.Step()
			Expect(err).NotTo(HaveOccurred())

			_, err = machine.Step()
			Expect(errors.Is(err, cpu.ErrHalted)).To(BeTrue())
		})
	})

	Describe("S3: add/sub wrap", func() {
		It("wraps addi across the 32-bit boundary", func() {
			const a0, a1 = 10, 11
			loadWords(mem, memory.Base,
				rvasm.ADDI(a0, 0, -1),
				rvasm.ADDI(a1, a0, 1),
			)
			_, err := machine.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(machine.Reg.Get(a0)).To(Equal(uint32(0xFFFFFFFF)))

			_, err = machine.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(machine.Reg.Get(a1)).To(Equal(uint32(0)))
		})
	})

	Describe("S4: signed vs unsigned compare", func() {
		It("differs between slt and sltu on the same bit pattern", func() {
			const a0, a1, a2, a3 = 10, 11, 12, 13
			machine.Reg.Set(a0, 0xFFFFFFFF)
			machine.Reg.Set(a1, 1)
			loadWords(mem, memory.Base,
				rvasm.SLT(a2, a0, a1),
				rvasm.SLTU(a3, a0, a1),
			)
			_, err := machine.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(machine.Reg.Get(a2)).To(Equal(uint32(1)))

			_, err = machine.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(machine.Reg.Get(a3)).To(Equal(uint32(0)))
		})
	})

	Describe("S5: load/store round-trip", func() {
		It("round-trips a word then sign-extends a byte read of it", func() {
			const a0, a1, a2, sp = 10, 11, 12, 2
			machine.Reg.Set(sp, memory.Base+memory.Size-16)
			machine.Reg.Set(a0, 0xDEADBEEF)
			loadWords(mem, memory.Base,
				rvasm.SW(sp, a0, 0),
				rvasm.LW(a1, sp, 0),
				rvasm.LB(a2, sp, 0),
			)
			_, err := machine.Step()
			Expect(err).NotTo(HaveOccurred())

			_, err = machine.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(machine.Reg.Get(a1)).To(Equal(uint32(0xDEADBEEF)))

			_, err = machine.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(machine.Reg.Get(a2)).To(Equal(uint32(0xFFFFFFEF)))
		})
	})

	Describe("S6: branch taken/not-taken", func() {
		It("advances PC by 8 when equal, by 4 when not", func() {
			const a0, a1 = 10, 11
			machine.Reg.Set(a0, 5)
			machine.Reg.Set(a1, 5)
			loadWords(mem, memory.Base, rvasm.BEQ(a0, a1, 8))
			_, err := machine.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(machine.PC).To(Equal(memory.Base + 8))
		})

		It("falls through when not equal", func() {
			const a0, a1 = 10, 11
			machine.Reg.Set(a0, 5)
			machine.Reg.Set(a1, 6)
			loadWords(mem, memory.Base, rvasm.BEQ(a0, a1, 8))
			_, err := machine.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(machine.PC).To(Equal(memory.Base + 4))
		})
	})

	Describe("register zero discipline", func() {
		It("discards writes through jal rd=0 without moving any register", func() {
			loadWords(mem, memory.Base, rvasm.JAL(0, 0x100))
			var before [regfile.NumRegisters]uint32
			for i := range before {
				before[i] = machine.Reg.Get(uint32(i))
			}
			_, err := machine.Step()
			Expect(err).NotTo(HaveOccurred())
			for i := uint32(1); i < regfile.NumRegisters; i++ {
				Expect(machine.Reg.Get(i)).To(Equal(before[i]))
			}
			Expect(machine.Reg.Get(0)).To(Equal(uint32(0)))
		})

		It("still jumps through jalr rd=0 without moving any register", func() {
			const t0 = 5
			machine.Reg.Set(t0, memory.Base+0x40)
			loadWords(mem, memory.Base, rvasm.JALR(0, t0, 0))
			_, err := machine.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(machine.PC).To(Equal(memory.Base + 0x40))
			Expect(machine.Reg.Get(0)).To(Equal(uint32(0)))
		})
	})

	Describe("shifts", func() {
		It("keeps the sign bit when sra shifts a negative value", func() {
			const a0, a1 = 10, 11
			machine.Reg.Set(a0, 0x80000000) // a very negative number
			machine.Reg.Set(a1, 4)
			loadWords(mem, memory.Base, rvasm.SRA(12, a0, a1))
			_, err := machine.Step()
			Expect(err).NotTo(HaveOccurred())
			// Arithmetic shift right of a negative value keeps the high bit set.
			Expect(machine.Reg.Get(12) & 0x80000000).To(Equal(uint32(0x80000000)))
		})
	})

	Describe("unknown opcode", func() {
		It("halts with a wrapped ErrUnknownOpcode and renders the error line", func() {
			loadWords(mem, memory.Base, 0x00000000) // opcode 0 is not a valid RV32I opcode
			line, err := machine.Step()
			Expect(line).To(Equal("error: unknown instruction opcode 0b0000000 (0x00) at pc = 0x80000000"))
			Expect(errors.Is(err, cpu.ErrUnknownOpcode)).To(BeTrue())
		})

		It("also rejects an undefined branch funct3 rather than garbling the trace", func() {
			loadWords(mem, memory.Base, rvasm.BEQ(10, 11, 8)|(0b010<<12)) // funct3=010 is not a defined branch
			line, err := machine.Step()
			Expect(errors.Is(err, cpu.ErrUnknownOpcode)).To(BeTrue())
			Expect(line).To(ContainSubstring("unknown instruction opcode"))
		})
	})

	Describe("driver", func() {
		It("runs S1 end to end and writes one trace line per instruction", func() {
			loadWords(mem, memory.Base,
				rvasm.SLLI(0, 0, 31),
				rvasm.EBREAK(),
			)
			var buf bytes.Buffer
			driver := cpu.NewDriver(machine, &buf)
			Expect(driver.Run()).To(Succeed())
			Expect(driver.State).To(Equal(cpu.Halted))
			lines := bytes.Count(buf.Bytes(), []byte("\n"))
			Expect(lines).To(Equal(2))
		})

		It("returns the unknown-opcode error, still stops cleanly, and writes the error line to every sink", func() {
			loadWords(mem, memory.Base, 0x00000000)
			var buf bytes.Buffer
			driver := cpu.NewDriver(machine, &buf)
			err := driver.Run()
			Expect(errors.Is(err, cpu.ErrUnknownOpcode)).To(BeTrue())
			Expect(driver.State).To(Equal(cpu.Halted))
			Expect(buf.String()).To(ContainSubstring("error: unknown instruction opcode"))
		})
	})
})
