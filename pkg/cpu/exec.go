package cpu

import (
	"fmt"

	"github.com/rv32i/rv32isim/pkg/memory"
	"github.com/rv32i/rv32isim/pkg/regfile"
)

// CPU bundles the register file, the program counter, and the memory it
// executes against. It is not goroutine-safe; a single goroutine should
// drive it.
type CPU struct {
	Reg *regfile.RegisterFile
	Mem *memory.Memory
	PC  uint32
}

// New returns a CPU with a fresh register file and PC initialized to the
// memory base address.
func New(mem *memory.Memory) *CPU {
	return &CPU{
		Reg: regfile.New(),
		Mem: mem,
		PC:  memory.Base,
	}
}

// Fetch reads the 4-byte little-endian instruction word at PC.
func (c *CPU) Fetch() (uint32, error) {
	return c.Mem.ReadU32LE(c.PC)
}

// Step fetches, decodes, and executes exactly one instruction, updates PC,
// and returns the rendered trace line for the retired instruction. It
// returns ErrHalted after an ebreak retires (the trace line is still
// valid and should be emitted), and for any unrecognized encoding returns
// a wrapped ErrUnknownOpcode alongside the rendered error line, which the
// caller must still emit before halting.
func (c *CPU) Step() (line string, err error) {
	ci, err := c.Fetch()
	if err != nil {
		return "", err
	}
	pc := c.PC
	in := Decode(ci)

	switch in.Kind {
	case KindEbreak:
		c.PC = pc + 4
		return fmt.Sprintf("0x%08x:ebreak", pc), ErrHalted
	case KindLUI:
		line = execLUI(c, pc, in)
	case KindAUIPC:
		line = execAUIPC(c, pc, in)
	case KindJAL:
		line = execJAL(c, pc, in)
	case KindJALR:
		line = execJALR(c, pc, in)
	case KindBranch:
		line = execBranch(c, pc, in)
	case KindLoad:
		line, err = execLoad(c, pc, in)
	case KindStore:
		line, err = execStore(c, pc, in)
	case KindOpImm:
		line = execOpImm(c, pc, in)
	case KindOp:
		line = execOp(c, pc, in)
	default:
		return unknownOpcodeLine(ci, pc), unknownOpcodeError(ci, pc)
	}
	return line, err
}

func execLUI(c *CPU, pc uint32, in Instruction) string {
	result := in.ImmU
	c.Reg.Set(in.RD, result)
	c.PC = pc + 4
	return fmt.Sprintf("0x%08x:lui    %s,0x%x          %s=0x%08x",
		pc, regfile.Name(in.RD), in.ImmU>>12, regfile.Name(in.RD), result)
}

func execAUIPC(c *CPU, pc uint32, in Instruction) string {
	result := pc + in.ImmU
	c.Reg.Set(in.RD, result)
	c.PC = pc + 4
	return fmt.Sprintf("0x%08x:auipc  %s,0x%x          %s=0x%08x+0x%08x=0x%08x",
		pc, regfile.Name(in.RD), in.ImmU>>12, regfile.Name(in.RD), pc, in.ImmU, result)
}

func execJAL(c *CPU, pc uint32, in Instruction) string {
	link := pc + 4
	target := pc + uint32(in.ImmJ)
	c.Reg.Set(in.RD, link)
	c.PC = target
	return fmt.Sprintf("0x%08x:jal    %s,0x%x        pc=0x%08x,%s=0x%08x",
		pc, regfile.Name(in.RD), uint32(in.ImmJ)&0x1fffff, target, regfile.Name(in.RD), link)
}

func execJALR(c *CPU, pc uint32, in Instruction) string {
	rs1v := c.Reg.Get(in.RS1)
	link := pc + 4
	target := (rs1v + uint32(in.ImmI)) &^ 1
	c.Reg.Set(in.RD, link)
	c.PC = target
	return fmt.Sprintf("0x%08x:jalr   %s,%s,0x%x       pc=0x%08x+%08x,%s=0x%08x",
		pc, regfile.Name(in.RD), regfile.Name(in.RS1), uint32(in.ImmI)&0xfff,
		rs1v, uint32(in.ImmI), regfile.Name(in.RD), link)
}

var branchNames = map[uint32]struct {
	name string
	op   string
}{
	0b000: {"beq", "=="},
	0b001: {"bne", "!="},
	0b100: {"blt", "<"},
	0b101: {"bge", ">="},
	0b110: {"bltu", "<"},
	0b111: {"bgeu", ">="},
}

func execBranch(c *CPU, pc uint32, in Instruction) string {
	rs1v, rs2v := c.Reg.Get(in.RS1), c.Reg.Get(in.RS2)
	meta := branchNames[in.Funct3]
	var taken bool
	switch in.Funct3 {
	case 0b000:
		taken = rs1v == rs2v
	case 0b001:
		taken = rs1v != rs2v
	case 0b100:
		taken = int32(rs1v) < int32(rs2v)
	case 0b101:
		taken = int32(rs1v) >= int32(rs2v)
	case 0b110:
		taken = rs1v < rs2v
	case 0b111:
		taken = rs1v >= rs2v
	}
	result := 0
	if taken {
		result = 1
	}
	target := pc + 4
	if taken {
		target = pc + uint32(in.ImmB)
	}
	c.PC = target
	return fmt.Sprintf("0x%08x:%-7s%s,%s,0x%x         (%08x%s%08x)=%d->pc=0x%08x",
		pc, meta.name, regfile.Name(in.RS1), regfile.Name(in.RS2), uint32(in.ImmB)&0x1fff,
		rs1v, meta.op, rs2v, result, target)
}

func execLoad(c *CPU, pc uint32, in Instruction) (string, error) {
	rs1v := c.Reg.Get(in.RS1)
	addr := rs1v + uint32(in.ImmI)
	var name string
	var data uint32
	switch in.Funct3 {
	case 0b000: // lb
		name = "lb"
		b, err := c.Mem.ReadU8(addr)
		if err != nil {
			return "", err
		}
		data = uint32(int32(int8(b)))
	case 0b001: // lh
		name = "lh"
		h, err := c.Mem.ReadU16LE(addr)
		if err != nil {
			return "", err
		}
		data = uint32(int32(int16(h)))
	case 0b010: // lw
		name = "lw"
		w, err := c.Mem.ReadU32LE(addr)
		if err != nil {
			return "", err
		}
		data = w
	case 0b100: // lbu
		name = "lbu"
		b, err := c.Mem.ReadU8(addr)
		if err != nil {
			return "", err
		}
		data = uint32(b)
	case 0b101: // lhu
		name = "lhu"
		h, err := c.Mem.ReadU16LE(addr)
		if err != nil {
			return "", err
		}
		data = uint32(h)
	default:
		return unknownOpcodeLine(in.Raw, pc), unknownOpcodeError(in.Raw, pc)
	}
	c.Reg.Set(in.RD, data)
	c.PC = pc + 4
	return fmt.Sprintf("0x%08x:%-7s%s,%d(%s)        %s=mem[0x%08x]=0x%08x",
		pc, name, regfile.Name(in.RD), in.ImmI, regfile.Name(in.RS1), regfile.Name(in.RD), addr, data), nil
}

func execStore(c *CPU, pc uint32, in Instruction) (string, error) {
	rs1v, rs2v := c.Reg.Get(in.RS1), c.Reg.Get(in.RS2)
	addr := rs1v + uint32(in.ImmS)
	var name string
	switch in.Funct3 {
	case 0b000: // sb
		name = "sb"
		if err := c.Mem.WriteU8(addr, uint8(rs2v)); err != nil {
			return "", err
		}
	case 0b001: // sh
		name = "sh"
		if err := c.Mem.WriteU16LE(addr, uint16(rs2v)); err != nil {
			return "", err
		}
	case 0b010: // sw
		name = "sw"
		if err := c.Mem.WriteU32LE(addr, rs2v); err != nil {
			return "", err
		}
	default:
		return unknownOpcodeLine(in.Raw, pc), unknownOpcodeError(in.Raw, pc)
	}
	c.PC = pc + 4
	return fmt.Sprintf("0x%08x:%-7s%s,%d(%s)      mem[0x%08x]=0x%08x",
		pc, name, regfile.Name(in.RS2), in.ImmS, regfile.Name(in.RS1), addr, rs2v), nil
}

func execOpImm(c *CPU, pc uint32, in Instruction) string {
	rs1v := c.Reg.Get(in.RS1)
	imm := uint32(in.ImmI)
	var name, opStr string
	var data uint32
	switch in.Funct3 {
	case 0b000: // addi
		name = "addi"
		data = rs1v + imm
		opStr = fmt.Sprintf("0x%08x+0x%08x", rs1v, imm)
	case 0b010: // slti
		name = "slti"
		if int32(rs1v) < in.ImmI {
			data = 1
		}
		opStr = fmt.Sprintf("(%08x<%08x)", rs1v, imm)
	case 0b011: // sltiu
		name = "sltiu"
		if rs1v < imm {
			data = 1
		}
		opStr = fmt.Sprintf("(%08x<%08x)", rs1v, imm)
	case 0b100: // xori
		name = "xori"
		data = rs1v ^ imm
		opStr = fmt.Sprintf("0x%08x^0x%08x", rs1v, imm)
	case 0b110: // ori
		name = "ori"
		data = rs1v | imm
		opStr = fmt.Sprintf("0x%08x|0x%08x", rs1v, imm)
	case 0b111: // andi
		name = "andi"
		data = rs1v & imm
		opStr = fmt.Sprintf("0x%08x&0x%08x", rs1v, imm)
	case 0b001: // slli
		name = "slli"
		data = rs1v << in.Shamt
		opStr = fmt.Sprintf("0x%08x<<%d", rs1v, in.Shamt)
	case 0b101:
		if in.Funct7 == 0 { // srli
			name = "srli"
			data = rs1v >> in.Shamt
			opStr = fmt.Sprintf("0x%08x>>%d", rs1v, in.Shamt)
		} else { // srai
			name = "srai"
			data = uint32(int32(rs1v) >> in.Shamt)
			opStr = fmt.Sprintf("0x%08x>>%d", rs1v, in.Shamt)
		}
	}
	c.Reg.Set(in.RD, data)
	c.PC = pc + 4

	var immOperand string
	if in.Funct3 == 0b001 || in.Funct3 == 0b101 {
		immOperand = fmt.Sprintf("%d", in.Shamt)
	} else {
		immOperand = fmt.Sprintf("%d", in.ImmI)
	}
	return fmt.Sprintf("0x%08x:%-7s%s,%s,%s         %s=%s=0x%08x",
		pc, name, regfile.Name(in.RD), regfile.Name(in.RS1), immOperand, regfile.Name(in.RD), opStr, data)
}

func execOp(c *CPU, pc uint32, in Instruction) string {
	rs1v, rs2v := c.Reg.Get(in.RS1), c.Reg.Get(in.RS2)
	shamt := rs2v & 0x1f
	var name, opStr string
	var data uint32
	switch {
	case in.Funct7 == 0b0000001 && in.Funct3 == 0b000: // mul
		name = "mul"
		data = rs1v * rs2v
		opStr = fmt.Sprintf("0x%08x*0x%08x", rs1v, rs2v)
	case in.Funct3 == 0b000 && in.Funct7 == 0: // add
		name = "add"
		data = rs1v + rs2v
		opStr = fmt.Sprintf("0x%08x+0x%08x", rs1v, rs2v)
	case in.Funct3 == 0b000: // sub
		name = "sub"
		data = rs1v - rs2v
		opStr = fmt.Sprintf("0x%08x-0x%08x", rs1v, rs2v)
	case in.Funct3 == 0b001: // sll
		name = "sll"
		data = rs1v << shamt
		opStr = fmt.Sprintf("0x%08x<<%d", rs1v, shamt)
	case in.Funct3 == 0b010: // slt
		name = "slt"
		if int32(rs1v) < int32(rs2v) {
			data = 1
		}
		opStr = fmt.Sprintf("(%08x<%08x)", rs1v, rs2v)
	case in.Funct3 == 0b011: // sltu
		name = "sltu"
		if rs1v < rs2v {
			data = 1
		}
		opStr = fmt.Sprintf("(%08x<%08x)", rs1v, rs2v)
	case in.Funct3 == 0b100: // xor
		name = "xor"
		data = rs1v ^ rs2v
		opStr = fmt.Sprintf("0x%08x^%08x", rs1v, rs2v)
	case in.Funct3 == 0b101 && in.Funct7 == 0: // srl
		name = "srl"
		data = rs1v >> shamt
		opStr = fmt.Sprintf("0x%08x>>%d", rs1v, shamt)
	case in.Funct3 == 0b101: // sra
		name = "sra"
		data = uint32(int32(rs1v) >> shamt)
		opStr = fmt.Sprintf("0x%08x>>%d", rs1v, shamt)
	case in.Funct3 == 0b110: // or
		name = "or"
		data = rs1v | rs2v
		opStr = fmt.Sprintf("0x%08x|0x%08x", rs1v, rs2v)
	case in.Funct3 == 0b111: // and
		name = "and"
		data = rs1v & rs2v
		opStr = fmt.Sprintf("0x%08x&0x%08x", rs1v, rs2v)
	}
	c.Reg.Set(in.RD, data)
	c.PC = pc + 4
	return fmt.Sprintf("0x%08x:%-7s%s,%s,%s            %s=%s=0x%08x",
		pc, name, regfile.Name(in.RD), regfile.Name(in.RS1), regfile.Name(in.RS2), regfile.Name(in.RD), opStr, data)
}
