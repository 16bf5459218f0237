package cpu

import "github.com/rv32i/rv32isim/pkg/decode"

// Kind tags a decoded instruction with its opcode class, so Step can
// dispatch with a single exhaustive match on opcode rather than one Go
// type per instruction. The nested funct3/funct7 dispatch then lives in
// the per-kind exec functions that Step calls.
type Kind int

const (
	KindUnknown Kind = iota
	KindOpImm        // addi, slti, sltiu, xori, ori, andi, slli, srli, srai
	KindOp           // add, sub, sll, slt, sltu, xor, srl, sra, or, and, mul
	KindLUI
	KindAUIPC
	KindJAL
	KindJALR
	KindBranch
	KindLoad
	KindStore
	KindEbreak
)

// Instruction is a decoded instruction word. Only the fields relevant to
// Kind are meaningful; the rest hold whatever their bit positions decode
// to. Immediates are already
// sign-extended to 32 bits (except ImmU, which is zero-filled by
// construction).
type Instruction struct {
	Kind   Kind
	Raw    uint32
	Opcode uint32
	RD     uint32
	RS1    uint32
	RS2    uint32
	Funct3 uint32
	Funct7 uint32
	Shamt  uint32
	ImmI   int32
	ImmS   int32
	ImmB   int32
	ImmU   uint32
	ImmJ   int32
}

// Decode decodes a 32-bit instruction word into an Instruction. An
// unrecognized opcode, a SYSTEM word other than ebreak, and an undefined
// funct3/funct7 combination in the shift-immediate, register-register or
// branch classes yield KindUnknown carrying the original word. Loads and
// stores with an undefined funct3 keep KindLoad/KindStore and are reported
// as unknown by Step when executed; the funct3 field of jalr is not checked.
func Decode(ci uint32) Instruction {
	in := Instruction{
		Raw:    ci,
		Opcode: decode.Opcode(ci),
		RD:     decode.RD(ci),
		RS1:    decode.RS1(ci),
		RS2:    decode.RS2(ci),
		Funct3: decode.Funct3(ci),
		Funct7: decode.Funct7(ci),
		Shamt:  decode.Shamt(ci),
		ImmI:   decode.ImmI(ci),
		ImmS:   decode.ImmS(ci),
		ImmB:   decode.ImmB(ci),
		ImmU:   decode.ImmU(ci),
		ImmJ:   decode.ImmJ(ci),
	}

	switch in.Opcode {
	case decode.OpOpImm:
		in.Kind = KindOpImm
	case decode.OpOp:
		in.Kind = KindOp
	case decode.OpLUI:
		in.Kind = KindLUI
	case decode.OpAUIPC:
		in.Kind = KindAUIPC
	case decode.OpJAL:
		in.Kind = KindJAL
	case decode.OpJALR:
		in.Kind = KindJALR
	case decode.OpBranch:
		in.Kind = KindBranch
	case decode.OpLoad:
		in.Kind = KindLoad
	case decode.OpStore:
		in.Kind = KindStore
	case decode.OpSystem:
		if decode.IsEbreak(ci) {
			in.Kind = KindEbreak
		} else {
			in.Kind = KindUnknown
		}
	default:
		in.Kind = KindUnknown
	}

	// Within KindOpImm, slli (funct3 001) requires funct7 0b0000000, and
	// srli/srai (funct3 101) require 0b0000000 or 0b0100000; any other
	// funct7 on funct3 001/101 is not a valid encoding.
	if in.Kind == KindOpImm {
		switch {
		case in.Funct3 == 0b001 && in.Funct7 != 0b0000000:
			in.Kind = KindUnknown
		case in.Funct3 == 0b101 && in.Funct7 != 0b0000000 && in.Funct7 != 0b0100000:
			in.Kind = KindUnknown
		}
	}

	// Within KindOp, funct7 must be 0b0000000 (the base ALU ops),
	// 0b0100000 (sub/sra), or 0b0000001 (the M-extension mul); any other
	// funct7 is not a valid encoding.
	if in.Kind == KindOp {
		switch in.Funct7 {
		case 0b0000000, 0b0100000, 0b0000001:
		default:
			in.Kind = KindUnknown
		}
		if in.Funct7 == 0b0100000 && in.Funct3 != 0b000 && in.Funct3 != 0b101 {
			in.Kind = KindUnknown
		}
		if in.Funct7 == 0b0000001 && in.Funct3 != 0b000 {
			// only mul is defined in this subset; other M-extension
			// funct3 values (mulh, div, rem, ...) are out of scope.
			in.Kind = KindUnknown
		}
	}

	// Within KindBranch, only funct3 000/001/100/101/110/111 (beq, bne,
	// blt, bge, bltu, bgeu) are defined; 010 and 011 are not valid branch
	// encodings.
	if in.Kind == KindBranch {
		switch in.Funct3 {
		case 0b000, 0b001, 0b100, 0b101, 0b110, 0b111:
		default:
			in.Kind = KindUnknown
		}
	}

	return in
}
