// Package decode implements the pure bitfield extraction and immediate
// reconstruction shared by every RV32I instruction format. Centralizing the
// five immediate builders here, rather than inline at each opcode site,
// keeps the bit-fiddling in one auditable place and makes immediate
// semantics testable in isolation from execution.
package decode

// Opcode classes (bits [6:0] of the instruction word).
const (
	OpLoad     = uint32(0b0000011)
	OpOpImm    = uint32(0b0010011)
	OpAUIPC    = uint32(0b0010111)
	OpStore    = uint32(0b0100011)
	OpOp       = uint32(0b0110011)
	OpLUI      = uint32(0b0110111)
	OpBranch   = uint32(0b1100011)
	OpJALR     = uint32(0b1100111)
	OpJAL      = uint32(0b1101111)
	OpSystem   = uint32(0b1110011)
)

// Opcode extracts bits [6:0].
func Opcode(ci uint32) uint32 { return ci & 0x7f }

// RD extracts bits [11:7].
func RD(ci uint32) uint32 { return (ci >> 7) & 0x1f }

// Funct3 extracts bits [14:12].
func Funct3(ci uint32) uint32 { return (ci >> 12) & 0x7 }

// RS1 extracts bits [19:15].
func RS1(ci uint32) uint32 { return (ci >> 15) & 0x1f }

// RS2 extracts bits [24:20].
func RS2(ci uint32) uint32 { return (ci >> 20) & 0x1f }

// Funct7 extracts bits [31:25].
func Funct7(ci uint32) uint32 { return (ci >> 25) & 0x7f }

// Shamt extracts bits [24:20], the shift amount used by the shift-immediate
// forms. It is numerically identical to RS2 but named for its role.
func Shamt(ci uint32) uint32 { return RS2(ci) }

// SignExtend widens the low `bits` bits of value to a 32-bit two's
// complement signed integer by replicating the top bit of that field.
func SignExtend(value uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(value<<shift) >> shift
}

// ImmI reconstructs the I-type immediate: sign-extend(bits[31:20], 12).
func ImmI(ci uint32) int32 {
	return SignExtend(ci>>20, 12)
}

// ImmS reconstructs the S-type immediate:
// sign-extend({bits[31:25], bits[11:7]}, 12).
func ImmS(ci uint32) int32 {
	raw := (Funct7(ci) << 5) | RD(ci)
	return SignExtend(raw, 12)
}

// ImmB reconstructs the B-type immediate:
// sign-extend({bit31, bit7, bits[30:25], bits[11:8], 0}, 13).
func ImmB(ci uint32) int32 {
	bit12 := (ci >> 31) & 0x1
	bit11 := (ci >> 7) & 0x1
	bits10_5 := (ci >> 25) & 0x3f
	bits4_1 := (ci >> 8) & 0xf
	raw := (bit12 << 12) | (bit11 << 11) | (bits10_5 << 5) | (bits4_1 << 1)
	return SignExtend(raw, 13)
}

// ImmU reconstructs the U-type immediate: bits[31:12] << 12, no sign
// extension performed (the field already occupies the top 20 bits).
func ImmU(ci uint32) uint32 {
	return ci & 0xfffff000
}

// ImmJ reconstructs the J-type immediate:
// sign-extend({bit31, bits[19:12], bit20, bits[30:21], 0}, 21).
func ImmJ(ci uint32) int32 {
	bit20 := (ci >> 31) & 0x1
	bits19_12 := (ci >> 12) & 0xff
	bit11 := (ci >> 20) & 0x1
	bits10_1 := (ci >> 21) & 0x3ff
	raw := (bit20 << 20) | (bits19_12 << 12) | (bit11 << 11) | (bits10_1 << 1)
	return SignExtend(raw, 21)
}

// IsEbreak reports whether ci is the SYSTEM encoding for ebreak: funct3==0
// and bits[31:20]==1.
func IsEbreak(ci uint32) bool {
	return Opcode(ci) == OpSystem && Funct3(ci) == 0 && (ci>>20) == 1
}
