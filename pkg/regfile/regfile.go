// Package regfile implements the 32-entry architectural register file.
package regfile

// NumRegisters is the number of general-purpose registers.
const NumRegisters = 32

// Names are the ABI mnemonic labels for registers 0..31, used only for
// tracing.
var Names = [NumRegisters]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// RegisterFile holds the 32 architectural registers. Register 0 is
// hard-wired to zero: the rule is enforced here, in the setter, rather than
// at each call site, so no caller can accidentally forget it.
type RegisterFile struct {
	x [NumRegisters]uint32
}

// New returns a zeroed RegisterFile.
func New() *RegisterFile {
	return &RegisterFile{}
}

// Get returns the current value of register i. Register 0 always reads zero.
func (r *RegisterFile) Get(i uint32) uint32 {
	if i == 0 {
		return 0
	}
	return r.x[i]
}

// Set stores v in register i, masked to 32 bits. Writes to register 0 are
// silently discarded.
func (r *RegisterFile) Set(i uint32, v uint32) {
	if i == 0 {
		return
	}
	r.x[i] = v
}

// Name returns the ABI mnemonic for register i.
func Name(i uint32) string {
	return Names[i&0x1f]
}
