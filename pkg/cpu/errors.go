package cpu

import (
	"errors"
	"fmt"
)

// ErrHalted indicates the processor retired an ebreak and stopped cleanly.
var ErrHalted = errors.New("cpu: halted")

// ErrUnknownOpcode indicates the fetched word did not decode to any
// recognized RV32I/M encoding.
var ErrUnknownOpcode = errors.New("cpu: unknown instruction opcode")

// unknownOpcodeError is the sentinel-wrapped error for errors.Is checks and
// the process exit path; it carries the same detail as unknownOpcodeLine
// but keeps the "cpu:" package prefix instead of the trace-sink wording.
func unknownOpcodeError(ci uint32, pc uint32) error {
	opcode := ci & 0x7f
	return fmt.Errorf("%w 0b%07b (0x%02x) at pc = 0x%08x", ErrUnknownOpcode, opcode, opcode, pc)
}

// unknownOpcodeLine renders the trace-sink text for an unrecognized
// instruction word, emitted to every sink before the driver halts.
func unknownOpcodeLine(ci uint32, pc uint32) string {
	opcode := ci & 0x7f
	return fmt.Sprintf("error: unknown instruction opcode 0b%07b (0x%02x) at pc = 0x%08x", opcode, opcode, pc)
}
