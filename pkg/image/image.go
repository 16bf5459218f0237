// Package image implements the Verilog-style hex-image loader: a tiny
// line-oriented reader that fills a memory.Memory from a text file of
// address directives and byte streams. It sits alongside the instruction
// semantics as the one piece of I/O the simulator needs before it can run.
package image

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rv32i/rv32isim/pkg/memory"
)

// Load reads a hex-image from r and writes its bytes into mem.
//
// Blank lines are ignored. A line beginning with "@" sets the current
// address cursor from the hex digits following it. Any other non-empty
// line is a whitespace-separated list of 2-hex-digit bytes; each byte is
// written at the current address and the cursor advances by one.
//
// A byte token that does not parse as an 8-bit hex value is a hard error
// that aborts loading. An address outside mem's region is reported on w
// and the byte is discarded, but the cursor still advances and loading
// continues.
func Load(r io.Reader, mem *memory.Memory, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	var addr uint32
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "@") {
			a, err := strconv.ParseUint(strings.TrimSpace(line[1:]), 16, 32)
			if err != nil {
				return fmt.Errorf("image: malformed address directive %q: %w", line, err)
			}
			addr = uint32(a)
			continue
		}
		for _, tok := range strings.Fields(line) {
			v, err := strconv.ParseUint(tok, 16, 8)
			if err != nil {
				return fmt.Errorf("image: byte value out of range or malformed: %q: %w", tok, err)
			}
			if err := mem.WriteU8(addr, uint8(v)); err != nil {
				idx := int64(addr) - int64(memory.Base)
				fmt.Fprintf(w, "Warning: Address 0x%08x (index %d) is out of allocated memory bounds (0-%d). Skipping byte %s.\n",
					addr, idx, memory.Size-1, tok)
			}
			addr++
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("image: %w", err)
	}
	return nil
}
