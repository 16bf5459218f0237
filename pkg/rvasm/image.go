package rvasm

import (
	"fmt"
	"strings"

	"github.com/rv32i/rv32isim/pkg/memory"
)

// Image incrementally builds a hex-image text document out of encoded
// instruction words and raw bytes, for use in tests and fixtures that
// would otherwise need to hand-write the format.
type Image struct {
	b    strings.Builder
	addr uint32
	open bool
}

// NewImage returns an empty Image builder.
func NewImage() *Image {
	return &Image{}
}

// At emits an "@addr" directive, setting the cursor for subsequent writes.
func (im *Image) At(addr uint32) *Image {
	fmt.Fprintf(&im.b, "@%x\n", addr)
	im.addr = addr
	im.open = false
	return im
}

// Word appends the four little-endian bytes of w as one line.
func (im *Image) Word(w uint32) *Image {
	fmt.Fprintf(&im.b, "%02x %02x %02x %02x\n",
		uint8(w), uint8(w>>8), uint8(w>>16), uint8(w>>24))
	im.addr += 4
	return im
}

// Bytes appends a line of raw bytes verbatim.
func (im *Image) Bytes(bs ...byte) *Image {
	parts := make([]string, len(bs))
	for i, b := range bs {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	im.b.WriteString(strings.Join(parts, " "))
	im.b.WriteByte('\n')
	im.addr += uint32(len(bs))
	return im
}

// String returns the assembled hex-image text.
func (im *Image) String() string {
	return im.b.String()
}

// Base re-exports memory.Base so callers building fixtures don't need to
// import the memory package solely for the constant.
const Base = memory.Base
