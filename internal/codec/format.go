// Package codec converts between raw register/bit buffers and typed values.
package codec

import (
	"strings"

	"github.com/tamzrod/mbpoll/internal/fault"
)

// Format selects how one buffer element is interpreted.
type Format int

const (
	Decimal16 Format = iota
	SignedInt16
	Hex16
	AsciiPair
	Int32
	Float32
	Binary
)

var formatNames = map[Format]string{
	Decimal16:   "dec",
	SignedInt16: "int16",
	Hex16:       "hex",
	AsciiPair:   "string",
	Int32:       "int",
	Float32:     "float",
	Binary:      "bin",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return "unknown"
}

// ParseFormat accepts the names users type after "-t <table>:".
// dec and bin are implicit and not accepted here.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "int16":
		return SignedInt16, nil
	case "hex":
		return Hex16, nil
	case "string":
		return AsciiPair, nil
	case "int":
		return Int32, nil
	case "float":
		return Float32, nil
	}
	return 0, fault.Syntax("illegal format: %s", s)
}

// Words is the number of 16-bit registers one element occupies.
func (f Format) Words() int {
	switch f {
	case Int32, Float32:
		return 2
	}
	return 1
}

// BytesPerElement is the buffer footprint of one element.
// Bits take one byte each.
func (f Format) BytesPerElement() int {
	if f == Binary {
		return 1
	}
	return 2 * f.Words()
}

// Is32Bit reports whether the format spans two registers.
func (f Format) Is32Bit() bool { return f.Words() == 2 }

// Order is the word order of 32-bit values.
type Order int

const (
	// LittleEndianWord: the first register holds the low word.
	LittleEndianWord Order = iota
	// BigEndianWord: the first register holds the high word.
	BigEndianWord
)

func (o Order) String() string {
	if o == BigEndianWord {
		return "big endian"
	}
	return "little endian"
}
