package codec

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tamzrod/mbpoll/internal/fault"
)

// Value is one decoded element. The zero Value is a Decimal16 zero.
type Value struct {
	Format Format
	bits   uint32
}

func BitValue(on bool) Value {
	if on {
		return Value{Format: Binary, bits: 1}
	}
	return Value{Format: Binary}
}

// WordValue builds a single-register value of format f.
func WordValue(f Format, w uint16) Value { return Value{Format: f, bits: uint32(w)} }

func Int16Value(v int16) Value     { return Value{Format: SignedInt16, bits: uint32(uint16(v))} }
func Int32Value(v int32) Value     { return Value{Format: Int32, bits: uint32(v)} }
func Float32Value(v float32) Value { return Value{Format: Float32, bits: math.Float32bits(v)} }

func (v Value) Bool() bool       { return v.bits != 0 }
func (v Value) Uint16() uint16   { return uint16(v.bits) }
func (v Value) Int16() int16     { return int16(uint16(v.bits)) }
func (v Value) Int32() int32     { return int32(v.bits) }
func (v Value) Float32() float32 { return math.Float32frombits(v.bits) }

// Bits32 is the logical 32-bit pattern, before any word swap.
func (v Value) Bits32() uint32 { return v.bits }

func (v Value) String() string {
	switch v.Format {
	case Binary:
		if v.Bool() {
			return "1"
		}
		return "0"
	case Decimal16:
		u := v.Uint16()
		if u&0x8000 != 0 {
			return fmt.Sprintf("%d (%d)", u, int16(u))
		}
		return strconv.Itoa(int(u))
	case SignedInt16:
		return strconv.Itoa(int(v.Int16()))
	case Hex16:
		return fmt.Sprintf("0x%04X", v.Uint16())
	case AsciiPair:
		u := v.Uint16()
		return asciiChar(byte(u/256)) + asciiChar(byte(u%256))
	case Int32:
		return strconv.Itoa(int(v.Int32()))
	case Float32:
		return strconv.FormatFloat(float64(v.Float32()), 'g', -1, 32)
	}
	return "?"
}

// Non-printable bytes render as \XX so the column layout stays readable.
func asciiChar(b byte) string {
	if b >= 0x20 && b <= 0x7E {
		return string(rune(b))
	}
	return fmt.Sprintf("\\%02X", b)
}

// SwapWords exchanges the two 16-bit halves. It is its own inverse.
func SwapWords(u uint32) uint32 { return u<<16 | u>>16 }

// Encode returns the registers holding v, in bus order.
// Binary values encode to a single 0/1 word.
func Encode(o Order, v Value) []uint16 {
	if !v.Format.Is32Bit() {
		if v.Format == Binary {
			if v.Bool() {
				return []uint16{1}
			}
			return []uint16{0}
		}
		return []uint16{v.Uint16()}
	}

	u := v.bits
	if o == BigEndianWord {
		u = SwapWords(u)
	}
	// low half goes first on the bus before any swap
	return []uint16{uint16(u), uint16(u >> 16)}
}

// Decode interprets words as one element of format f.
func Decode(f Format, o Order, words []uint16) (Value, error) {
	if len(words) != f.Words() {
		return Value{}, fmt.Errorf("codec: %s needs %d word(s), got %d", f, f.Words(), len(words))
	}
	if f == Binary {
		return BitValue(words[0] != 0), nil
	}
	if !f.Is32Bit() {
		return WordValue(f, words[0]), nil
	}

	u := uint32(words[0]) | uint32(words[1])<<16
	if o == BigEndianWord {
		u = SwapWords(u)
	}
	return Value{Format: f, bits: u}, nil
}

// ParseValue parses a command-line write value for format f.
func ParseValue(f Format, s string) (Value, error) {
	switch f {
	case Binary:
		n, err := parseInt(s, 10)
		if err != nil {
			return Value{}, err
		}
		if n < 0 || n > 1 {
			return Value{}, fault.Range("data out of range (%d)", n)
		}
		return BitValue(n == 1), nil

	case Decimal16, Hex16:
		n, err := parseInt(s, 0)
		if err != nil {
			return Value{}, err
		}
		if n < 0 || n > math.MaxUint16 {
			return Value{}, fault.Range("data out of range (%d)", n)
		}
		return WordValue(f, uint16(n)), nil

	case SignedInt16:
		n, err := parseInt(s, 0)
		if err != nil {
			return Value{}, err
		}
		if n < math.MinInt16 || n > math.MaxInt16 {
			return Value{}, fault.Range("data out of range (%d)", n)
		}
		return Int16Value(int16(n)), nil

	case Int32:
		n, err := parseInt(s, 10)
		if err != nil {
			return Value{}, err
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return Value{}, fault.Range("data out of range (%d)", n)
		}
		return Int32Value(int32(n)), nil

	case Float32:
		d, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil && !isRangeErr(err) {
			return Value{}, fault.Syntax("illegal data value: %s", s)
		}
		if math.IsNaN(d) || d < -math.MaxFloat32 || d > math.MaxFloat32 {
			return Value{}, fault.Range("data out of range (%g)", d)
		}
		return Float32Value(float32(d)), nil

	case AsciiPair:
		return Value{}, fault.Syntax("you can use string format only for output")
	}
	return Value{}, fault.Syntax("illegal format for data: %d", int(f))
}

func parseInt(s string, base int) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), base, 64)
	if err != nil {
		if isRangeErr(err) {
			return 0, fault.Range("data out of range (%s)", s)
		}
		return 0, fault.Syntax("illegal data value: %s", s)
	}
	return n, nil
}

func isRangeErr(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}
