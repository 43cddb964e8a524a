package codec

import (
	"encoding/binary"
	"fmt"
)

// Buffer is the element store shared by a session's requests.
// Registers are held big-endian per word, as on the wire; bits take one byte
// each (0 or 1). Every accessor is bounded by the element count given at
// construction.
type Buffer struct {
	format Format
	count  int
	data   []byte
}

// NewBuffer allocates count elements of format f.
func NewBuffer(f Format, count int) *Buffer {
	if count < 0 {
		count = 0
	}
	return &Buffer{
		format: f,
		count:  count,
		data:   make([]byte, count*f.BytesPerElement()),
	}
}

func (b *Buffer) Format() Format { return b.format }

// Len is the element count.
func (b *Buffer) Len() int { return b.count }

// WordCount is the number of registers (or bits) a request must carry.
func (b *Buffer) WordCount() int {
	if b.format == Binary {
		return b.count
	}
	return b.count * b.format.Words()
}

// Bytes exposes the raw backing store, e.g. for stream output.
func (b *Buffer) Bytes() []byte { return b.data }

// Fill copies raw bytes into the store. len(p) must match exactly.
func (b *Buffer) Fill(p []byte) error {
	if len(p) != len(b.data) {
		return fmt.Errorf("codec: raw fill of %d bytes into %d byte buffer", len(p), len(b.data))
	}
	copy(b.data, p)
	return nil
}

// SetWords stores registers received from the bus.
func (b *Buffer) SetWords(words []uint16) error {
	if b.format == Binary {
		return fmt.Errorf("codec: register access on a bit buffer")
	}
	if len(words) != b.WordCount() {
		return fmt.Errorf("codec: got %d registers, want %d", len(words), b.WordCount())
	}
	for i, w := range words {
		binary.BigEndian.PutUint16(b.data[2*i:], w)
	}
	return nil
}

// Words returns a copy of the registers, in bus order.
func (b *Buffer) Words() []uint16 {
	if b.format == Binary {
		return nil
	}
	out := make([]uint16, b.WordCount())
	for i := range out {
		out[i] = binary.BigEndian.Uint16(b.data[2*i:])
	}
	return out
}

// SetBits stores coil or discrete input states.
func (b *Buffer) SetBits(bits []bool) error {
	if b.format != Binary {
		return fmt.Errorf("codec: bit access on a %s buffer", b.format)
	}
	if len(bits) != b.count {
		return fmt.Errorf("codec: got %d bits, want %d", len(bits), b.count)
	}
	for i, on := range bits {
		b.data[i] = 0
		if on {
			b.data[i] = 1
		}
	}
	return nil
}

// Bits returns a copy of the bit states. Any nonzero byte counts as set.
func (b *Buffer) Bits() []bool {
	if b.format != Binary {
		return nil
	}
	out := make([]bool, b.count)
	for i := range out {
		out[i] = b.data[i] != 0
	}
	return out
}

// Get decodes element i.
func (b *Buffer) Get(o Order, i int) (Value, error) {
	if i < 0 || i >= b.count {
		return Value{}, fmt.Errorf("codec: element %d out of range [0,%d)", i, b.count)
	}
	if b.format == Binary {
		return BitValue(b.data[i] != 0), nil
	}

	n := b.format.Words()
	words := make([]uint16, n)
	for k := 0; k < n; k++ {
		words[k] = binary.BigEndian.Uint16(b.data[2*(i*n+k):])
	}
	return Decode(b.format, o, words)
}

// Set encodes v into element i. v must carry the buffer's format.
func (b *Buffer) Set(o Order, i int, v Value) error {
	if i < 0 || i >= b.count {
		return fmt.Errorf("codec: element %d out of range [0,%d)", i, b.count)
	}
	if v.Format != b.format {
		return fmt.Errorf("codec: %s value into %s buffer", v.Format, b.format)
	}
	if b.format == Binary {
		b.data[i] = 0
		if v.Bool() {
			b.data[i] = 1
		}
		return nil
	}

	words := Encode(o, v)
	n := len(words)
	for k, w := range words {
		binary.BigEndian.PutUint16(b.data[2*(i*n+k):], w)
	}
	return nil
}

// Values decodes every element.
func (b *Buffer) Values(o Order) ([]Value, error) {
	out := make([]Value, b.count)
	for i := range out {
		v, err := b.Get(o, i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
