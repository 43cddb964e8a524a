package serialcfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	assert.Equal(t, "19200-8E1 ", Default.String())

	s := Settings{Baud: 9600, DataBits: 7, Parity: ParityNone, StopBits: 2, Flow: FlowRS485AfterSend}
	assert.Equal(t, "9600-7N2R", s.String())
}

func TestCharBits(t *testing.T) {
	assert.Equal(t, 11, Default.CharBits())
	assert.Equal(t, 10, Settings{DataBits: 8, Parity: ParityNone, StopBits: 1}.CharBits())
}

func TestSerial(t *testing.T) {
	c := Default.Serial("/dev/ttyUSB0")
	assert.Equal(t, "/dev/ttyUSB0", c.Address)
	assert.Equal(t, 19200, c.BaudRate)
	assert.Equal(t, "E", c.Parity)
	assert.Equal(t, 1, c.StopBits)
}

func TestParseParity(t *testing.T) {
	p, err := ParseParity("ODD")
	require.NoError(t, err)
	assert.Equal(t, ParityOdd, p)

	_, err = ParseParity("mark")
	assert.Error(t, err)

	var q Parity
	require.NoError(t, q.UnmarshalText([]byte("none")))
	assert.Equal(t, ParityNone, q)
}
