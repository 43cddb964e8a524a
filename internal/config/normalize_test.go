// internal/config/normalize_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/mbpoll/internal/codec"
	"github.com/tamzrod/mbpoll/internal/rts"
	"github.com/tamzrod/mbpoll/internal/serialcfg"
	"github.com/tamzrod/mbpoll/internal/transport"
)

func normalized(t *testing.T, cfg *Config) Resolved {
	t.Helper()
	require.NoError(t, Validate(cfg))
	Normalize(cfg)
	return cfg.Resolved
}

func TestNormalize_Defaults(t *testing.T) {
	r := normalized(t, session("10.0.0.5", nil))

	assert.Equal(t, transport.TCP, r.Mode)
	assert.Equal(t, "10.0.0.5:502", r.Address)
	assert.Equal(t, []int{1}, r.Slaves)
	assert.Equal(t, []int{1}, r.References)
	assert.Equal(t, []uint16{0}, r.Starts)
	assert.Equal(t, 1, r.Count)
	assert.Equal(t, codec.Decimal16, r.Format)
	assert.Equal(t, codec.LittleEndianWord, r.Order)
	assert.False(t, r.Write)
	assert.True(t, r.Polling)
	assert.Equal(t, time.Second, r.Timeout)
	assert.Equal(t, time.Second, r.PollRate)
}

func TestNormalize_ZeroBasedStarts(t *testing.T) {
	r := normalized(t, session("plc", func(c *Config) { c.References = "0,100"; c.ZeroBased = true }))
	assert.Equal(t, []uint16{0, 100}, r.Starts)

	r = normalized(t, session("plc", func(c *Config) { c.ZeroBased = true }))
	assert.Equal(t, []int{0}, r.References)
}

func TestNormalize_CountForcedForReferenceList(t *testing.T) {
	r := normalized(t, session("plc", func(c *Config) { c.References = "1,5"; c.Count = 10 }))
	assert.Equal(t, 1, r.Count)
}

func TestNormalize_BitTablesAreBinary(t *testing.T) {
	r := normalized(t, session("plc", func(c *Config) { c.Table = CoilTable; c.Format = "float" }))
	assert.Equal(t, codec.Binary, r.Format)
}

func TestNormalize_WriteValues(t *testing.T) {
	r := normalized(t, session("plc", func(c *Config) {
		c.Format = "int"
		c.BigEndian = true
		c.Values = []string{"-1568", "7"}
	}))
	assert.True(t, r.Write)
	assert.False(t, r.Polling)
	assert.Equal(t, 2, r.Count)
	assert.Equal(t, codec.Int32, r.Format)
	assert.Equal(t, codec.BigEndianWord, r.Order)
}

func TestNormalize_StreamInput(t *testing.T) {
	r := normalized(t, session("plc", func(c *Config) { c.Stream = true; c.References = "10:13" }))
	assert.True(t, r.Write)
	assert.True(t, r.Polling)
	assert.Equal(t, 4, r.Count)

	r = normalized(t, session("plc", func(c *Config) { c.Stream = true; c.Count = 8 }))
	assert.False(t, r.Write)
	assert.Equal(t, 8, r.Count)
}

func TestNormalize_RTU(t *testing.T) {
	pin := 17
	r := normalized(t, session("/dev/ttyUSB0", func(c *Config) {
		c.RTS.Mode = "before"
		c.RTS.Pin = &pin
	}))
	assert.Equal(t, transport.RTU, r.Mode)
	assert.Equal(t, "/dev/ttyUSB0", r.Address)
	assert.Equal(t, rts.BeforeSend, r.RTS)
	assert.Equal(t, serialcfg.FlowRS485BeforeSend, r.Line.Flow)
	assert.Equal(t, "19200-8E1r", r.Line.String())
}

func TestNormalize_RTSIgnoredOverTCP(t *testing.T) {
	r := normalized(t, session("plc", func(c *Config) { c.RTS.Mode = "after" }))
	assert.Equal(t, rts.None, r.RTS)
}

func TestNormalize_ReportSlaveID(t *testing.T) {
	r := normalized(t, session("/dev/ttyS0", func(c *Config) { c.ReportSlaveID = true }))
	assert.False(t, r.Write)
	assert.False(t, r.Polling)
}
