package sink

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/mbpoll/internal/codec"
	"github.com/tamzrod/mbpoll/internal/config"
	"github.com/tamzrod/mbpoll/internal/fault"
	"github.com/tamzrod/mbpoll/internal/poller"
	"github.com/tamzrod/mbpoll/internal/status"
)

func TestEmit_Values(t *testing.T) {
	var out bytes.Buffer
	c := New(Options{Out: &out, Level: Normal})

	c.Emit(poller.Result{
		Kind:      poller.ReadHoldingRegister,
		Reference: 100,
		Values:    []codec.Value{codec.Float32Value(123.5), codec.Float32Value(-1)},
	})
	assert.Equal(t, "[100]: \t123.5\n[102]: \t-1\n", out.String())
}

func TestEmit_DecimalScenario(t *testing.T) {
	var out bytes.Buffer
	c := New(Options{Out: &out, Level: Minimal})

	var vals []codec.Value
	for _, w := range []uint16{0, 1, 32768, 65535} {
		vals = append(vals, codec.WordValue(codec.Decimal16, w))
	}
	c.Emit(poller.Result{Kind: poller.ReadInputRegister, Reference: 1, Values: vals})
	assert.Equal(t, "[1]: \t0\n[2]: \t1\n[3]: \t32768 (-32768)\n[4]: \t65535 (-1)\n", out.String())
}

func TestEmit_Write(t *testing.T) {
	var out bytes.Buffer
	c := New(Options{Out: &out, Level: Minimal})
	c.Emit(poller.Result{Kind: poller.WriteHoldingRegister, Count: 3})
	assert.Equal(t, "Written 3 references.\n", out.String())
}

func TestEmit_ErrorGoesToLog(t *testing.T) {
	var out, logs bytes.Buffer
	c := New(Options{Out: &out, Level: Normal, Log: zerolog.New(&logs)})

	c.Emit(poller.Result{
		Kind:  poller.ReadCoil,
		Slave: 4,
		Err:   fault.Request(errors.New("timeout"), "read %s failed", poller.ReadCoil),
	})
	assert.Empty(t, out.String())
	assert.Contains(t, logs.String(), "Read discrete output (coil) status failed: timeout")
	assert.Contains(t, logs.String(), `"slave":4`)
}

func TestEmit_Stream(t *testing.T) {
	var out, raw bytes.Buffer
	c := New(Options{Out: &out, Level: Silent, Stream: &raw})

	c.Emit(poller.Result{
		Kind:   poller.ReadCoil,
		Raw:    []byte{1, 0, 1},
		Values: []codec.Value{codec.BitValue(true), codec.BitValue(false), codec.BitValue(true)},
	})
	assert.Equal(t, []byte{1, 0, 1}, raw.Bytes())
	assert.Empty(t, out.String())
}

func TestEmit_ServerID(t *testing.T) {
	var out bytes.Buffer
	c := New(Options{Out: &out, Level: Normal})

	c.Emit(poller.Result{Kind: poller.ReportServerID, ServerID: []byte{0x2A, 0xFF, 'O', 'K', 0x01}})
	assert.Equal(t, "Length: 5\nId    : 0x2A\nStatus: On\nData  : OK\\01\n", out.String())
}

func TestReport_OnlyWhenPolling(t *testing.T) {
	snap := status.Snapshot{Device: "plc", Operation: "read", Transmitted: 2, Received: 2}

	var once bytes.Buffer
	New(Options{Out: &once, Level: Normal}).Report(snap)
	assert.Empty(t, once.String())

	var poll bytes.Buffer
	New(Options{Out: &poll, Level: Normal, Polling: true}).Report(snap)
	assert.Equal(t, "--- plc read statistics ---\n2 frames transmitted, 2 received, 0 errors, 0.0% frame loss\n", poll.String())

	var quiet bytes.Buffer
	New(Options{Out: &quiet, Level: Silent, Polling: true}).Report(snap)
	assert.Empty(t, quiet.String())
}

func TestBegin(t *testing.T) {
	var out bytes.Buffer
	New(Options{Out: &out, Level: Normal, Polling: true}).Begin(7)
	New(Options{Out: &out, Level: Normal}).Begin(8)
	assert.Equal(t, "-- Polling slave 7... Ctrl-C to stop)\n-- Polling slave 8...\n", out.String())
}

func TestSummary(t *testing.T) {
	cfg := config.Default()
	cfg.Device = "/dev/ttyUSB0"
	cfg.Slaves = "1:3"
	cfg.Format = "float"
	cfg.BigEndian = true
	require.NoError(t, config.Validate(&cfg))
	config.Normalize(&cfg)

	var out bytes.Buffer
	New(Options{Out: &out, Level: Normal}).Summary(&cfg)

	s := out.String()
	assert.Contains(t, s, "Modbus RTU")
	assert.Contains(t, s, "address = [1,2,3]")
	assert.Contains(t, s, "start reference = 1, count = 1")
	assert.Contains(t, s, "/dev/ttyUSB0, 19200-8E1")
	assert.Contains(t, s, "t/o 1.00 s, poll rate 1000 ms")
	assert.Contains(t, s, "32-bit float, big endian, output (holding) register table")
}

func TestSummary_MinimalIsQuiet(t *testing.T) {
	cfg := config.Default()
	cfg.Device = "plc"
	require.NoError(t, config.Validate(&cfg))
	config.Normalize(&cfg)

	var out bytes.Buffer
	New(Options{Out: &out, Level: Minimal}).Summary(&cfg)
	assert.Empty(t, out.String())
}
