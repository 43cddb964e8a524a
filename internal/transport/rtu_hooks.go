package transport

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goburrow/serial"
	"github.com/rs/zerolog"

	"github.com/tamzrod/mbpoll/internal/serialcfg"
)

const (
	rtuMaxSize       = 256
	rtuExceptionSize = 5
	rtuEchoSize      = 8
	rtuDrainReads    = 16
	rtuFastSilence   = 1750 * time.Microsecond
)

func openSerial(c *serial.Config) (io.ReadWriteCloser, error) {
	return serial.Open(c)
}

// rtuTransporter sends RTU frames on the serial port, sizing each answer
// from its function code. before/after run around every write so RTS can be
// driven from a GPIO line.
type rtuTransporter struct {
	cfg   serial.Config
	line  serialcfg.Settings
	port  io.ReadWriteCloser
	log   zerolog.Logger
	trace bool

	before func() error
	after  func(time.Duration) error
	open   func(*serial.Config) (io.ReadWriteCloser, error)

	// idleAt is the earliest time the next frame may start.
	idleAt time.Time
	// stale is set when an answer was not read completely.
	stale bool
}

func (t *rtuTransporter) Connect() error {
	if t.port != nil {
		return nil
	}
	p, err := t.open(&t.cfg)
	if err != nil {
		return fmt.Errorf("transport: open %s: %w", t.cfg.Address, err)
	}
	t.port = p
	return nil
}

func (t *rtuTransporter) Close() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	return err
}

// frameTime is how long n bytes occupy the line.
func (t *rtuTransporter) frameTime(n int) time.Duration {
	if t.line.Baud <= 0 {
		return 0
	}
	return time.Duration(n*t.line.CharBits()) * time.Second / time.Duration(t.line.Baud)
}

// silence is the 3.5 character gap between frames, fixed at 1750 µs above
// 19200 baud.
func (t *rtuTransporter) silence() time.Duration {
	if t.line.Baud <= 0 || t.line.Baud > 19200 {
		return rtuFastSilence
	}
	return t.frameTime(7) / 2
}

// drain drops input left over from an answer that was abandoned.
func (t *rtuTransporter) drain() {
	buf := make([]byte, rtuMaxSize)
	dropped := 0
	for i := 0; i < rtuDrainReads; i++ {
		n, err := t.port.Read(buf)
		dropped += n
		if n == 0 || err != nil {
			break
		}
	}
	if dropped > 0 {
		t.log.Debug().Int("bytes", dropped).Msg("dropped stale input")
	}
}

func (t *rtuTransporter) Send(adu []byte) ([]byte, error) {
	if t.port == nil {
		return nil, errors.New("transport: serial port not open")
	}

	if t.stale {
		t.drain()
		t.stale = false
	}
	if wait := time.Until(t.idleAt); wait > 0 {
		time.Sleep(wait)
	}

	if t.trace {
		t.log.Debug().Hex("tx", adu).Msg("sending")
	}

	if err := t.before(); err != nil {
		return nil, fmt.Errorf("transport: rts before send: %w", err)
	}
	_, werr := t.port.Write(adu)
	if err := t.after(t.frameTime(len(adu))); err != nil && werr == nil {
		return nil, fmt.Errorf("transport: rts after send: %w", err)
	}
	if werr != nil {
		return nil, werr
	}

	resp, err := readRTUResponse(t.port)
	t.idleAt = time.Now().Add(t.silence())
	if err != nil {
		t.stale = true
		return nil, err
	}
	if t.trace {
		t.log.Debug().Hex("rx", resp).Msg("received")
	}
	return resp, nil
}

// readRTUResponse reads one response frame, sizing it from the function
// code the way a slave lays it out.
func readRTUResponse(r io.Reader) ([]byte, error) {
	buf := make([]byte, rtuMaxSize)

	if _, err := io.ReadFull(r, buf[:2]); err != nil {
		return nil, err
	}
	fc := buf[1]

	var size int
	switch {
	case fc&0x80 != 0:
		size = rtuExceptionSize
	case fc >= 1 && fc <= 4, fc == funcReportSlaveID:
		if _, err := io.ReadFull(r, buf[2:3]); err != nil {
			return nil, err
		}
		size = 3 + int(buf[2]) + 2
	case fc == 5, fc == 6, fc == 15, fc == 16:
		size = rtuEchoSize
	default:
		return nil, fmt.Errorf("modbus: unexpected function code %d in response", fc)
	}
	if size > rtuMaxSize {
		return nil, fmt.Errorf("modbus: response length %d exceeds %d", size, rtuMaxSize)
	}

	have := 2
	if fc&0x80 == 0 && (fc <= 4 || fc == funcReportSlaveID) {
		have = 3
	}
	if _, err := io.ReadFull(r, buf[have:size]); err != nil {
		return nil, err
	}
	return buf[:size], nil
}
