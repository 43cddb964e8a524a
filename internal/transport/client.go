// Package transport adapts goburrow/modbus to the poller's client contract.
// It owns framing and the serial line; the poller only sees registers and bits.
package transport

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/goburrow/modbus"
	"github.com/goburrow/serial"
	"github.com/rs/zerolog"

	"github.com/tamzrod/mbpoll/internal/rts"
	"github.com/tamzrod/mbpoll/internal/serialcfg"
)

// Mode is the framing in use.
type Mode int

const (
	TCP Mode = iota
	RTU
)

func (m Mode) String() string {
	if m == RTU {
		return "RTU"
	}
	return "TCP"
}

const funcReportSlaveID byte = 0x11

// Config is the transport setup. Address is host:port for TCP and the
// device path for RTU.
type Config struct {
	Mode    Mode
	Address string
	Line    serialcfg.Settings
	Timeout time.Duration

	// Trace dumps every frame through Logger at debug level.
	Trace  bool
	Logger zerolog.Logger
}

// Client is a single-session Modbus master.
// It is not safe for concurrent use.
type Client struct {
	cfg Config
	log zerolog.Logger

	tcp *modbus.TCPClientHandler
	rtu *modbus.RTUClientHandler

	// link carries RTU frames; the handler only packs them.
	link *rtuTransporter

	packager    modbus.Packager
	transporter modbus.Transporter
	client      modbus.Client
}

// New prepares a client. No I/O happens before Connect.
func New(cfg Config) (*Client, error) {
	if cfg.Address == "" {
		return nil, errors.New("transport: address required")
	}

	c := &Client{
		cfg: cfg,
		log: cfg.Logger.With().Str("transport", cfg.Mode.String()).Str("address", cfg.Address).Logger(),
	}

	var trace *log.Logger
	if cfg.Trace {
		trace = log.New(zerologWriter{c.log}, "", 0)
	}

	switch cfg.Mode {
	case TCP:
		h := modbus.NewTCPClientHandler(cfg.Address)
		h.Timeout = cfg.Timeout
		h.Logger = trace
		c.tcp = h
		c.packager, c.transporter = h, h

	case RTU:
		h := modbus.NewRTUClientHandler(cfg.Address)
		sc := cfg.Line.Serial(cfg.Address)
		h.BaudRate = sc.BaudRate
		h.DataBits = sc.DataBits
		h.StopBits = sc.StopBits
		h.Parity = sc.Parity
		h.Timeout = cfg.Timeout
		h.Logger = trace
		c.rtu = h

		sc.Timeout = cfg.Timeout
		c.link = &rtuTransporter{
			cfg:    sc,
			line:   cfg.Line,
			trace:  cfg.Trace,
			before: func() error { return nil },
			after:  func(time.Duration) error { return nil },
			open:   openSerial,
			log:    c.log,
		}
		c.packager, c.transporter = h, c.link

	default:
		return nil, fmt.Errorf("transport: unknown mode %d", cfg.Mode)
	}

	return c, nil
}

// Connect opens the TCP connection or the serial port.
func (c *Client) Connect() error {
	var err error
	switch {
	case c.link != nil:
		err = c.link.Connect()
	default:
		err = c.tcp.Connect()
	}
	if err != nil {
		return err
	}

	c.client = modbus.NewClient2(c.packager, c.transporter)
	c.log.Debug().Msg("connected")
	return nil
}

func (c *Client) Close() error {
	switch {
	case c.link != nil:
		return c.link.Close()
	case c.tcp != nil:
		return c.tcp.Close()
	}
	return nil
}

// SetSlave selects the unit addressed by the following requests.
func (c *Client) SetSlave(id uint8) {
	if c.tcp != nil {
		c.tcp.SlaveId = id
		return
	}
	c.rtu.SlaveId = id
}

// ---- rts.HalfDuplexer ----

// EnableRS485 lets the serial driver toggle RTS around each frame.
func (c *Client) EnableRS485(m rts.Mode) error {
	if c.rtu == nil {
		return errors.New("transport: rs485 needs rtu mode")
	}
	c.link.cfg.RS485 = serial.RS485Config{
		Enabled:           true,
		RtsHighDuringSend: m == rts.BeforeSend,
		RtsHighAfterSend:  m == rts.AfterSend,
	}
	return nil
}

// SetTransmitHooks makes the serial line call before/after around every
// frame written.
func (c *Client) SetTransmitHooks(before func() error, after func(time.Duration) error) error {
	if c.rtu == nil {
		return errors.New("transport: custom rts needs rtu mode")
	}
	c.link.before = before
	c.link.after = after
	return nil
}

// ---- reads ----

func (c *Client) ReadCoils(addr, qty uint16) ([]bool, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	b, err := c.client.ReadCoils(addr, qty)
	if err != nil {
		return nil, err
	}
	return bitsOf(b, qty)
}

func (c *Client) ReadDiscreteInputs(addr, qty uint16) ([]bool, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	b, err := c.client.ReadDiscreteInputs(addr, qty)
	if err != nil {
		return nil, err
	}
	return bitsOf(b, qty)
}

func (c *Client) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	b, err := c.client.ReadHoldingRegisters(addr, qty)
	if err != nil {
		return nil, err
	}
	return unpackRegisters(b), nil
}

func (c *Client) ReadInputRegisters(addr, qty uint16) ([]uint16, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	b, err := c.client.ReadInputRegisters(addr, qty)
	if err != nil {
		return nil, err
	}
	return unpackRegisters(b), nil
}

// ---- writes ----

func (c *Client) WriteCoil(addr uint16, on bool) error {
	if err := c.ready(); err != nil {
		return err
	}
	v := uint16(0x0000)
	if on {
		v = 0xFF00
	}
	_, err := c.client.WriteSingleCoil(addr, v)
	return err
}

func (c *Client) WriteRegister(addr uint16, v uint16) error {
	if err := c.ready(); err != nil {
		return err
	}
	_, err := c.client.WriteSingleRegister(addr, v)
	return err
}

func (c *Client) WriteCoils(addr uint16, bits []bool) error {
	if err := c.ready(); err != nil {
		return err
	}
	_, err := c.client.WriteMultipleCoils(addr, uint16(len(bits)), packBits(bits))
	return err
}

func (c *Client) WriteRegisters(addr uint16, regs []uint16) error {
	if err := c.ready(); err != nil {
		return err
	}
	_, err := c.client.WriteMultipleRegisters(addr, uint16(len(regs)), packRegisters(regs))
	return err
}

// ReportSlaveID issues function 0x11 and returns the payload after the byte
// count: slave id, run indicator, then device specific data.
func (c *Client) ReportSlaveID() ([]byte, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	req, err := c.packager.Encode(&modbus.ProtocolDataUnit{FunctionCode: funcReportSlaveID})
	if err != nil {
		return nil, err
	}
	resp, err := c.transporter.Send(req)
	if err != nil {
		return nil, err
	}
	if err := c.packager.Verify(req, resp); err != nil {
		return nil, err
	}
	pdu, err := c.packager.Decode(resp)
	if err != nil {
		return nil, err
	}
	return reportPayload(pdu)
}

func reportPayload(pdu *modbus.ProtocolDataUnit) ([]byte, error) {
	if pdu.FunctionCode == funcReportSlaveID|0x80 {
		var code byte
		if len(pdu.Data) > 0 {
			code = pdu.Data[0]
		}
		return nil, &modbus.ModbusError{FunctionCode: pdu.FunctionCode, ExceptionCode: code}
	}
	if pdu.FunctionCode != funcReportSlaveID {
		return nil, fmt.Errorf("modbus: response function '%v' does not match request '%v'", pdu.FunctionCode, funcReportSlaveID)
	}
	if len(pdu.Data) < 1 {
		return nil, errors.New("modbus: empty report slave id response")
	}
	n := int(pdu.Data[0])
	if len(pdu.Data)-1 < n {
		return nil, fmt.Errorf("modbus: report slave id byte count %d exceeds payload %d", n, len(pdu.Data)-1)
	}
	return pdu.Data[1 : 1+n], nil
}

func (c *Client) ready() error {
	if c == nil || c.client == nil {
		return errors.New("transport: not connected")
	}
	return nil
}

func bitsOf(b []byte, qty uint16) ([]bool, error) {
	if len(b) < (int(qty)+7)/8 {
		return nil, fmt.Errorf("modbus: %d data bytes for %d bits", len(b), qty)
	}
	return unpackBits(b, int(qty)), nil
}

// zerologWriter feeds goburrow's frame dumps into the debug log.
type zerologWriter struct{ l zerolog.Logger }

func (w zerologWriter) Write(p []byte) (int, error) {
	msg := string(p)
	if n := len(msg); n > 0 && msg[n-1] == '\n' {
		msg = msg[:n-1]
	}
	w.l.Debug().Msg(msg)
	return len(p), nil
}
