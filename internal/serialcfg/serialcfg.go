// Package serialcfg describes a serial line setup and its short display form.
package serialcfg

import (
	"fmt"
	"strings"

	"github.com/goburrow/serial"

	"github.com/tamzrod/mbpoll/internal/fault"
)

// Parity is the parity letter used in the display form and by goburrow/serial.
type Parity byte

const (
	ParityNone Parity = 'N'
	ParityEven Parity = 'E'
	ParityOdd  Parity = 'O'
)

// Flow is the flow-control letter of the display form.
type Flow byte

const (
	FlowNone            Flow = ' '
	FlowRTSCTS          Flow = 'H'
	FlowXONXOFF         Flow = 'S'
	FlowRS485AfterSend  Flow = 'R'
	FlowRS485BeforeSend Flow = 'r'
)

// Settings is an immutable line configuration.
type Settings struct {
	Baud     int
	DataBits int
	Parity   Parity
	StopBits int
	Flow     Flow
}

// Default matches the usual Modbus RTU line: 19200 8E1.
var Default = Settings{
	Baud:     19200,
	DataBits: 8,
	Parity:   ParityEven,
	StopBits: 1,
	Flow:     FlowNone,
}

// String renders "<baud>-<databits><parity><stopbits><flow>", e.g. "19200-8E1 ".
func (s Settings) String() string {
	return fmt.Sprintf("%d-%d%c%d%c", s.Baud, s.DataBits, s.Parity, s.StopBits, s.Flow)
}

// CharBits is the number of bit times of one character on the line.
func (s Settings) CharBits() int {
	n := 1 + s.DataBits + s.StopBits
	if s.Parity != ParityNone {
		n++
	}
	return n
}

// Serial returns the goburrow/serial configuration for device addr.
func (s Settings) Serial(addr string) serial.Config {
	return serial.Config{
		Address:  addr,
		BaudRate: s.Baud,
		DataBits: s.DataBits,
		StopBits: s.StopBits,
		Parity:   string(rune(s.Parity)),
	}
}

// ParseParity accepts none, even and odd.
func ParseParity(v string) (Parity, error) {
	switch strings.ToLower(v) {
	case "none":
		return ParityNone, nil
	case "even":
		return ParityEven, nil
	case "odd":
		return ParityOdd, nil
	}
	return 0, fault.Syntax("illegal rtu parity: %s", v)
}

func (p Parity) Name() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	}
	return "unknown"
}

// MarshalText and UnmarshalText let profiles spell parity out.
func (p Parity) MarshalText() ([]byte, error) { return []byte(p.Name()), nil }

func (p *Parity) UnmarshalText(b []byte) error {
	v, err := ParseParity(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
