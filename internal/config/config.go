// internal/config/config.go
package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tamzrod/mbpoll/internal/codec"
	"github.com/tamzrod/mbpoll/internal/rts"
	"github.com/tamzrod/mbpoll/internal/serialcfg"
	"github.com/tamzrod/mbpoll/internal/transport"
)

// Mode is the framing requested by the user. Empty means "pick from the
// device name".
type Mode string

const (
	ModeAuto Mode = ""
	ModeRTU  Mode = "rtu"
	ModeTCP  Mode = "tcp"
)

// Table is the reference table number of the classic Modbus numbering
// (0xxxx coils, 1xxxx inputs, 3xxxx input registers, 4xxxx holding registers).
type Table int

const (
	CoilTable            Table = 0
	DiscreteInputTable   Table = 1
	InputRegisterTable   Table = 3
	HoldingRegisterTable Table = 4
)

func (t Table) Valid() bool {
	switch t {
	case CoilTable, DiscreteInputTable, InputRegisterTable, HoldingRegisterTable:
		return true
	}
	return false
}

func (t Table) Writable() bool { return t == CoilTable || t == HoldingRegisterTable }

func (t Table) IsBit() bool { return t == CoilTable || t == DiscreteInputTable }

func (t Table) String() string {
	switch t {
	case CoilTable:
		return "discrete output (coil)"
	case DiscreteInputTable:
		return "discrete input"
	case InputRegisterTable:
		return "input register"
	case HoldingRegisterTable:
		return "output (holding) register"
	}
	return "table " + strconv.Itoa(int(t))
}

// Config is one polling session as given on the command line or in a
// YAML profile.
type Config struct {
	Mode   Mode   `yaml:"mode"`
	Device string `yaml:"device"`
	Port   string `yaml:"port"`

	// Range lists, e.g. "1,3:5".
	Slaves     string `yaml:"slaves"`
	References string `yaml:"references"`

	// Count is the number of elements per request; 0 means not given.
	Count  int    `yaml:"count"`
	Table  Table  `yaml:"table"`
	Format string `yaml:"format"`

	BigEndian     bool `yaml:"big_endian"`
	ZeroBased     bool `yaml:"zero_based"`
	WriteMultiple bool `yaml:"write_multiple"`
	OneShot       bool `yaml:"one_shot"`
	Stream        bool `yaml:"stream"`
	ReportSlaveID bool `yaml:"report_slave_id"`

	PollRateMs int     `yaml:"poll_rate_ms"`
	TimeoutS   float64 `yaml:"timeout_s"`

	Serial SerialConfig `yaml:"serial"`
	RTS    RTSConfig    `yaml:"rts"`

	Output      string `yaml:"output"`
	MetricsFile string `yaml:"metrics_file"`

	// Values to write; a non-empty list makes the session a one-shot write.
	Values []string `yaml:"values"`

	// Resolved is filled by Normalize.
	Resolved Resolved `yaml:"-"`
}

// ---- SERIAL ----

type SerialConfig struct {
	Baud     int              `yaml:"baud"`
	DataBits int              `yaml:"data_bits"`
	StopBits int              `yaml:"stop_bits"`
	Parity   serialcfg.Parity `yaml:"parity"`
}

// ---- RTS ----

type RTSConfig struct {
	// Mode is "", "none", "after" (RTS down while sending) or "before"
	// (RTS up while sending).
	Mode string `yaml:"mode"`
	Pin  *int   `yaml:"pin"`
	Chip string `yaml:"chip"`
}

// ---- RESOLVED ----

// Resolved is the session-ready view of Config.
type Resolved struct {
	Mode    transport.Mode
	Address string

	Slaves []int
	// References as the user numbered them; Starts are the matching
	// 0-based protocol addresses.
	References []int
	Starts     []uint16

	Count  int
	Format codec.Format
	Order  codec.Order

	Write   bool
	Polling bool

	Line     serialcfg.Settings
	RTS      rts.Mode
	Timeout  time.Duration
	PollRate time.Duration
}

// Default is the session used when nothing is specified.
func Default() Config {
	return Config{
		Port:       strconv.Itoa(DefaultTCPPort),
		Table:      HoldingRegisterTable,
		PollRateMs: DefaultPollRateMs,
		TimeoutS:   DefaultTimeoutS,
		Serial: SerialConfig{
			Baud:     serialcfg.Default.Baud,
			DataBits: serialcfg.Default.DataBits,
			StopBits: serialcfg.Default.StopBits,
			Parity:   serialcfg.Default.Parity,
		},
		RTS: RTSConfig{Chip: rts.DefaultChip},
	}
}

// IsWrite reports whether the session writes: values were given, or a
// stream is read from stdin because no count was requested.
func (c *Config) IsWrite() bool {
	return len(c.Values) > 0 || (c.Stream && c.Count == 0)
}

func (c *Config) SmallPollRate() bool {
	return c.PollRateMs < MinStablePollRateMs
}

func parseRTSMode(s string) (rts.Mode, error) {
	switch s {
	case "", "none":
		return rts.None, nil
	case "after", "down":
		return rts.AfterSend, nil
	case "before", "up":
		return rts.BeforeSend, nil
	}
	return rts.None, fmt.Errorf("config: illegal rts mode %q", s)
}
