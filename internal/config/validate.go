// internal/config/validate.go
package config

import (
	"strings"

	"github.com/tamzrod/mbpoll/internal/codec"
	"github.com/tamzrod/mbpoll/internal/fault"
	"github.com/tamzrod/mbpoll/internal/rangelist"
	"github.com/tamzrod/mbpoll/internal/transport"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fault.Config("no configuration")
	}

	// ------------------------------------------------------------
	// DEVICE / MODE
	// ------------------------------------------------------------

	if cfg.Device == "" {
		return fault.Syntax("device or host parameter missing")
	}
	switch cfg.Mode {
	case ModeAuto, ModeRTU, ModeTCP:
	default:
		return fault.Syntax("illegal mode: %s", cfg.Mode)
	}
	mode := cfg.EffectiveMode()

	// ------------------------------------------------------------
	// TABLE / FORMAT
	// ------------------------------------------------------------

	if !cfg.Table.Valid() {
		return fault.Config("illegal function: %d", int(cfg.Table))
	}
	if cfg.Format != "" {
		if _, err := codec.ParseFormat(cfg.Format); err != nil {
			return err
		}
	}

	if cfg.Count != 0 && (cfg.Count < CountMin || cfg.Count > CountMax) {
		return fault.Config("illegal number of values: %d (%d..%d)", cfg.Count, CountMin, CountMax)
	}

	// ------------------------------------------------------------
	// ADDRESS LISTS
	// ------------------------------------------------------------

	slaves, err := rangelist.Expand(cfg.Slaves, "slave address")
	if err != nil {
		return err
	}
	slaveMin := TCPSlaveMin
	if mode == transport.RTU {
		slaveMin = RTUSlaveMin
	}
	for _, s := range slaves {
		if s < slaveMin || s > SlaveMax {
			return fault.Config("illegal slave address: %d (%d..%d)", s, slaveMin, SlaveMax)
		}
	}

	refs, err := rangelist.Expand(cfg.References, "start reference")
	if err != nil {
		return err
	}
	refMin, refMax := ReferenceMin, ReferenceMax
	if cfg.ZeroBased {
		refMin, refMax = refMin-1, refMax-1
	}
	for _, r := range refs {
		if r < refMin || r > refMax {
			return fault.Config("illegal start reference: %d (%d..%d)", r, refMin, refMax)
		}
	}

	// ------------------------------------------------------------
	// TIMING
	// ------------------------------------------------------------

	if cfg.PollRateMs < 0 {
		return fault.Syntax("illegal poll rate: %d", cfg.PollRateMs)
	}
	if cfg.TimeoutS < TimeoutMinS || cfg.TimeoutS > TimeoutMaxS {
		return fault.Config("illegal timeout: %g (%g..%g)", cfg.TimeoutS, TimeoutMinS, TimeoutMaxS)
	}

	// ------------------------------------------------------------
	// SERIAL LINE
	// ------------------------------------------------------------

	if mode == transport.RTU {
		s := cfg.Serial
		if s.Baud < BaudMin || s.Baud > BaudMax {
			return fault.Config("illegal rtu baudrate: %d (%d..%d)", s.Baud, BaudMin, BaudMax)
		}
		if s.DataBits != 7 && s.DataBits != 8 {
			return fault.Config("illegal rtu databits: %d", s.DataBits)
		}
		if s.StopBits != 1 && s.StopBits != 2 {
			return fault.Config("illegal rtu stopbits: %d", s.StopBits)
		}
		if s.Parity.Name() == "unknown" {
			return fault.Config("illegal rtu parity: %q", string(rune(s.Parity)))
		}
	}

	if _, err := parseRTSMode(cfg.RTS.Mode); err != nil {
		return fault.Syntax("%v", err)
	}
	if cfg.RTS.Pin != nil && *cfg.RTS.Pin < 0 {
		return fault.Config("illegal rts pin: %d", *cfg.RTS.Pin)
	}

	// ------------------------------------------------------------
	// OPERATION
	// ------------------------------------------------------------

	if cfg.ReportSlaveID && mode != transport.RTU {
		return fault.Syntax("report slave id is available only in RTU mode")
	}
	if len(cfg.Values) > 0 {
		if cfg.Count != 0 {
			return fault.Syntax("count must not be specified for writing")
		}
		if cfg.Stream {
			return fault.Syntax("write values and stream input are exclusive")
		}
	}
	if cfg.IsWrite() && !cfg.ReportSlaveID && !cfg.Table.Writable() {
		return fault.Syntax("unable to write read-only element")
	}

	return nil
}

// EffectiveMode resolves ModeAuto from the device name.
func (c *Config) EffectiveMode() transport.Mode {
	switch c.Mode {
	case ModeRTU:
		return transport.RTU
	case ModeTCP:
		return transport.TCP
	}
	d := strings.ToLower(c.Device)
	for _, hint := range []string{"com", "tty", "ser"} {
		if strings.Contains(d, hint) {
			return transport.RTU
		}
	}
	return transport.TCP
}
