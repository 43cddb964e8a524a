// internal/config/normalize.go
package config

import (
	"net"
	"time"

	"github.com/tamzrod/mbpoll/internal/codec"
	"github.com/tamzrod/mbpoll/internal/rangelist"
	"github.com/tamzrod/mbpoll/internal/rts"
	"github.com/tamzrod/mbpoll/internal/serialcfg"
	"github.com/tamzrod/mbpoll/internal/transport"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	r := &cfg.Resolved

	r.Mode = cfg.EffectiveMode()
	if r.Mode == transport.TCP {
		r.Address = net.JoinHostPort(cfg.Device, cfg.Port)
	} else {
		r.Address = cfg.Device
	}

	// Errors were reported by Validate.
	r.Slaves, _ = rangelist.Expand(cfg.Slaves, "slave address")
	if len(r.Slaves) == 0 {
		r.Slaves = []int{DefaultSlave}
	}
	r.References, _ = rangelist.Expand(cfg.References, "start reference")
	if len(r.References) == 0 {
		r.References = []int{DefaultReference}
		if cfg.ZeroBased {
			r.References[0] = DefaultReference - 1
		}
	}
	offset := 1
	if cfg.ZeroBased {
		offset = 0
	}
	r.Starts = make([]uint16, len(r.References))
	for i, ref := range r.References {
		r.Starts[i] = uint16(ref - offset)
	}

	// ------------------------------------------------------------
	// FORMAT / ORDER
	// ------------------------------------------------------------

	r.Format = codec.Decimal16
	if cfg.Format != "" {
		r.Format, _ = codec.ParseFormat(cfg.Format)
	}
	if cfg.Table.IsBit() {
		r.Format = codec.Binary
	}
	r.Order = codec.LittleEndianWord
	if cfg.BigEndian {
		r.Order = codec.BigEndianWord
	}

	// ------------------------------------------------------------
	// COUNT / OPERATION
	// ------------------------------------------------------------

	r.Write = cfg.IsWrite() && !cfg.ReportSlaveID
	r.Polling = !cfg.OneShot && !cfg.ReportSlaveID

	switch {
	case cfg.ReportSlaveID:
		r.Count = 1
	case len(cfg.Values) > 0:
		r.Count = len(cfg.Values)
		r.Polling = false
	case r.Write:
		// stream input: one element per listed reference
		r.Count = len(r.References)
	case cfg.Count == 0:
		r.Count = 1
	default:
		r.Count = cfg.Count
	}
	if !r.Write && len(r.References) > 1 {
		r.Count = 1
	}

	// ------------------------------------------------------------
	// LINE / TIMING
	// ------------------------------------------------------------

	r.Line = serialcfg.Settings{
		Baud:     cfg.Serial.Baud,
		DataBits: cfg.Serial.DataBits,
		Parity:   cfg.Serial.Parity,
		StopBits: cfg.Serial.StopBits,
		Flow:     serialcfg.FlowNone,
	}
	r.RTS, _ = parseRTSMode(cfg.RTS.Mode)
	if r.Mode != transport.RTU {
		r.RTS = rts.None
	}
	switch r.RTS {
	case rts.AfterSend:
		r.Line.Flow = serialcfg.FlowRS485AfterSend
	case rts.BeforeSend:
		r.Line.Flow = serialcfg.FlowRS485BeforeSend
	}

	r.Timeout = time.Duration(cfg.TimeoutS * float64(time.Second))
	r.PollRate = time.Duration(cfg.PollRateMs) * time.Millisecond
}
