// internal/poller/builder.go
package poller

import (
	"time"

	"github.com/tamzrod/mbpoll/internal/config"
	"github.com/tamzrod/mbpoll/internal/fault"
	"github.com/tamzrod/mbpoll/internal/rts"
	"github.com/tamzrod/mbpoll/internal/transport"
)

// Build constructs a Session and wires the transport lifecycle: create the
// client, set up RTS, connect, settle. cfg must be validated and normalized.
// The session owns the transport and the RTS line and releases both when
// it drains.
func Build(cfg *config.Config, sink Sink, opts ...Option) (*Session, error) {
	if cfg == nil {
		return nil, fault.Config("no configuration")
	}
	o := newOptions(opts)
	r := cfg.Resolved

	dial := o.dial
	if dial == nil {
		dial = dialTransport
	}
	log := o.log.With().Str("device", cfg.Device).Logger()

	client, err := dial(transport.Config{
		Mode:    r.Mode,
		Address: r.Address,
		Line:    r.Line,
		Timeout: r.Timeout,
		Trace:   o.trace,
		Logger:  log,
	})
	if err != nil {
		return nil, fault.Setup(err, "unable to create the modbus context")
	}

	// ---- rts ----
	var ctrl *rts.Controller
	if r.RTS != rts.None {
		open := o.openPin
		if open == nil {
			open = rts.ChipOpener(cfg.RTS.Chip)
		}
		ctrl, err = rts.Activate(r.RTS, r.Line.Baud, cfg.RTS.Pin, open)
		if err != nil {
			return nil, fault.Setup(err, "unable to set gpio rts pin")
		}
		hd, ok := client.(rts.HalfDuplexer)
		if !ok {
			_ = ctrl.Close()
			return nil, fault.Setup(nil, "transport has no rs485 support")
		}
		if err := ctrl.Attach(hd); err != nil {
			_ = ctrl.Close()
			return nil, fault.Setup(err, "unable to set rs485 mode")
		}
		log.Debug().Stringer("rts", r.RTS).Dur("delay", ctrl.Profile().ToggleDelay).Msg("rts configured")
	} else if cfg.RTS.Mode != "" && cfg.RTS.Mode != "none" {
		log.Debug().Msg("rts options ignored outside rtu mode")
	}

	// ---- connect ----
	if err := client.Connect(); err != nil {
		_ = ctrl.Close()
		return nil, fault.Setup(err, "connection failed")
	}
	if o.settle > 0 {
		time.Sleep(o.settle)
	}

	s, err := NewSession(cfg, client, sink, opts...)
	if err != nil {
		_ = client.Close()
		_ = ctrl.Close()
		return nil, err
	}
	// released in reverse: transport first, then the rts line
	if ctrl != nil {
		s.closers = append(s.closers, ctrl.Close)
	}
	s.closers = append(s.closers, client.Close)
	return s, nil
}
