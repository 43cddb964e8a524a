// internal/poller/poller.go
package poller

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/mbpoll/internal/codec"
	"github.com/tamzrod/mbpoll/internal/config"
	"github.com/tamzrod/mbpoll/internal/fault"
	"github.com/tamzrod/mbpoll/internal/status"
)

// Client abstracts Modbus operations needed by the poller.
// The poller depends on addresses and element counts only.
type Client interface {
	SetSlave(id uint8)
	ReadCoils(addr, qty uint16) ([]bool, error)              // FC 1
	ReadDiscreteInputs(addr, qty uint16) ([]bool, error)     // FC 2
	ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) // FC 3
	ReadInputRegisters(addr, qty uint16) ([]uint16, error)   // FC 4
	WriteCoil(addr uint16, on bool) error                    // FC 5
	WriteRegister(addr uint16, v uint16) error               // FC 6
	WriteCoils(addr uint16, bits []bool) error               // FC 15
	WriteRegisters(addr uint16, regs []uint16) error         // FC 16
	ReportSlaveID() ([]byte, error)                          // FC 17
	Close() error
}

var errStreamEnd = errors.New("poller: couldn't read from input stream")

// Session is one configured polling run against one transport.
// It is not safe for concurrent use.
type Session struct {
	kind   FunctionKind
	slaves []int
	refs   []int
	starts []uint16
	count  int
	order  codec.Order

	writeMultiple bool
	polling       bool
	pollRate      time.Duration
	stream        bool
	reportID      bool

	buf    *codec.Buffer
	client Client
	sink   Sink
	input  io.Reader
	log    zerolog.Logger

	metricsFile string
	closers     []func() error

	state   State
	stats   Statistics
	snap    status.Snapshot
	drained bool
}

// NewSession validates the normalized configuration against the session
// rules and prepares the element buffer. Write values are encoded here, so
// a value that does not fit its format fails before any transport call.
func NewSession(cfg *config.Config, client Client, sink Sink, opts ...Option) (*Session, error) {
	if cfg == nil {
		return nil, errors.New("poller: config required")
	}
	if client == nil {
		return nil, errors.New("poller: client required")
	}
	if sink == nil {
		return nil, errors.New("poller: sink required")
	}
	o := newOptions(opts)
	r := cfg.Resolved

	s := &Session{
		slaves:        r.Slaves,
		refs:          r.References,
		starts:        r.Starts,
		count:         r.Count,
		order:         r.Order,
		writeMultiple: cfg.WriteMultiple,
		polling:       r.Polling,
		pollRate:      r.PollRate,
		stream:        cfg.Stream,
		reportID:      cfg.ReportSlaveID,
		client:        client,
		sink:          sink,
		input:         o.input,
		log:           o.log,
		metricsFile:   cfg.MetricsFile,
		state:         Building,
	}
	s.snap.Device = cfg.Device
	s.snap.Operation = "read"
	if r.Write {
		s.snap.Operation = "write"
	}

	if len(s.slaves) == 0 || len(s.refs) == 0 || len(s.refs) != len(s.starts) {
		return nil, fault.Config("configuration was not normalized")
	}

	kind, err := kindOf(cfg.Table, r.Write)
	if err != nil {
		return nil, err
	}
	if cfg.ReportSlaveID {
		kind = ReportServerID
	}
	s.kind = kind

	if err := checkLists(kind, len(s.slaves), len(s.refs), cfg.Stream); err != nil {
		return nil, err
	}

	if kind.IsBit() != (r.Format == codec.Binary) {
		return nil, fault.Config("format %s does not fit %s", r.Format, kind)
	}
	if s.count < config.CountMin || s.count > config.CountMax {
		return nil, fault.Config("illegal number of values: %d (%d..%d)", s.count, config.CountMin, config.CountMax)
	}

	s.buf = codec.NewBuffer(r.Format, s.count)

	if len(cfg.Values) > 0 {
		if len(cfg.Values) != s.count {
			return nil, fault.Config("%d values for %d elements", len(cfg.Values), s.count)
		}
		for i, text := range cfg.Values {
			v, err := codec.ParseValue(r.Format, text)
			if err != nil {
				return nil, err
			}
			if err := s.buf.Set(s.order, i, v); err != nil {
				return nil, fault.Config("%v", err)
			}
		}
	}
	if kind.IsWrite() && s.stream && s.input == nil {
		return nil, fault.Config("stream input requires a reader")
	}

	s.state = Idle
	return s, nil
}

func kindOf(t config.Table, write bool) (FunctionKind, error) {
	switch t {
	case config.CoilTable:
		if write {
			return WriteCoil, nil
		}
		return ReadCoil, nil
	case config.HoldingRegisterTable:
		if write {
			return WriteHoldingRegister, nil
		}
		return ReadHoldingRegister, nil
	case config.DiscreteInputTable, config.InputRegisterTable:
		if write {
			return 0, fault.Syntax("unable to write read-only element")
		}
		if t == config.DiscreteInputTable {
			return ReadDiscreteInput, nil
		}
		return ReadInputRegister, nil
	}
	return 0, fault.Config("illegal function: %d", int(t))
}

// checkLists enforces which sessions accept address lists.
func checkLists(kind FunctionKind, slaves, refs int, stream bool) error {
	if slaves > 1 && refs > 1 {
		return fault.Config("you can give either a slave address list or a start reference list, not both")
	}
	if slaves > 1 && (stream || kind.IsWrite() || kind == ReportServerID) {
		return fault.Config("you can give a slave address list only for reading without streaming")
	}
	if refs > 1 && kind.IsWrite() && !stream {
		return fault.Config("you can give a start reference list only for reading or streaming")
	}
	return nil
}

// State is the current lifecycle state.
func (s *Session) State() State { return s.state }

// Statistics is a copy of the request counters.
func (s *Session) Statistics() Statistics { return s.stats }

// Snapshot is the statistics report of the session so far.
func (s *Session) Snapshot() status.Snapshot {
	snap := s.snap
	snap.Transmitted = s.stats.Transmitted
	snap.Received = s.stats.Received
	snap.Errors = s.stats.Errors
	return snap
}

// Kind is the operation every request of the session performs.
func (s *Session) Kind() FunctionKind { return s.kind }

// Polling reports whether the session repeats its cycle.
func (s *Session) Polling() bool { return s.polling }

// ---- requests ----

func (s *Session) requests() []PollRequest {
	if s.kind.IsWrite() || s.kind == ReportServerID {
		return []PollRequest{s.request(s.slaves[0], 0)}
	}
	out := make([]PollRequest, 0, len(s.slaves)*len(s.refs))
	for _, slave := range s.slaves {
		for j := range s.refs {
			out = append(out, s.request(slave, j))
		}
	}
	return out
}

func (s *Session) request(slave, j int) PollRequest {
	return PollRequest{
		Kind:      s.kind,
		Slave:     slave,
		Reference: s.refs[j],
		Start:     s.starts[j],
		Count:     s.count,
		Buffer:    s.buf,
	}
}

// execute performs one transport call and accounts for it.
func (s *Session) execute(req PollRequest) (Result, error) {
	res := Result{Kind: req.Kind, Slave: req.Slave, Reference: req.Reference, Count: req.Count}

	s.client.SetSlave(uint8(req.Slave))
	s.stats.Transmitted++

	var err error
	switch {
	case req.Kind == ReportServerID:
		res.ServerID, err = s.client.ReportSlaveID()
	case req.Kind.IsWrite():
		err = s.write(req)
	default:
		err = s.read(req)
		if err == nil {
			res.Values, err = req.Buffer.Values(s.order)
			res.Raw = append([]byte(nil), req.Buffer.Bytes()...)
		}
	}

	if errors.Is(err, errStreamEnd) {
		res.Err = fault.Request(err, "write %s failed", req.Kind)
		s.fail(res)
		return res, err
	}
	if err != nil {
		verb := "read"
		if req.Kind.IsWrite() {
			verb = "write"
		}
		res.Err = fault.Request(err, "%s %s failed", verb, req.Kind)
		res.Values, res.Raw, res.ServerID = nil, nil, nil
		s.fail(res)
		return res, nil
	}

	s.stats.Received++
	s.snap.Observe(nil)
	return res, nil
}

func (s *Session) fail(res Result) {
	s.stats.Errors++
	s.snap.Observe(res.Err)
	s.log.Debug().Err(res.Err).Int("slave", res.Slave).Int("reference", res.Reference).Msg("request failed")
}

func (s *Session) read(req PollRequest) error {
	n := req.Buffer.WordCount()
	qty := uint16(n)

	switch req.Kind {
	case ReadCoil, ReadDiscreteInput:
		var bits []bool
		var err error
		if req.Kind == ReadCoil {
			bits, err = s.client.ReadCoils(req.Start, qty)
		} else {
			bits, err = s.client.ReadDiscreteInputs(req.Start, qty)
		}
		if err != nil {
			return err
		}
		if len(bits) != n {
			return fmt.Errorf("got %d bits, expected %d", len(bits), n)
		}
		return req.Buffer.SetBits(bits)

	case ReadInputRegister, ReadHoldingRegister:
		var regs []uint16
		var err error
		if req.Kind == ReadInputRegister {
			regs, err = s.client.ReadInputRegisters(req.Start, qty)
		} else {
			regs, err = s.client.ReadHoldingRegisters(req.Start, qty)
		}
		if err != nil {
			return err
		}
		if len(regs) != n {
			return fmt.Errorf("got %d registers, expected %d", len(regs), n)
		}
		return req.Buffer.SetWords(regs)
	}
	return fmt.Errorf("poller: %s is not a read", req.Kind)
}

func (s *Session) write(req PollRequest) error {
	if s.stream {
		raw := make([]byte, len(req.Buffer.Bytes()))
		if _, err := io.ReadFull(s.input, raw); err != nil {
			return errStreamEnd
		}
		if err := req.Buffer.Fill(raw); err != nil {
			return err
		}
	}

	switch req.Kind {
	case WriteCoil:
		bits := req.Buffer.Bits()
		if len(bits) == 1 {
			return s.client.WriteCoil(req.Start, bits[0])
		}
		return s.client.WriteCoils(req.Start, bits)

	case WriteHoldingRegister:
		words := req.Buffer.Words()
		if len(words) == 1 && !s.writeMultiple {
			return s.client.WriteRegister(req.Start, words[0])
		}
		return s.client.WriteRegisters(req.Start, words)
	}
	return fmt.Errorf("poller: %s is not a write", req.Kind)
}
