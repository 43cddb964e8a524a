// internal/poller/types.go
package poller

import (
	"github.com/tamzrod/mbpoll/internal/codec"
	"github.com/tamzrod/mbpoll/internal/status"
)

// FunctionKind is the Modbus operation a request performs.
type FunctionKind int

const (
	ReadCoil FunctionKind = iota
	ReadDiscreteInput
	ReadInputRegister
	ReadHoldingRegister
	WriteCoil
	WriteHoldingRegister
	ReportServerID
)

func (k FunctionKind) IsWrite() bool { return k == WriteCoil || k == WriteHoldingRegister }

func (k FunctionKind) IsBit() bool {
	return k == ReadCoil || k == ReadDiscreteInput || k == WriteCoil
}

func (k FunctionKind) String() string {
	switch k {
	case ReadCoil, WriteCoil:
		return "discrete output (coil) status"
	case ReadDiscreteInput:
		return "discrete input status"
	case ReadInputRegister:
		return "input registers"
	case ReadHoldingRegister, WriteHoldingRegister:
		return "output (holding) registers"
	case ReportServerID:
		return "report slave id"
	}
	return "unknown function"
}

// State is where a session is in its lifecycle.
type State int

const (
	Idle State = iota
	Building
	Executing
	Waiting
	Draining
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Building:
		return "building"
	case Executing:
		return "executing"
	case Waiting:
		return "waiting"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// PollRequest is one transport call of a cycle. Built per slave and
// reference, never retained.
type PollRequest struct {
	Kind  FunctionKind
	Slave int
	// Reference as numbered by the user; Start is the protocol address.
	Reference int
	Start     uint16
	Count     int
	Buffer    *codec.Buffer
}

// Result is the outcome of one request.
type Result struct {
	Kind      FunctionKind
	Slave     int
	Reference int
	Count     int

	// Values are the decoded elements of a successful read.
	Values []codec.Value
	// Raw is a copy of the element buffer of a successful read.
	Raw []byte
	// ServerID is the payload of a report slave id answer.
	ServerID []byte

	Err error
}

// Statistics counts requests of a session.
// Received <= Transmitted and Errors == Transmitted - Received.
type Statistics struct {
	Transmitted int
	Received    int
	Errors      int
}

// Sink receives everything a session produces.
type Sink interface {
	// Begin is called before the requests addressed to one slave.
	Begin(slave int)
	Emit(r Result)
	// Report is called exactly once, when the session drains.
	Report(s status.Snapshot)
}

// ResultFunc observes results as they are emitted.
type ResultFunc func(Result)
