// internal/poller/report.go
package poller

import (
	"errors"

	"github.com/tamzrod/mbpoll/internal/fault"
)

// ServerID is a decoded report slave id answer.
type ServerID struct {
	ID      byte
	Running bool
	// Data is the device specific part, often an ASCII description.
	Data []byte
}

// ParseServerID splits the payload after the byte count.
func ParseServerID(b []byte) (ServerID, error) {
	if len(b) < 2 {
		return ServerID{}, errors.New("poller: report slave id answer too short")
	}
	return ServerID{
		ID:      b[0],
		Running: b[1] == 0xFF,
		Data:    b[2:],
	}, nil
}

// ReportSlaveID asks the first slave to identify itself, then drains the
// session. The request is counted like any other.
func ReportSlaveID(s *Session) (Result, error) {
	if s.kind != ReportServerID {
		return Result{}, fault.Config("session was not built for report slave id")
	}
	if s.state != Idle {
		return Result{}, fault.Config("session already %s", s.state)
	}
	defer s.drain()

	s.state = Executing
	res, _ := s.execute(s.requests()[0])
	s.sink.Emit(res)
	return res, res.Err
}
