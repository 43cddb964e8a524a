// internal/status/snapshot.go
package status

import (
	"errors"

	"github.com/goburrow/modbus"
)

// Snapshot is the statistics of one session at a point in time.
type Snapshot struct {
	Device    string
	Operation string // "read" or "write"

	Transmitted int
	Received    int
	Errors      int

	Health        uint16
	LastErrorCode uint16
}

// FrameLoss is the share of transmitted frames without a valid answer, in
// percent. Zero when nothing was sent.
func (s Snapshot) FrameLoss() float64 {
	if s.Transmitted == 0 {
		return 0
	}
	return float64(s.Transmitted-s.Received) * 100 / float64(s.Transmitted)
}

// Observe folds the outcome of one request into the health fields.
func (s *Snapshot) Observe(err error) {
	if err == nil {
		s.Health = HealthOK
		s.LastErrorCode = 0
		return
	}
	s.Health = HealthError
	s.LastErrorCode = ErrorCode(err)
}

// ErrorCode extracts the Modbus exception code from err.
// If the error does not expose one, returns ErrorGeneric.
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}
	var mbErr *modbus.ModbusError
	if errors.As(err, &mbErr) {
		return uint16(mbErr.ExceptionCode)
	}
	return ErrorGeneric
}
