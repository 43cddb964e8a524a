// internal/status/status_test.go
package status

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goburrow/modbus"
)

func TestEncode_Report(t *testing.T) {
	s := Snapshot{Device: "/dev/ttyUSB0", Operation: "read", Transmitted: 4, Received: 3, Errors: 1}
	want := "--- /dev/ttyUSB0 read statistics ---\n4 frames transmitted, 3 received, 1 errors, 25.0% frame loss\n"
	if got := Encode(s); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestFrameLoss_NothingSent(t *testing.T) {
	if l := (Snapshot{}).FrameLoss(); l != 0 {
		t.Fatalf("expected 0, got %v", l)
	}
}

func TestObserve(t *testing.T) {
	var s Snapshot
	if s.Health != HealthUnknown {
		t.Fatalf("zero snapshot must be unknown")
	}

	s.Observe(fmt.Errorf("read: %w", &modbus.ModbusError{FunctionCode: 0x83, ExceptionCode: 2}))
	if s.Health != HealthError || s.LastErrorCode != 2 {
		t.Fatalf("unexpected %+v", s)
	}

	s.Observe(errors.New("timeout"))
	if s.LastErrorCode != ErrorGeneric {
		t.Fatalf("expected generic code, got %d", s.LastErrorCode)
	}

	s.Observe(nil)
	if s.Health != HealthOK || s.LastErrorCode != 0 {
		t.Fatalf("unexpected %+v", s)
	}
}

func TestWriteTextfile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "mbpoll.prom")
	s := Snapshot{Device: "plc:502", Operation: "read", Transmitted: 10, Received: 9, Errors: 1, Health: HealthOK}

	if err := WriteTextfile(p, s); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	out := string(b)
	for _, want := range []string{
		`mbpoll_frames_transmitted{device="plc:502",operation="read"} 10`,
		`mbpoll_frame_errors{device="plc:502",operation="read"} 1`,
		`mbpoll_health{device="plc:502",operation="read"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}
