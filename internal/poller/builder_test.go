// internal/poller/builder_test.go
package poller

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/mbpoll/internal/config"
	"github.com/tamzrod/mbpoll/internal/fault"
	"github.com/tamzrod/mbpoll/internal/rts"
	"github.com/tamzrod/mbpoll/internal/transport"
)

type fakeConn struct {
	fakeClient
	cfg        transport.Config
	connectErr error
	connected  bool
	rs485      rts.Mode
	before     func() error
	after      func(time.Duration) error
}

func (c *fakeConn) Connect() error {
	if c.connectErr != nil {
		return c.connectErr
	}
	c.connected = true
	return nil
}

func (c *fakeConn) EnableRS485(m rts.Mode) error { c.rs485 = m; return nil }

func (c *fakeConn) SetTransmitHooks(before func() error, after func(time.Duration) error) error {
	c.before, c.after = before, after
	return nil
}

type fakePin struct {
	levels []bool
	closed bool
}

func (p *fakePin) SetOutput() error      { return nil }
func (p *fakePin) Write(high bool) error { p.levels = append(p.levels, high); return nil }
func (p *fakePin) Close() error          { p.closed = true; return nil }

func dialerFor(conn *fakeConn) Dialer {
	return func(cfg transport.Config) (Conn, error) {
		conn.cfg = cfg
		return conn, nil
	}
}

func TestBuild_TCP(t *testing.T) {
	cfg := normalized(t, "10.1.1.1", func(c *config.Config) { c.Port = "1502" })
	conn := &fakeConn{fakeClient: fakeClient{regs: []uint16{1}}}

	s, err := Build(cfg, &fakeSink{}, WithDialer(dialerFor(conn)), WithSettle(0))
	require.NoError(t, err)

	assert.True(t, conn.connected)
	assert.Equal(t, transport.TCP, conn.cfg.Mode)
	assert.Equal(t, "10.1.1.1:1502", conn.cfg.Address)
	assert.Equal(t, time.Second, conn.cfg.Timeout)
	assert.Equal(t, Idle, s.State())

	RunOnce(s)
	assert.Equal(t, 1, conn.closed)
}

func TestBuild_RTSWithPin(t *testing.T) {
	pinNo := 17
	cfg := normalized(t, "/dev/ttyUSB0", func(c *config.Config) {
		c.RTS.Mode = "before"
		c.RTS.Pin = &pinNo
	})
	conn := &fakeConn{fakeClient: fakeClient{regs: []uint16{1}}}
	pin := &fakePin{}
	var opened int

	s, err := Build(cfg, &fakeSink{},
		WithDialer(dialerFor(conn)),
		WithSettle(0),
		WithPinOpener(func(n int) (rts.Pin, error) { opened = n; return pin, nil }),
	)
	require.NoError(t, err)

	assert.Equal(t, 17, opened)
	require.NotNil(t, conn.before)
	require.NoError(t, conn.before())
	assert.Equal(t, []bool{false, true}, pin.levels)

	RunOnce(s)
	assert.True(t, pin.closed)
	assert.Equal(t, 1, conn.closed)
}

func TestBuild_NativeRS485(t *testing.T) {
	cfg := normalized(t, "/dev/ttyS0", func(c *config.Config) { c.RTS.Mode = "after" })
	conn := &fakeConn{}

	_, err := Build(cfg, &fakeSink{}, WithDialer(dialerFor(conn)), WithSettle(0))
	require.NoError(t, err)
	assert.Equal(t, rts.AfterSend, conn.rs485)
	assert.Nil(t, conn.before)
}

func TestBuild_ConnectFailureIsSetupError(t *testing.T) {
	cfg := normalized(t, "plc", nil)
	conn := &fakeConn{connectErr: errors.New("connection refused")}

	_, err := Build(cfg, &fakeSink{}, WithDialer(dialerFor(conn)), WithSettle(0))
	if !errors.Is(err, fault.ErrSetup) {
		t.Fatalf("expected setup error, got %v", err)
	}
	if !fault.Fatal(err) {
		t.Fatalf("setup errors are fatal")
	}
}

func TestBuild_SessionErrorReleasesTransport(t *testing.T) {
	cfg := normalized(t, "plc", func(c *config.Config) { c.Values = []string{"99999"} })
	conn := &fakeConn{}

	_, err := Build(cfg, &fakeSink{}, WithDialer(dialerFor(conn)), WithSettle(0))
	require.True(t, errors.Is(err, fault.ErrRange))
	assert.Equal(t, 1, conn.closed)
}
