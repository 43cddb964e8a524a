package rts

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePin struct {
	output bool
	levels []bool
	closed bool
	err    error
}

func (p *fakePin) SetOutput() error { p.output = true; return nil }

func (p *fakePin) Write(high bool) error {
	if p.err != nil {
		return p.err
	}
	p.levels = append(p.levels, high)
	return nil
}

func (p *fakePin) Close() error { p.closed = true; return nil }

type fakeLine struct {
	rs485  Mode
	before func() error
	after  func(time.Duration) error
}

func (l *fakeLine) EnableRS485(m Mode) error { l.rs485 = m; return nil }

func (l *fakeLine) SetTransmitHooks(before func() error, after func(time.Duration) error) error {
	l.before, l.after = before, after
	return nil
}

func opener(p *fakePin) PinOpener {
	return func(int) (Pin, error) { return p, nil }
}

func TestToggleDelay(t *testing.T) {
	assert.Equal(t, 286*time.Microsecond, ToggleDelay(19200))
	assert.Equal(t, 572*time.Microsecond, ToggleDelay(9600))
	assert.Equal(t, time.Duration(0), ToggleDelay(0))
}

func TestActivateWithPin(t *testing.T) {
	pin := &fakePin{}
	n := 5

	c, err := Activate(AfterSend, 19200, &n, opener(pin))
	require.NoError(t, err)

	prof := c.Profile()
	assert.True(t, prof.HasPin)
	assert.Equal(t, 5, prof.Pin)
	assert.Equal(t, 286*time.Microsecond, prof.ToggleDelay)
	assert.True(t, pin.output)
	// idle level for AfterSend is high
	assert.Equal(t, []bool{true}, pin.levels)
}

func TestHooksDriveActiveLevel(t *testing.T) {
	for _, tc := range []struct {
		mode   Mode
		active bool
	}{
		{BeforeSend, true},
		{AfterSend, false},
	} {
		pin := &fakePin{}
		n := 17
		c, err := Activate(tc.mode, 19200, &n, opener(pin))
		require.NoError(t, err)

		var slept []time.Duration
		c.sleep = func(d time.Duration) { slept = append(slept, d) }

		line := &fakeLine{}
		require.NoError(t, c.Attach(line))
		require.NotNil(t, line.before)
		assert.Equal(t, None, line.rs485)

		require.NoError(t, line.before())
		require.NoError(t, line.after(time.Millisecond))

		assert.Equal(t, []bool{!tc.active, tc.active, !tc.active}, pin.levels, tc.mode.String())
		assert.Equal(t, []time.Duration{286 * time.Microsecond, time.Millisecond + 286*time.Microsecond}, slept)

		require.NoError(t, c.Close())
		assert.True(t, pin.closed)
	}
}

func TestNativeRS485WithoutPin(t *testing.T) {
	c, err := Activate(BeforeSend, 19200, nil, nil)
	require.NoError(t, err)
	assert.False(t, c.Profile().HasPin)

	line := &fakeLine{}
	require.NoError(t, c.Attach(line))
	assert.Equal(t, BeforeSend, line.rs485)
	assert.Nil(t, line.before)

	assert.NoError(t, c.BeforeSend())
	assert.NoError(t, c.AfterSend(time.Second))
	assert.NoError(t, c.Close())
}

func TestModeNoneIsInert(t *testing.T) {
	n := 3
	c, err := Activate(None, 9600, &n, nil)
	require.NoError(t, err)

	line := &fakeLine{}
	require.NoError(t, c.Attach(line))
	assert.Equal(t, None, line.rs485)
	assert.Nil(t, line.before)
}

func TestActivatePinFailure(t *testing.T) {
	n := 4
	_, err := Activate(AfterSend, 9600, &n, func(int) (Pin, error) {
		return nil, errors.New("no such line")
	})
	assert.Error(t, err)

	pin := &fakePin{err: errors.New("busy")}
	_, err = Activate(AfterSend, 9600, &n, opener(pin))
	assert.Error(t, err)
	assert.True(t, pin.closed)
}
