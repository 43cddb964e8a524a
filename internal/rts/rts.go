// Package rts times the RS-485 driver-enable line around each transmitted frame.
package rts

import (
	"errors"
	"fmt"
	"time"
)

// Mode selects which RTS level enables the line driver.
type Mode int

const (
	// None leaves RTS alone (full duplex or auto-direction adapter).
	None Mode = iota
	// AfterSend: RTS low while sending, high after.
	AfterSend
	// BeforeSend: RTS high while sending, low after.
	BeforeSend
)

func (m Mode) String() string {
	switch m {
	case AfterSend:
		return "rts after send"
	case BeforeSend:
		return "rts before send"
	}
	return "none"
}

// charBits models one character with start, parity and stop overhead.
const charBits = 11

// ToggleDelay is half a character time at baud, truncated to the microsecond.
func ToggleDelay(baud int) time.Duration {
	if baud <= 0 {
		return 0
	}
	us := float64(charBits) / float64(baud) / 2 * 1e6
	return time.Duration(int64(us)) * time.Microsecond
}

// Profile is fixed once the controller is activated.
type Profile struct {
	Mode        Mode
	Pin         int
	HasPin      bool
	ToggleDelay time.Duration
}

// Pin is a GPIO output line.
type Pin interface {
	SetOutput() error
	Write(high bool) error
	Close() error
}

// PinOpener opens GPIO line number n.
type PinOpener func(n int) (Pin, error)

// HalfDuplexer is the transport capability the controller drives.
type HalfDuplexer interface {
	// EnableRS485 lets the serial driver toggle RTS itself.
	EnableRS485(m Mode) error
	// SetTransmitHooks installs callbacks run right before a frame is written
	// and right after it was handed to the driver. frame is the time the
	// frame needs on the line.
	SetTransmitHooks(before func() error, after func(frame time.Duration) error) error
}

// Controller owns the RTS strategy of one session.
type Controller struct {
	profile Profile
	pin     Pin
	sleep   func(time.Duration)
}

// Activate builds the controller for mode at baud. With a pin number the
// controller drives that GPIO line itself; without one it defers to the
// transport's native RS-485 support.
func Activate(mode Mode, baud int, pin *int, open PinOpener) (*Controller, error) {
	c := &Controller{
		profile: Profile{Mode: mode},
		sleep:   time.Sleep,
	}
	if mode == None || pin == nil {
		return c, nil
	}
	if open == nil {
		return nil, errors.New("rts: no gpio opener")
	}

	p, err := open(*pin)
	if err != nil {
		return nil, fmt.Errorf("rts: unable to open gpio %d: %w", *pin, err)
	}
	if err := p.SetOutput(); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("rts: unable to set gpio %d as output: %w", *pin, err)
	}

	c.pin = p
	c.profile.Pin = *pin
	c.profile.HasPin = true
	c.profile.ToggleDelay = ToggleDelay(baud)

	if err := c.release(); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("rts: unable to set gpio %d: %w", *pin, err)
	}
	return c, nil
}

func (c *Controller) Profile() Profile { return c.profile }

// Attach installs the strategy on the transport.
func (c *Controller) Attach(t HalfDuplexer) error {
	switch {
	case c.profile.Mode == None:
		return nil
	case c.pin != nil:
		return t.SetTransmitHooks(c.BeforeSend, c.AfterSend)
	default:
		return t.EnableRS485(c.profile.Mode)
	}
}

// BeforeSend asserts the driver-enable level and lets it settle.
func (c *Controller) BeforeSend() error {
	if c.pin == nil {
		return nil
	}
	if err := c.pin.Write(c.activeHigh()); err != nil {
		return fmt.Errorf("rts: %w", err)
	}
	c.sleep(c.profile.ToggleDelay)
	return nil
}

// AfterSend waits for the frame to leave the line, then releases the driver.
func (c *Controller) AfterSend(frame time.Duration) error {
	if c.pin == nil {
		return nil
	}
	c.sleep(frame + c.profile.ToggleDelay)
	return c.release()
}

// Close releases the driver and the GPIO line.
func (c *Controller) Close() error {
	if c == nil || c.pin == nil {
		return nil
	}
	err := c.release()
	if cerr := c.pin.Close(); err == nil {
		err = cerr
	}
	c.pin = nil
	return err
}

func (c *Controller) activeHigh() bool { return c.profile.Mode == BeforeSend }

func (c *Controller) release() error {
	return c.pin.Write(!c.activeHigh())
}
