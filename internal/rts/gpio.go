package rts

import (
	"github.com/warthog618/go-gpiocdev"
)

// DefaultChip is the GPIO character device used when none is configured.
const DefaultChip = "gpiochip0"

type cdevPin struct {
	chip   string
	offset int
	line   *gpiocdev.Line
}

// ChipOpener returns a PinOpener for lines of a GPIO character device.
func ChipOpener(chip string) PinOpener {
	if chip == "" {
		chip = DefaultChip
	}
	return func(n int) (Pin, error) {
		return &cdevPin{chip: chip, offset: n}, nil
	}
}

func (p *cdevPin) SetOutput() error {
	if p.line != nil {
		return nil
	}
	l, err := gpiocdev.RequestLine(p.chip, p.offset,
		gpiocdev.AsOutput(0),
		gpiocdev.WithConsumer("mbpoll"),
	)
	if err != nil {
		return err
	}
	p.line = l
	return nil
}

func (p *cdevPin) Write(high bool) error {
	v := 0
	if high {
		v = 1
	}
	return p.line.SetValue(v)
}

func (p *cdevPin) Close() error {
	if p.line == nil {
		return nil
	}
	err := p.line.Close()
	p.line = nil
	return err
}
