// Package sink renders session output: the configuration summary, decoded
// values, raw stream bytes and the statistics report. Request failures go
// to the diagnostic log.
package sink

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/tamzrod/mbpoll/internal/poller"
	"github.com/tamzrod/mbpoll/internal/status"
)

// Level is how much program output is printed.
type Level int

const (
	// Silent prints nothing but raw stream data.
	Silent Level = iota
	// Minimal prints values, slave headers and statistics.
	Minimal
	// Normal adds the banner and the configuration summary.
	Normal
	// Verbose is Normal plus frame dumps on the log.
	Verbose
)

// Options configure a Console.
type Options struct {
	Out   io.Writer
	Level Level

	// Stream receives the raw element buffer of each successful read.
	Stream io.Writer
	// Polling marks a repeating session: slave headers mention Ctrl-C and
	// statistics are printed on exit.
	Polling bool

	Log zerolog.Logger
}

// Console is the terminal sink.
type Console struct {
	out     io.Writer
	level   Level
	stream  io.Writer
	polling bool
	log     zerolog.Logger

	err error
}

func New(o Options) *Console {
	out := o.Out
	if out == nil {
		out = io.Discard
	}
	return &Console{
		out:     out,
		level:   o.Level,
		stream:  o.Stream,
		polling: o.Polling,
		log:     o.Log,
	}
}

// Err is the first error met while writing output.
func (c *Console) Err() error { return c.err }

func (c *Console) printf(min Level, format string, args ...any) {
	if c.level < min || c.err != nil {
		return
	}
	if _, err := fmt.Fprintf(c.out, format, args...); err != nil {
		c.err = err
	}
}

// Begin announces the requests sent to slave.
func (c *Console) Begin(slave int) {
	if c.polling {
		c.printf(Minimal, "-- Polling slave %d... Ctrl-C to stop)\n", slave)
		return
	}
	c.printf(Minimal, "-- Polling slave %d...\n", slave)
}

// Emit prints one request outcome.
func (c *Console) Emit(r poller.Result) {
	if r.Err != nil {
		c.log.Error().Int("slave", r.Slave).Int("reference", r.Reference).Msg(sentence(r.Err.Error()))
		return
	}

	switch {
	case r.Kind == poller.ReportServerID:
		c.serverID(r.ServerID)

	case r.Kind.IsWrite():
		c.printf(Minimal, "Written %d references.\n", r.Count)

	default:
		if c.stream != nil && c.err == nil {
			if _, err := c.stream.Write(r.Raw); err != nil {
				c.err = err
			}
		}
		addr := r.Reference
		for _, v := range r.Values {
			c.printf(Minimal, "[%d]: \t%s\n", addr, v)
			addr += v.Format.Words()
		}
	}
}

// Report prints the statistics of a polling session.
func (c *Console) Report(s status.Snapshot) {
	if !c.polling {
		return
	}
	c.printf(Minimal, "%s", status.Encode(s))
}

func (c *Console) serverID(payload []byte) {
	id, err := poller.ParseServerID(payload)
	if err != nil {
		c.log.Error().Msg("No data available")
		return
	}
	state := "Off"
	if id.Running {
		state = "On"
	}
	c.printf(Minimal, "Length: %d\nId    : 0x%02X\nStatus: %s\n", len(payload), id.ID, state)
	if len(id.Data) > 0 {
		var b strings.Builder
		for _, ch := range id.Data {
			if ch < 0x80 && unicode.IsPrint(rune(ch)) {
				b.WriteByte(ch)
			} else {
				fmt.Fprintf(&b, "\\%02X", ch)
			}
		}
		c.printf(Minimal, "Data  : %s\n", b.String())
	}
}

// sentence capitalizes the first letter of a diagnostic.
func sentence(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// Goodbye closes an interrupted session.
func (c *Console) Goodbye() {
	c.printf(Minimal, "\neverything was closed.\nHave a nice day !\n")
}
