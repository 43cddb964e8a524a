// internal/poller/options.go
package poller

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/mbpoll/internal/rts"
	"github.com/tamzrod/mbpoll/internal/status"
	"github.com/tamzrod/mbpoll/internal/transport"
)

// settleDelay keeps a slave from taking the line glitch of a freshly opened
// port as a start bit.
const settleDelay = 20 * time.Millisecond

// Conn is a Client that still has to be connected.
type Conn interface {
	Client
	Connect() error
}

// Dialer creates the transport for a session.
type Dialer func(cfg transport.Config) (Conn, error)

type Option func(*options)

type options struct {
	log     zerolog.Logger
	input   io.Reader
	trace   bool
	dial    Dialer
	openPin rts.PinOpener
	settle  time.Duration
}

func newOptions(opts []Option) options {
	o := options{
		log:    zerolog.Nop(),
		settle: settleDelay,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func WithLogger(l zerolog.Logger) Option { return func(o *options) { o.log = l } }

// WithInput sets the reader stream writes take their data from.
func WithInput(r io.Reader) Option { return func(o *options) { o.input = r } }

// WithTrace dumps every frame at debug level.
func WithTrace(on bool) Option { return func(o *options) { o.trace = on } }

func WithDialer(d Dialer) Option { return func(o *options) { o.dial = d } }

func WithPinOpener(open rts.PinOpener) Option { return func(o *options) { o.openPin = open } }

// WithSettle overrides the pause after connecting.
func WithSettle(d time.Duration) Option { return func(o *options) { o.settle = d } }

func dialTransport(cfg transport.Config) (Conn, error) {
	c, err := transport.New(cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

var writeMetrics = status.WriteTextfile
