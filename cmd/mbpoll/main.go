// cmd/mbpoll/main.go
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tamzrod/mbpoll/internal/config"
	"github.com/tamzrod/mbpoll/internal/fault"
	"github.com/tamzrod/mbpoll/internal/poller"
	"github.com/tamzrod/mbpoll/internal/sink"
)

var version = "dev"

// errRequestsFailed ends a session in which at least one request failed.
// Each failure was already logged, so it is not printed again.
var errRequestsFailed = fault.Request(nil, "requests failed")

func main() {
	if err := execute(os.Args[1:]); err != nil {
		if fault.Fatal(err) {
			fmt.Fprintln(os.Stderr, diagnostic(err))
		}
		os.Exit(1)
	}
}

func execute(argv []string) error {
	cmd := newRootCmd()
	cmd.SetArgs(attachedPins(argv))
	return cmd.Execute()
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "mbpoll [flags] device|host [writevalues...]",
		Short: "Modbus master simulator",
		Long: "Reads and writes Modbus slave registers over a serial line (RTU) or TCP.\n" +
			"Negative write values go after --, e.g. mbpoll -t4:int plc -- -1568",
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, &f)
		},
	}
	f.register(cmd)
	return cmd
}

// diagnostic formats err the way it is shown on stderr.
func diagnostic(err error) string {
	if fault.NeedsUsage(err) {
		return fmt.Sprintf("mbpoll: %v ! Try -h for help.", err)
	}
	return fmt.Sprintf("mbpoll: %v.", err)
}

func run(cmd *cobra.Command, args []string, f *flags) error {
	if f.verbose && f.quiet > 0 {
		return fault.Syntax("cannot use both verbose and quiet options")
	}
	log := newLogger(f)

	// --------------------
	// Load + validate config
	// --------------------

	cfg := config.Default()
	if f.profile != "" {
		var err error
		if cfg, err = config.Load(f.profile, cfg); err != nil {
			return fault.Config("%v", err)
		}
	}
	if err := f.apply(cmd, args, &cfg); err != nil {
		return err
	}
	if err := config.Validate(&cfg); err != nil {
		return err
	}
	config.Normalize(&cfg)

	if cfg.SmallPollRate() && cfg.Resolved.Polling {
		log.Warn().Int("poll_rate_ms", cfg.PollRateMs).Msg("small poll rate, cannot guarantee it will be stable")
	}

	// --------------------
	// Output
	// --------------------

	out, closeOut, err := openOutput(&cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOut()

	var stream io.Writer
	if cfg.Stream && !cfg.Resolved.Write {
		stream = cmd.OutOrStdout()
		if isTerminal(stream) {
			log.Warn().Msg("streaming binary data to a terminal")
		}
	}

	console := sink.New(sink.Options{
		Out:     out,
		Level:   level(f),
		Stream:  stream,
		Polling: cfg.Resolved.Polling,
		Log:     log,
	})
	console.Hello(version)

	// --------------------
	// Session
	// --------------------

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := poller.Build(&cfg, console,
		poller.WithLogger(log),
		poller.WithInput(cmd.InOrStdin()),
		poller.WithTrace(f.verbose),
	)
	if err != nil {
		return err
	}

	console.Summary(&cfg)

	var st poller.Statistics
	if cfg.ReportSlaveID {
		_, _ = poller.ReportSlaveID(s)
		st = s.Statistics()
	} else {
		st = poller.RunContinuous(ctx, s, nil)
	}

	if ctx.Err() != nil {
		console.Goodbye()
	}
	if err := console.Err(); err != nil {
		return fault.Setup(err, "output failed")
	}
	if st.Errors > 0 {
		return errRequestsFailed
	}
	return nil
}

func newLogger(f *flags) zerolog.Logger {
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	l := zerolog.New(w).With().Timestamp().Logger().Level(zerolog.WarnLevel)
	switch {
	case f.verbose:
		l = l.Level(zerolog.DebugLevel)
	case f.quiet > 1:
		l = l.Level(zerolog.Disabled)
	}
	return l
}

func level(f *flags) sink.Level {
	switch {
	case f.verbose:
		return sink.Verbose
	case f.quiet == 1:
		return sink.Minimal
	case f.quiet > 1:
		return sink.Silent
	}
	return sink.Normal
}

// openOutput picks where values are printed: the -O file, nowhere when
// stdout carries a read stream, stdout otherwise.
func openOutput(cfg *config.Config, stdout io.Writer) (io.Writer, func(), error) {
	if cfg.Output != "" {
		fh, err := os.Create(cfg.Output)
		if err != nil {
			return nil, nil, fault.Syntax("could not open file '%s' in write mode", cfg.Output)
		}
		return fh, func() { _ = fh.Close() }, nil
	}
	if cfg.Stream && !cfg.Resolved.Write {
		return io.Discard, func() {}, nil
	}
	return stdout, func() {}, nil
}

func isTerminal(w io.Writer) bool {
	fh, ok := w.(*os.File)
	return ok && term.IsTerminal(int(fh.Fd()))
}
