package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tamzrod/mbpoll/internal/config"
	"github.com/tamzrod/mbpoll/internal/fault"
	"github.com/tamzrod/mbpoll/internal/serialcfg"
)

// flags mirrors the command line. Only flags the user changed override the
// profile loaded with --config.
type flags struct {
	profile string

	mode      string
	slaves    string
	refs      string
	count     int
	table     string
	oneShot   bool
	pollRate  int
	timeout   float64
	port      string
	baud      int
	dataBits  int
	stopBits  int
	parity    string
	rtsDown   string
	rtsUp     string
	gpioChip  string
	zeroBased bool
	writeMany bool
	bigEndian bool
	stream    bool
	output    string
	reportID  bool
	metrics   string

	quiet   int
	verbose bool
}

// optional pin marker for -R/-F given without a number
const noPin = "-"

func (f *flags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	d := config.Default()

	fs.StringVar(&f.profile, "config", "", "YAML session profile; command line flags override it")

	fs.StringVarP(&f.mode, "mode", "m", "", "mode (rtu or tcp, tcp is default unless the device looks like a serial port)")
	fs.StringVarP(&f.slaves, "slaves", "a", "", "slave address list, e.g. 1,3:5 (1..255 rtu, 0..255 tcp, 1 is default)")
	fs.StringVarP(&f.refs, "references", "r", "", "start reference list, e.g. 100,200 (1 is default)")
	fs.IntVarP(&f.count, "count", "c", 0, "number of values to read (1..125, 1 is default)")
	fs.StringVarP(&f.table, "type", "t", "4", "table[:format] 0 coil, 1 discrete input, 3 input register, 4 holding register; format int16, hex, string, int or float")
	fs.BoolVarP(&f.oneShot, "once", "1", false, "poll only once, otherwise every poll rate interval")
	fs.IntVarP(&f.pollRate, "poll-rate", "l", d.PollRateMs, "poll rate in ms")
	fs.Float64VarP(&f.timeout, "timeout", "o", d.TimeoutS, "time-out in seconds (0.01..10.00)")

	fs.StringVarP(&f.port, "port", "p", d.Port, "TCP port")

	fs.IntVarP(&f.baud, "baud", "b", d.Serial.Baud, "baudrate (1200..921600)")
	fs.IntVarP(&f.dataBits, "databits", "d", d.Serial.DataBits, "databits (7 or 8)")
	fs.IntVarP(&f.stopBits, "stopbits", "s", d.Serial.StopBits, "stopbits (1 or 2)")
	fs.StringVarP(&f.parity, "parity", "P", d.Serial.Parity.Name(), "parity (none, even, odd)")
	fs.StringVarP(&f.rtsDown, "rts-down", "R", "", "RS-485 mode, RTS off while sending and on after; optional attached GPIO pin, e.g. -R17 or --rts-down=17")
	fs.StringVarP(&f.rtsUp, "rts-up", "F", "", "RS-485 mode, RTS on while sending and off after; optional attached GPIO pin, e.g. -F17 or --rts-up=17")
	fs.Lookup("rts-down").NoOptDefVal = noPin
	fs.Lookup("rts-up").NoOptDefVal = noPin
	fs.StringVar(&f.gpioChip, "gpio-chip", d.RTS.Chip, "GPIO character device driving the RTS pin")

	fs.BoolVarP(&f.zeroBased, "zero-based", "0", false, "first reference is 0 (PDU addressing) instead of 1")
	fs.BoolVarP(&f.writeMany, "write-multiple", "W", false, "use function 16 even for a single register write")
	fs.BoolVarP(&f.bigEndian, "big-endian", "B", false, "big endian word order for 32-bit data")
	fs.BoolVarP(&f.stream, "stream", "S", false, "with -c stream raw read data to stdout, otherwise write raw data read from stdin")
	fs.StringVarP(&f.output, "output", "O", "", "write regular output to this file")
	fs.BoolVarP(&f.reportID, "report-slave-id", "u", false, "report slave id (rtu only)")
	fs.StringVar(&f.metrics, "metrics-file", "", "write session statistics to this file in Prometheus text format")

	fs.CountVarP(&f.quiet, "quiet", "q", "quiet mode, repeat to print nothing")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "verbose mode, dumps frames")
}

// attachedPins rewrites -R<pin> and -F<pin> to their long forms: pflag never
// reads an attached value for a shorthand that has NoOptDefVal.
func attachedPins(argv []string) []string {
	out := make([]string, 0, len(argv))
	for i, a := range argv {
		if a == "--" {
			return append(out, argv[i:]...)
		}
		if len(a) > 2 && a[0] == '-' && isDigits(a[2:]) {
			switch a[1] {
			case 'R':
				a = "--rts-down=" + a[2:]
			case 'F':
				a = "--rts-up=" + a[2:]
			}
		}
		out = append(out, a)
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// apply overlays the changed flags and positional arguments on cfg.
func (f *flags) apply(cmd *cobra.Command, args []string, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("mode") {
		cfg.Mode = config.Mode(strings.ToLower(f.mode))
	}
	if changed("slaves") {
		cfg.Slaves = f.slaves
	}
	if changed("references") {
		cfg.References = f.refs
	}
	if changed("count") {
		if f.count == 0 {
			return fault.Config("illegal number of values: 0 (%d..%d)", config.CountMin, config.CountMax)
		}
		cfg.Count = f.count
	}
	if changed("type") {
		table, format, err := parseType(f.table)
		if err != nil {
			return err
		}
		cfg.Table = table
		if format != "" {
			cfg.Format = format
		}
	}
	if changed("once") {
		cfg.OneShot = f.oneShot
	}
	if changed("poll-rate") {
		cfg.PollRateMs = f.pollRate
	}
	if changed("timeout") {
		cfg.TimeoutS = f.timeout
	}
	if changed("port") {
		cfg.Port = f.port
	}
	if changed("baud") {
		cfg.Serial.Baud = f.baud
	}
	if changed("databits") {
		cfg.Serial.DataBits = f.dataBits
	}
	if changed("stopbits") {
		cfg.Serial.StopBits = f.stopBits
	}
	if changed("parity") {
		p, err := serialcfg.ParseParity(f.parity)
		if err != nil {
			return err
		}
		cfg.Serial.Parity = p
	}
	if changed("rts-down") && changed("rts-up") {
		return fault.Syntax("rts-down and rts-up are exclusive")
	}
	if changed("rts-down") {
		if err := setRTS(cfg, "after", f.rtsDown); err != nil {
			return err
		}
	}
	if changed("rts-up") {
		if err := setRTS(cfg, "before", f.rtsUp); err != nil {
			return err
		}
	}
	if changed("gpio-chip") {
		cfg.RTS.Chip = f.gpioChip
	}
	if changed("zero-based") {
		cfg.ZeroBased = f.zeroBased
	}
	if changed("write-multiple") {
		cfg.WriteMultiple = f.writeMany
	}
	if changed("big-endian") {
		cfg.BigEndian = f.bigEndian
	}
	if changed("stream") {
		cfg.Stream = f.stream
	}
	if changed("output") {
		cfg.Output = f.output
	}
	if changed("report-slave-id") {
		cfg.ReportSlaveID = f.reportID
	}
	if changed("metrics-file") {
		cfg.MetricsFile = f.metrics
	}

	if len(args) > 0 {
		cfg.Device = args[0]
	}
	if len(args) > 1 {
		cfg.Values = append([]string(nil), args[1:]...)
	}
	return nil
}

// parseType splits "table[:format]".
func parseType(s string) (config.Table, string, error) {
	tableText, format, _ := strings.Cut(s, ":")
	n, err := strconv.ParseInt(tableText, 0, 32)
	if err != nil {
		return 0, "", fault.Syntax("illegal function: %s", tableText)
	}
	t := config.Table(n)
	if !t.Valid() {
		return 0, "", fault.Config("illegal function: %d", n)
	}
	return t, format, nil
}

func setRTS(cfg *config.Config, mode, pin string) error {
	cfg.RTS.Mode = mode
	if pin == "" || pin == noPin {
		cfg.RTS.Pin = nil
		return nil
	}
	n, err := strconv.Atoi(pin)
	if err != nil {
		return fault.Syntax("illegal rts pin: %s", pin)
	}
	cfg.RTS.Pin = &n
	return nil
}
