package sink

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tamzrod/mbpoll/internal/codec"
	"github.com/tamzrod/mbpoll/internal/config"
	"github.com/tamzrod/mbpoll/internal/rangelist"
	"github.com/tamzrod/mbpoll/internal/transport"
)

// Hello prints the program banner.
func (c *Console) Hello(version string) {
	c.printf(Normal, "mbpoll %s - Modbus(R) Master Simulator\n", version)
	c.printf(Normal, "This program comes with ABSOLUTELY NO WARRANTY.\n\n")
}

// Summary prints the session configuration. cfg must be normalized.
func (c *Console) Summary(cfg *config.Config) {
	if c.level < Normal || c.err != nil {
		return
	}
	r := cfg.Resolved

	t := table.NewWriter()
	t.SetOutputMirror(c.out)
	t.Style().Options = table.OptionsNoBordersAndSeparators
	t.Style().Box.PaddingLeft = ""

	t.AppendRow(table.Row{"Protocol configuration:", "Modbus " + r.Mode.String()})

	switch {
	case cfg.ReportSlaveID:
		t.AppendRow(table.Row{"Slave configuration...:", fmt.Sprintf("address = %d, report slave id", r.Slaves[0])})
	case len(r.References) > 1:
		t.AppendRow(table.Row{"Slave configuration...:", "address = " + intList(r.Slaves)})
		t.AppendRow(table.Row{"", "start reference = " + intList(r.References)})
	default:
		t.AppendRow(table.Row{"Slave configuration...:", "address = " + intList(r.Slaves)})
		t.AppendRow(table.Row{"", fmt.Sprintf("start reference = %d, count = %d", r.References[0], r.Count)})
	}

	if r.Mode == transport.RTU {
		t.AppendRow(table.Row{"Communication.........:", fmt.Sprintf("%s, %s", cfg.Device, r.Line)})
		t.AppendRow(table.Row{"", fmt.Sprintf("t/o %.2f s, poll rate %d ms", cfg.TimeoutS, cfg.PollRateMs)})
	} else {
		t.AppendRow(table.Row{"Communication.........:", fmt.Sprintf("%s, port %s, t/o %.2f s, poll rate %d ms",
			cfg.Device, cfg.Port, cfg.TimeoutS, cfg.PollRateMs)})
	}

	if !cfg.ReportSlaveID {
		t.AppendRow(table.Row{"Data type.............:", dataType(cfg)})
	}

	t.Render()
	c.printf(Normal, "\n")
}

func dataType(cfg *config.Config) string {
	if cfg.Table.IsBit() {
		return cfg.Table.String()
	}
	r := cfg.Resolved
	var kind string
	switch r.Format {
	case codec.Int32:
		kind = "32-bit integer, " + r.Order.String()
	case codec.Float32:
		kind = "32-bit float, " + r.Order.String()
	default:
		kind = "16-bit register"
	}
	return fmt.Sprintf("%s, %s table", kind, cfg.Table)
}

// intList renders [1,2,3].
func intList(list []int) string {
	return "[" + rangelist.Format(list) + "]"
}
