package reporters

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/testharbor/testharbor/types"
)

// ConsoleReporter is the default reporter: quiet during the run, one summary
// table when the run finishes.
type ConsoleReporter struct {
	out     io.Writer
	noColor bool
	log     *slog.Logger
}

// ConsoleConfig configures a ConsoleReporter.
type ConsoleConfig struct {
	Out     io.Writer
	NoColor bool
	Log     *slog.Logger
}

// NewConsoleReporter creates the default console reporter.
func NewConsoleReporter(cfg ConsoleConfig) *ConsoleReporter {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &ConsoleReporter{out: cfg.Out, noColor: cfg.NoColor, log: cfg.Log}
}

func (c *ConsoleReporter) DiscoveryStarting(suite types.SuiteInfo, opts types.SuiteOptions) {
	c.log.Debug("discovering", "suite", suite.Key)
}

func (c *ConsoleReporter) DiscoveryFinished(suite types.SuiteInfo, opts types.SuiteOptions, discovered, matched int) {
	c.log.Info("discovered", "suite", suite.Key, "found", discovered, "matched", matched)
}

// RunFinished renders the per-suite summary table. Entries arrive sorted by
// suite key; rendering preserves that order.
func (c *ConsoleReporter) RunFinished(elapsed time.Duration, entries []types.SummaryEntry) {
	t := table.NewWriter()
	t.SetOutputMirror(c.out)
	t.SetTitle(fmt.Sprintf("Test Run Results (%s)", formatDuration(elapsed)))

	t.AppendHeader(table.Row{"Suite", "Duration", "Tests", "Passed", "Failed", "Skipped", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Suite", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
	})

	var total types.ExecutionSummary
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.Key,
			formatDuration(e.Summary.Duration),
			e.Summary.Total,
			e.Summary.Passed(),
			e.Summary.Failed,
			e.Summary.Skipped,
			statusString(e.Summary.Status()),
		})
		total.Total += e.Summary.Total
		total.Failed += e.Summary.Failed
		total.Skipped += e.Summary.Skipped
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		formatDuration(elapsed),
		total.Total,
		total.Passed(),
		total.Failed,
		total.Skipped,
		statusString(total.Status()),
	})

	if !c.noColor {
		if total.Failed > 0 {
			t.SetStyle(table.StyleColoredBlackOnRedWhite)
		} else if total.Total > 0 && total.Skipped == total.Total {
			t.SetStyle(table.StyleColoredBlackOnYellowWhite)
		} else {
			t.SetStyle(table.StyleColoredBlackOnGreenWhite)
		}
	}

	t.Render()
}

func statusString(status types.TestStatus) string {
	switch status {
	case types.TestStatusPass:
		return "✓ pass"
	case types.TestStatusSkip:
		return "- skip"
	default:
		return "✗ fail"
	}
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
