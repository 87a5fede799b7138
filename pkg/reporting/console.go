package reporting

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// ConsoleReporter renders a session summary as terminal tables.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a console reporter writing to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout}
}

// NewConsoleReporterTo creates a console reporter writing to w.
func NewConsoleReporterTo(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: w}
}

// Render prints the session summary and the per-reason exit breakdown.
func (r *ConsoleReporter) Render(report *SessionReport) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("SESSION SUMMARY")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"Account", report.Account},
		{"Started", report.StartedAt.Format("2006-01-02 15:04:05")},
		{"Start Equity", fmt.Sprintf("$%.2f", report.StartEquity)},
		{"End Equity", fmt.Sprintf("$%.2f", report.EndEquity)},
		{"Return", fmt.Sprintf("%.2f%%", report.ReturnPct()*100)},
		{"Max Drawdown", fmt.Sprintf("%.2f%%", report.MaxDrawdownPct*100)},
	})

	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Exits", len(report.Exits)},
		{"Stop Updates", len(report.Stops)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 15, WidthMax: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 25, WidthMax: 40, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Fprintln(r.out)

	if len(report.Exits) > 0 {
		r.renderExitBreakdown(report)
	}
}

func (r *ConsoleReporter) renderExitBreakdown(report *SessionReport) {
	byReason := report.ExitsByReason()
	reasons := make([]string, 0, len(byReason))
	for reason := range byReason {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("EXITS BY REASON")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Reason", "Count"})

	for _, reason := range reasons {
		t.AppendRow(table.Row{reason, byReason[reason]})
	}

	t.Render()
	fmt.Fprintln(r.out)
}
