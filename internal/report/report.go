// Package report renders a season run summary as a text table.
package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/rewired-gh/racepace/internal/pipeline"
)

// Render writes one row per scheduled event, in schedule order, followed by totals.
func Render(w io.Writer, summary pipeline.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.SetTitle(fmt.Sprintf("Season %d", summary.Season))

	t.AppendHeader(table.Row{"Round", "Event", "Status", "Laps", "Detail"})
	for _, o := range summary.Outcomes {
		round := "-"
		if r, ok := o.Event.RoundNumber(); ok {
			round = fmt.Sprintf("%d", r)
		}

		laps, detail := "", ""
		switch o.Status {
		case pipeline.StatusProcessed:
			laps = fmt.Sprintf("%d", len(o.Record.Laps))
		case pipeline.StatusSkipped:
			detail = o.SkipReason
		case pipeline.StatusFailed:
			detail = fmt.Sprintf("%s: %v", o.Err.Stage, o.Err.Err)
		}

		t.AppendRow(table.Row{round, o.Event.Name, o.Status.String(), laps, detail})
	}

	t.AppendFooter(table.Row{"", "Total", fmt.Sprintf("%d/%d processed",
		summary.Count(pipeline.StatusProcessed), len(summary.Outcomes)), "", summary.OutputPath})
	t.Render()
}
