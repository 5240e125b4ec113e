package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/use-agent/docharvest/models"
	"github.com/use-agent/docharvest/sites"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// printCatalog lists every section of every site.
func printCatalog(w io.Writer, catalog []sites.Site) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Source", "Section", "Locator", "Container", "Root"})
	for _, site := range catalog {
		for _, sec := range site.Sections {
			t.AppendRow(table.Row{site.Source, sec.Title, sec.Locator.String(), site.Container, site.Root})
		}
		t.AppendSeparator()
	}
	t.Render()
}

// printReport summarizes a run per site, then lists skipped sections.
func printReport(w io.Writer, report *models.Report) {
	t := newTable(w)
	t.SetTitle("Run " + report.RunID)
	t.AppendHeader(table.Row{"Source", "Configured", "Emitted", "Skipped", "Duration", "Error"})
	for _, s := range report.Sites {
		t.AppendRow(table.Row{s.Source, s.Configured, s.Emitted, s.Skipped, fmt.Sprintf("%dms", s.DurationMs), s.Error})
	}
	t.AppendFooter(table.Row{"total", "", report.Emitted(), len(report.Skipped), fmt.Sprintf("%dms", report.DurationMs), ""})
	t.Render()

	if len(report.Skipped) == 0 {
		return
	}
	st := newTable(w)
	st.SetTitle("Skipped sections")
	st.AppendHeader(table.Row{"Source", "Section", "Code", "Reason"})
	for _, s := range report.Skipped {
		st.AppendRow(table.Row{s.Source, s.Title, s.Code, s.Reason})
	}
	st.Render()
}
