package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"credsearch/internal/search/models"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	return t
}

func renderOutcome(w io.Writer, out *models.Outcome) {
	t := newTable(w)
	t.AppendHeader(table.Row{"KEY", "RESULTS", "LOCAL", "EXTERNAL", "CACHED", "COMPLETE", "DURATION"})
	t.AppendRow(table.Row{
		out.Key,
		out.Results.Len(),
		out.LocalCount(),
		out.ExternalCount(),
		out.FromCache,
		out.Complete,
		out.Duration.Round(time.Millisecond).String(),
	})
	t.Render()
}

func renderStats(w io.Writer, stats models.CacheStats, counts *models.StoreCounts) {
	t := newTable(w)
	t.AppendHeader(table.Row{"METRIC", "VALUE"})
	t.AppendRows([]table.Row{
		{"total requests", stats.TotalRequests},
		{"cache hits", stats.Hits},
		{"cache misses", stats.Misses},
		{"hit rate", fmt.Sprintf("%.1f%%", stats.HitRate)},
		{"cached keys", stats.CachedKeys},
	})
	if counts != nil {
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"store records", counts.Records},
			{"store domains", counts.Domains},
		})
	}
	t.Render()
}

func renderPopular(w io.Writer, entries []models.PopularEntry) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "KEY", "HITS"})
	for i, e := range entries {
		t.AppendRow(table.Row{i + 1, e.Key, e.Count})
	}
	t.Render()
}
