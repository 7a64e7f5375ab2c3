// Package report renders end-of-run summaries for terminals.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"moviemerge/internal/logging"
	"moviemerge/internal/pipeline"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Stage status labels.
const (
	StatusOK          = "ok"
	StatusTruncated   = "truncated"
	StatusUnavailable = "unavailable"
)

// StageStatus describes how a stage ended.
func StageStatus(s pipeline.Stage) string {
	switch {
	case s.Err != nil:
		return StatusUnavailable
	case s.Truncated != nil:
		return StatusTruncated + " @" + strconv.Itoa(s.Truncated.Line)
	default:
		return StatusOK
	}
}

// Merge renders one row per stage and a footer with the output totals.
func Merge(res *pipeline.Result) string {
	tw := newTable()
	tw.AppendHeader(table.Row{"Source", "Rows", "Kept", "Filtered", "Skipped", "Status", "Took"})
	for _, name := range pipeline.StageOrder {
		s, ok := res.Stages[name]
		if !ok {
			continue
		}
		tw.AppendRow(table.Row{
			name,
			logging.Count(s.Rows),
			logging.Count(s.Retained),
			logging.Count(s.Filtered),
			logging.Count(s.Skipped),
			StageStatus(s),
			s.Duration.Round(time.Millisecond).String(),
		})
	}
	tw.AppendFooter(table.Row{
		"output",
		logging.Count(res.Records),
		logging.Bytes(res.Bytes),
		"",
		"",
		"xxh3 " + res.Digest,
		res.Duration.Round(time.Millisecond).String(),
	})
	tw.SetColumnConfigs(rightAligned(2, 3, 4, 5, 7))
	return tw.Render()
}

// LoadSummary is the outcome of loading a merged file into a store.
type LoadSummary struct {
	Table     string
	Lines     int64
	Inserted  int64
	Malformed int64
	Batches   int64
	Duration  time.Duration
}

// Load renders a LoadSummary as a two-column table.
func Load(s LoadSummary) string {
	tw := newTable()
	tw.AppendHeader(table.Row{"Load", s.Table})
	tw.AppendRows([]table.Row{
		{"lines", logging.Count(s.Lines)},
		{"inserted", logging.Count(s.Inserted)},
		{"malformed", logging.Count(s.Malformed)},
		{"batches", logging.Count(s.Batches)},
		{"took", s.Duration.Round(time.Millisecond).String()},
	})
	tw.SetColumnConfigs(rightAligned(2))
	return tw.Render()
}

// Fprint writes a rendered table followed by a newline.
func Fprint(w io.Writer, rendered string) error {
	_, err := fmt.Fprintln(w, rendered)
	return err
}

func newTable() table.Writer {
	style := table.StyleRounded
	style.Format.Footer = text.FormatDefault
	tw := table.NewWriter()
	tw.SetStyle(style)
	return tw
}

func rightAligned(cols ...int) []table.ColumnConfig {
	out := make([]table.ColumnConfig, 0, len(cols))
	for _, c := range cols {
		out = append(out, table.ColumnConfig{Number: c, Align: text.AlignRight, AlignHeader: text.AlignLeft, AlignFooter: text.AlignRight})
	}
	return out
}
