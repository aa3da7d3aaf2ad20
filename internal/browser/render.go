package browser

import (
	"github.com/zigstory/zigstory/internal/timefmt"
)

// RenderRow is the render-data contract for one displayed row.
type RenderRow struct {
	Command      string
	Directory    string
	RelativeTime string
	Duration     string
	Failed       bool
	Highlights   []Range
}

// RenderRows turns Store rows into display-ready RenderRows: directory
// truncated to dirWidth columns, relative and duration strings computed
// against now, and highlight ranges for every occurrence of filter.
func RenderRows(rows []Row, filter string, now int64, dirWidth int) []RenderRow {
	out := make([]RenderRow, 0, len(rows))
	for _, r := range rows {
		cmd := StripANSI(r.Command)
		out = append(out, RenderRow{
			Command:      cmd,
			Directory:    TruncateDirectory(r.CWD, dirWidth),
			RelativeTime: timefmt.Relative(r.EventTime, now),
			Duration:     timefmt.Duration(r.DurationMs),
			Failed:       r.ExitCode != 0,
			Highlights:   HighlightRanges(cmd, filter),
		})
	}
	return out
}
