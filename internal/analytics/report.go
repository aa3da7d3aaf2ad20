package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/zigstory/zigstory/internal/timefmt"
)

// histogramBarWidth is the widest an hourly bar is allowed to be; every
// other bar is scaled relative to the busiest hour, proportional to its
// share of the max.
const histogramBarWidth = 40

// Report is the full set of figures rendered by `zigstory stats`.
type Report struct {
	TotalRows        int64
	DistinctCommands int64
	SuccessRate      float64
	TopCommands      []TopCommand
	HourlyHistogram  [24]int64
	TopDirectories   []TopDirectory
}

// Generate runs every analytics query against db and assembles a Report.
func Generate(ctx context.Context, db *sql.DB) (*Report, error) {
	total, err := TotalRows(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("analytics: total rows: %w", err)
	}
	distinct, err := DistinctCommands(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("analytics: distinct commands: %w", err)
	}
	rate, err := SuccessRate(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("analytics: success rate: %w", err)
	}
	top, err := TopCommands(ctx, db, DefaultTopCommandLimit)
	if err != nil {
		return nil, fmt.Errorf("analytics: top commands: %w", err)
	}
	hist, err := HourlyHistogram(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("analytics: hourly histogram: %w", err)
	}
	dirs, err := TopDirectories(ctx, db, DefaultTopDirectoryLimit)
	if err != nil {
		return nil, fmt.Errorf("analytics: top directories: %w", err)
	}

	return &Report{
		TotalRows:        total,
		DistinctCommands: distinct,
		SuccessRate:      rate,
		TopCommands:      top,
		HourlyHistogram:  hist,
		TopDirectories:   dirs,
	}, nil
}

// Render writes the plain-text report: overview, top commands, hourly
// distribution, top directories.
func (r *Report) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "zigstory history report\n")
	fmt.Fprintf(&b, "=======================\n\n")

	if r.TotalRows == 0 {
		fmt.Fprintf(&b, "No data.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Overview\n")
	fmt.Fprintf(&b, "  total commands:    %d\n", r.TotalRows)
	fmt.Fprintf(&b, "  distinct commands: %d\n", r.DistinctCommands)
	fmt.Fprintf(&b, "  success rate:      %.1f%%\n\n", r.SuccessRate*100)

	fmt.Fprintf(&b, "Top commands\n")
	now := time.Now().Unix()
	for i, c := range r.TopCommands {
		fmt.Fprintf(&b, "  %2d. %-40s  %5d uses  last used %s ago\n",
			i+1, c.Command, c.Frequency, timefmt.Relative(c.LastUsed, now))
	}
	if len(r.TopCommands) == 0 {
		fmt.Fprintf(&b, "  (none)\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Hourly distribution\n")
	var max int64
	for _, n := range r.HourlyHistogram {
		if n > max {
			max = n
		}
	}
	for hour, n := range r.HourlyHistogram {
		barLen := 0
		if max > 0 {
			barLen = int(float64(n) / float64(max) * histogramBarWidth)
		}
		fmt.Fprintf(&b, "  %02d:00 %s %d\n", hour, strings.Repeat("#", barLen), n)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Top directories\n")
	for i, d := range r.TopDirectories {
		fmt.Fprintf(&b, "  %2d. %-40s  %d commands\n", i+1, d.Directory, d.Count)
	}
	if len(r.TopDirectories) == 0 {
		fmt.Fprintf(&b, "  (none)\n")
	}

	return b.String()
}
