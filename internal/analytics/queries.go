// Package analytics answers read-only aggregate queries over the history
// store for the text report printed by `zigstory stats`.
package analytics

import (
	"context"
	"database/sql"
)

// DefaultTopCommandLimit and DefaultTopDirectoryLimit bound the top-N
// sections of the report to 10 rows.
const (
	DefaultTopCommandLimit   = 10
	DefaultTopDirectoryLimit = 10
)

// TotalRows returns the number of HistoryRecords ever written.
func TotalRows(ctx context.Context, db *sql.DB) (int64, error) {
	var n int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&n)
	return n, err
}

// DistinctCommands returns the number of distinct command texts observed.
func DistinctCommands(ctx context.Context, db *sql.DB) (int64, error) {
	var n int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM command_stat`).Scan(&n)
	return n, err
}

// SuccessRate returns the fraction of rows with exit_code = 0, in [0, 1].
// An empty history reports a rate of 0 rather than dividing by zero.
func SuccessRate(ctx context.Context, db *sql.DB) (float64, error) {
	var total, ok int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*), SUM(CASE WHEN exit_code = 0 THEN 1 ELSE 0 END) FROM history`).
		Scan(&total, &ok)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	return float64(ok) / float64(total), nil
}

// TopCommand is one row of the top-commands section.
type TopCommand struct {
	Command   string
	Frequency int64
	LastUsed  int64
}

// TopCommands returns the limit most frequently used commands, most uses
// first, ties broken by the most recent use.
func TopCommands(ctx context.Context, db *sql.DB, limit int) ([]TopCommand, error) {
	if limit <= 0 {
		limit = DefaultTopCommandLimit
	}
	rows, err := db.QueryContext(ctx, `
		SELECT command, frequency, last_used
		FROM command_stat
		ORDER BY frequency DESC, last_used DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopCommand
	for rows.Next() {
		var c TopCommand
		if err := rows.Scan(&c.Command, &c.Frequency, &c.LastUsed); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// HourlyHistogram returns 24 buckets, indexed by local hour-of-day 0-23,
// counting how many commands were run in each hour across the whole
// history.
func HourlyHistogram(ctx context.Context, db *sql.DB) ([24]int64, error) {
	var buckets [24]int64
	rows, err := db.QueryContext(ctx, `
		SELECT CAST(strftime('%H', event_time, 'unixepoch', 'localtime') AS INTEGER), COUNT(*)
		FROM history
		GROUP BY 1
	`)
	if err != nil {
		return buckets, err
	}
	defer rows.Close()

	for rows.Next() {
		var hour int
		var count int64
		if err := rows.Scan(&hour, &count); err != nil {
			return buckets, err
		}
		if hour >= 0 && hour < 24 {
			buckets[hour] = count
		}
	}
	return buckets, rows.Err()
}

// TopDirectory is one row of the top-directories section.
type TopDirectory struct {
	Directory string
	Count     int64
}

// TopDirectories returns the limit directories with the most commands run
// in them, most-used first.
func TopDirectories(ctx context.Context, db *sql.DB, limit int) ([]TopDirectory, error) {
	if limit <= 0 {
		limit = DefaultTopDirectoryLimit
	}
	rows, err := db.QueryContext(ctx, `
		SELECT cwd, COUNT(*) AS n
		FROM history
		GROUP BY cwd
		ORDER BY n DESC, cwd ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopDirectory
	for rows.Next() {
		var d TopDirectory
		if err := rows.Scan(&d.Directory, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
