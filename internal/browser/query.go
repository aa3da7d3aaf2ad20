// Package browser backs the interactive full-screen history search UI:
// paginated browsing, substring filtering, directory scoping and the
// render-data contract consumed by the terminal front end.
package browser

import (
	"context"
	"database/sql"

	"github.com/zigstory/zigstory/internal/store"
)

// DefaultFilterCap bounds how many rows a filter-mode query returns: enough
// to fill the screen many times over but bounded for latency.
const DefaultFilterCap = 300

// Row is one HistoryRecord as needed for display.
type Row struct {
	Command    string
	CWD        string
	ExitCode   int
	DurationMs int64
	EventTime  int64
}

// BrowsePage returns rows [scrollOffset, scrollOffset+viewportRows) in
// reverse-chronological order (browse mode). If cwd is non-empty the scan
// is restricted to that directory.
func BrowsePage(ctx context.Context, db *sql.DB, viewportRows, scrollOffset int, cwd string) ([]Row, error) {
	query := `SELECT command, cwd, exit_code, duration_ms, event_time FROM history`
	args := []any{}
	if cwd != "" {
		query += ` WHERE cwd = ?`
		args = append(args, cwd)
	}
	query += ` ORDER BY event_time DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, viewportRows, scrollOffset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

// BrowseTotalCount reports how many rows browse mode is paginating over, for
// scrollbar rendering.
func BrowseTotalCount(ctx context.Context, db *sql.DB, cwd string) (int64, error) {
	query := `SELECT COUNT(*) FROM history`
	args := []any{}
	if cwd != "" {
		query += ` WHERE cwd = ?`
		args = append(args, cwd)
	}
	var n int64
	err := db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// FilterPage returns at most cap rows whose command text contains filter as
// a case-insensitive substring, one row per distinct command (the row of
// its most recent occurrence), ordered most-recent first. cap <= 0 uses
// DefaultFilterCap.
func FilterPage(ctx context.Context, db *sql.DB, filter, cwd string, cap int) ([]Row, error) {
	if cap <= 0 {
		cap = DefaultFilterCap
	}
	pattern := "%" + store.EscapeLikePattern(filter) + "%"

	aggWhere := `WHERE command LIKE ? ESCAPE '\' COLLATE NOCASE`
	args := []any{pattern}
	if cwd != "" {
		aggWhere += ` AND cwd = ?`
		args = append(args, cwd)
	}

	// With MAX(), SQLite takes the bare columns from the row holding the
	// maximum, so each command yields exactly one row even when several of
	// its occurrences share the same event_time.
	query := `
		SELECT command, cwd, exit_code, duration_ms, MAX(event_time) AS last_time
		FROM history
		` + aggWhere + `
		GROUP BY command
		ORDER BY last_time DESC, MAX(id) DESC
		LIMIT ?
	`
	args = append(args, cap)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Command, &r.CWD, &r.ExitCode, &r.DurationMs, &r.EventTime); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
