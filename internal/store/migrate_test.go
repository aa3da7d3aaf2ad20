package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// openLegacyDB creates a pre-migration schema: a history table with no
// command_hash/rank columns, as if written by an older version of zigstory.
func openLegacyDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "legacy.db")
	db, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			command TEXT NOT NULL,
			cwd TEXT NOT NULL,
			exit_code INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			session_id TEXT NOT NULL,
			hostname TEXT NOT NULL,
			event_time INTEGER NOT NULL
		)
	`)
	require.NoError(t, err)
	return db
}

func TestMigrateAddsAndBackfillsColumns(t *testing.T) {
	db := openLegacyDB(t)
	ctx := t.Context()

	_, err := db.Exec(`INSERT INTO history (command, cwd, exit_code, duration_ms, session_id, hostname, event_time)
		VALUES ('git status', '/p', 0, 10, 's1', 'h1', 1000)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO history (command, cwd, exit_code, duration_ms, session_id, hostname, event_time)
		VALUES ('git status', '/p', 0, 10, 's1', 'h1', 2000)`)
	require.NoError(t, err)

	require.NoError(t, Migrate(ctx, db, nil))

	cols, err := tableColumns(ctx, db, "history")
	require.NoError(t, err)
	require.True(t, cols["command_hash"])
	require.True(t, cols["rank"])

	rows, err := db.Query(`SELECT command_hash, rank FROM history ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()
	var hashes []string
	for rows.Next() {
		var hash string
		var r float64
		require.NoError(t, rows.Scan(&hash, &r))
		require.NotEmpty(t, hash)
		require.Greater(t, r, 0.0)
		hashes = append(hashes, hash)
	}
	require.Len(t, hashes, 2)
	require.Equal(t, hashes[0], hashes[1])

	var freq int64
	require.NoError(t, db.QueryRow(`SELECT frequency FROM command_stat WHERE command_hash = ?`, hashes[0]).Scan(&freq))
	require.Equal(t, int64(2), freq)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openLegacyDB(t)
	ctx := t.Context()

	_, err := db.Exec(`INSERT INTO history (command, cwd, exit_code, duration_ms, session_id, hostname, event_time)
		VALUES ('ls', '/p', 0, 5, 's1', 'h1', 1000)`)
	require.NoError(t, err)

	require.NoError(t, Migrate(ctx, db, nil))
	var rankFirst float64
	require.NoError(t, db.QueryRow(`SELECT rank FROM history WHERE command = 'ls'`).Scan(&rankFirst))

	require.NoError(t, Migrate(ctx, db, nil))
	var rankSecond float64
	require.NoError(t, db.QueryRow(`SELECT rank FROM history WHERE command = 'ls'`).Scan(&rankSecond))

	require.Equal(t, rankFirst, rankSecond)
}

func TestRecalculateRanksIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()
	now := int64(100000)

	_, err := s.DB().ExecContext(ctx, `INSERT INTO command_stat (command_hash, command, frequency, last_used) VALUES ('h1', 'git status', 5, ?)`, now-86400)
	require.NoError(t, err)
	_, err = s.DB().ExecContext(ctx, `INSERT INTO history (command, cwd, event_time, command_hash, rank, session_id, hostname)
		VALUES ('git status', '/p', ?, 'h1', 0, 's', 'h')`, now)
	require.NoError(t, err)

	require.NoError(t, RecalculateRanks(ctx, s.DB()))
	var r1 float64
	require.NoError(t, s.DB().QueryRow(`SELECT rank FROM history WHERE command_hash = 'h1'`).Scan(&r1))
	require.Greater(t, r1, 0.0)

	require.NoError(t, RecalculateRanks(ctx, s.DB()))
	var r2 float64
	require.NoError(t, s.DB().QueryRow(`SELECT rank FROM history WHERE command_hash = 'h1'`).Scan(&r2))
	require.InDelta(t, r1, r2, 0.5) // same day bucket both times
}
