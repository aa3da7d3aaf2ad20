package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/zigstory/zigstory/internal/rank"
)

// backfillBatchSize is rows processed per backfill transaction.
const backfillBatchSize = 1000

// rankRecalcBatchSize is rows per recalculation transaction.
const rankRecalcBatchSize = 100

// Migrate idempotently brings an existing database up to the current
// schema: it adds missing derived columns, backfills them in bounded
// transactions, and creates any index whose backing column now exists.
// Idempotence comes from probing actual schema state (PRAGMA table_info,
// IS NULL predicates), never from a stored version number (see DESIGN.md).
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	// Create whichever table is missing; an existing table is left as it is
	// and only probed below.
	if _, err := db.ExecContext(ctx, schemaCreate); err != nil {
		return fmt.Errorf("create missing tables: %w", err)
	}

	cols, err := tableColumns(ctx, db, "history")
	if err != nil {
		return fmt.Errorf("probe history columns: %w", err)
	}

	if !cols["command_hash"] {
		if _, err := db.ExecContext(ctx, `ALTER TABLE history ADD COLUMN command_hash TEXT`); err != nil {
			return fmt.Errorf("add command_hash column: %w", err)
		}
		cols["command_hash"] = true
	}
	if !cols["rank"] {
		if _, err := db.ExecContext(ctx, `ALTER TABLE history ADD COLUMN rank REAL`); err != nil {
			return fmt.Errorf("add rank column: %w", err)
		}
		cols["rank"] = true
	}

	if err := backfillHashes(ctx, db, logger); err != nil {
		return fmt.Errorf("backfill command hashes: %w", err)
	}
	if err := backfillCommandStats(ctx, db); err != nil {
		return fmt.Errorf("backfill command_stat: %w", err)
	}
	if err := backfillRanks(ctx, db, logger); err != nil {
		return fmt.Errorf("backfill ranks: %w", err)
	}

	for _, idx := range indexDefs {
		if !cols[idx.column] {
			continue // column still missing: nothing to index yet (re-run later).
		}
		if _, err := db.ExecContext(ctx, idx.ddl); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}

	return nil
}

// tableColumns returns the set of column names on table, or an empty set if
// the table doesn't exist.
func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name       string
			ctype      string
			notnull    int
			dflt       sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &primaryKey); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// backfillHashes fills in command_hash for every row where it is still NULL,
// backfillBatchSize rows per transaction.
func backfillHashes(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	for {
		n, err := backfillHashBatch(ctx, db)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		logger.Debug("backfilled command hashes", "rows", n)
	}
}

func backfillHashBatch(ctx context.Context, db *sql.DB) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id, command FROM history WHERE command_hash IS NULL LIMIT ?`, backfillBatchSize)
	if err != nil {
		return 0, err
	}
	type row struct {
		id  int64
		cmd string
	}
	var batch []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.cmd); err != nil {
			rows.Close()
			return 0, err
		}
		batch = append(batch, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	if len(batch) == 0 {
		return 0, nil
	}

	stmt, err := tx.PrepareContext(ctx, `UPDATE history SET command_hash = ? WHERE id = ?`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, r := range batch {
		if _, err := stmt.ExecContext(ctx, rank.Hash(r.cmd), r.id); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(batch), nil
}

// backfillCommandStats creates a command_stat row for every distinct
// command_hash present in history that doesn't have one yet. The aggregate
// text, frequency and last-used are derived straight from history, so this
// is naturally idempotent: once a hash has a row, the WHERE NOT EXISTS
// clause excludes it on the next run.
func backfillCommandStats(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO command_stat (command_hash, command, frequency, last_used)
		SELECT h.command_hash, h.command, COUNT(*), MAX(h.event_time)
		FROM history h
		WHERE h.command_hash IS NOT NULL
		  AND NOT EXISTS (SELECT 1 FROM command_stat cs WHERE cs.command_hash = h.command_hash)
		GROUP BY h.command_hash, h.command
	`)
	return err
}

// backfillRanks fills in rank for every row where it is still NULL,
// rankRecalcBatchSize rows per transaction, recomputed from the row's
// CommandStat.
func backfillRanks(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	now := time.Now().Unix()
	for {
		n, err := backfillRankBatch(ctx, db, now)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		logger.Debug("backfilled ranks", "rows", n)
	}
}

func backfillRankBatch(ctx context.Context, db *sql.DB, now int64) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT h.id, cs.frequency, cs.last_used
		FROM history h
		JOIN command_stat cs ON cs.command_hash = h.command_hash
		WHERE h.rank IS NULL
		LIMIT ?
	`, rankRecalcBatchSize)
	if err != nil {
		return 0, err
	}
	type row struct {
		id        int64
		frequency int64
		lastUsed  int64
	}
	var batch []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.frequency, &r.lastUsed); err != nil {
			rows.Close()
			return 0, err
		}
		batch = append(batch, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	if len(batch) == 0 {
		return 0, nil
	}

	stmt, err := tx.PrepareContext(ctx, `UPDATE history SET rank = ? WHERE id = ?`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, r := range batch {
		score := rank.DefaultScore(r.frequency, r.lastUsed, now)
		if _, err := stmt.ExecContext(ctx, score, r.id); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(batch), nil
}

// RecalculateRanks recomputes rank for every row in the database, N=100 rows
// per transaction, driven by id ranges to guarantee progress and bounded
// memory. It reads the command_hash column on history (populated by
// Migrate) directly rather than resolving the hash at update time.
func RecalculateRanks(ctx context.Context, db *sql.DB) error {
	var minID, maxID sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MIN(id), MAX(id) FROM history`).Scan(&minID, &maxID); err != nil {
		return err
	}
	if !minID.Valid {
		return nil // empty database
	}

	now := time.Now().Unix()
	for lo := minID.Int64; lo <= maxID.Int64; lo += rankRecalcBatchSize {
		hi := lo + rankRecalcBatchSize - 1
		if err := recalculateRankRange(ctx, db, lo, hi, now); err != nil {
			return fmt.Errorf("recalculate ranks [%d,%d]: %w", lo, hi, err)
		}
	}
	return nil
}

func recalculateRankRange(ctx context.Context, db *sql.DB, lo, hi, now int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE history
		SET rank = ? * (
			SELECT frequency FROM command_stat WHERE command_stat.command_hash = history.command_hash
		) + ? / MAX(1, MIN(?, CAST((? - (
			SELECT last_used FROM command_stat WHERE command_stat.command_hash = history.command_hash
		)) / 86400 AS INTEGER)))
		WHERE id BETWEEN ? AND ?
		  AND command_hash IS NOT NULL
		  AND EXISTS (SELECT 1 FROM command_stat WHERE command_stat.command_hash = history.command_hash)
	`, rank.DefaultFrequencyWeight, rank.DefaultRecencyWeight, rank.DefaultMaxDays, now, lo, hi)
	if err != nil {
		return err
	}
	return tx.Commit()
}
