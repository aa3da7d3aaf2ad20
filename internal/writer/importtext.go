package writer

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/zigstory/zigstory/internal/rank"
)

// textImportInterval is the synthetic spacing assigned between consecutive
// lines of a plain shell-history file, which carries no timestamps of its
// own.
const textImportInterval = time.Minute

// ImportText reads a plain-text shell history file (one raw command per
// line, blank lines ignored) and imports it as a batch. Since the file
// carries no timestamps, each line is assigned a synthetic event_time
// descending one minute per line from now, with the first line treated as
// the most recent. Lines whose (command, cwd, event_time) triple already
// exists in the database are skipped, which makes re-importing the same
// file with the same anchor a no-op.
func (w *Writer) ImportText(ctx context.Context, r io.Reader, cwd, sessionID, hostname string, now time.Time) (BatchResult, error) {
	shared := Record{SessionID: sessionID, Hostname: hostname}
	applyDefaults(&shared)

	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return BatchResult{}, fmt.Errorf("writer: read history file: %w", err)
	}

	result := BatchResult{Total: len(lines)}
	err := withRetry(ctx, func() error {
		n, skipped, err := importTextTx(ctx, w.store.DB(), lines, cwd, shared.SessionID, shared.Hostname, now)
		result.Imported = n
		result.Skipped = skipped
		return err
	})
	if err != nil {
		return BatchResult{}, err
	}
	return result, nil
}

func importTextTx(ctx context.Context, db *sql.DB, lines []string, cwd, sessionID, hostname string, now time.Time) (imported, skipped int, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("writer: begin text import tx: %w", err)
	}
	defer tx.Rollback()

	existsStmt, err := tx.PrepareContext(ctx, `SELECT 1 FROM history WHERE command = ? AND cwd = ? AND event_time = ? LIMIT 1`)
	if err != nil {
		return 0, 0, err
	}
	defer existsStmt.Close()

	insertStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO history (command, cwd, exit_code, duration_ms, session_id, hostname, event_time, command_hash, rank)
		VALUES (?, ?, 0, 0, ?, ?, ?, ?, 0)
	`)
	if err != nil {
		return 0, 0, err
	}
	defer insertStmt.Close()

	rankStmt, err := tx.PrepareContext(ctx, `UPDATE history SET rank = ? WHERE id = ?`)
	if err != nil {
		return 0, 0, err
	}
	defer rankStmt.Close()

	statUpsertStmt, err := tx.PrepareContext(ctx, sqlUpsertCommandStat)
	if err != nil {
		return 0, 0, err
	}
	defer statUpsertStmt.Close()

	statReadStmt, err := tx.PrepareContext(ctx, sqlReadCommandStat)
	if err != nil {
		return 0, 0, err
	}
	defer statReadStmt.Close()

	base := now.Unix()
	for i, cmd := range lines {
		eventTime := base - int64(i)*int64(textImportInterval.Seconds())

		var exists int
		scanErr := existsStmt.QueryRowContext(ctx, cmd, cwd, eventTime).Scan(&exists)
		if scanErr == nil {
			skipped++
			continue
		}
		if scanErr != sql.ErrNoRows {
			return 0, 0, scanErr
		}

		hash := rank.Hash(cmd)
		res, err := insertStmt.ExecContext(ctx, cmd, cwd, sessionID, hostname, eventTime, hash)
		if err != nil {
			return 0, 0, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, 0, err
		}

		if _, err := statUpsertStmt.ExecContext(ctx, hash, cmd, eventTime); err != nil {
			return 0, 0, fmt.Errorf("writer: upsert command_stat: %w", err)
		}
		var freq, lastUsed int64
		if err := statReadStmt.QueryRowContext(ctx, hash).Scan(&freq, &lastUsed); err != nil {
			return 0, 0, fmt.Errorf("writer: read command_stat: %w", err)
		}
		score := rank.DefaultScore(freq, lastUsed, eventTime)
		if _, err := rankStmt.ExecContext(ctx, score, id); err != nil {
			return 0, 0, err
		}

		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("writer: commit text import: %w", err)
	}
	return imported, skipped, nil
}
