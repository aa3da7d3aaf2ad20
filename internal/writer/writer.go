// Package writer turns an accepted command observation into a durable,
// fully-indexed, rank-annotated HistoryRecord.
package writer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/zigstory/zigstory/internal/rank"
	"github.com/zigstory/zigstory/internal/store"
)

// Validation errors.
var (
	ErrEmptyCommand = errors.New("writer: cmd must not be empty")
	ErrEmptyPath    = errors.New("writer: cwd must not be empty")
)

// ErrWriteContention is surfaced when the busy-lock retry budget is
// exhausted.
var ErrWriteContention = errors.New("writer: write contention exceeded retry budget")

// Record is a single command observation accepted from the shell hook.
type Record struct {
	Command    string
	CWD        string
	ExitCode   int
	DurationMs int64
	SessionID  string // optional; generated if empty
	Hostname   string // optional; defaulted if empty
}

// Writer validates, hashes, inserts and ranks HistoryRecords against a
// Store's writable connection.
type Writer struct {
	store *store.Store
}

// New returns a Writer bound to the given Store.
func New(s *store.Store) *Writer {
	return &Writer{store: s}
}

func validate(rec *Record) error {
	if rec.Command == "" {
		return ErrEmptyCommand
	}
	if rec.CWD == "" {
		return ErrEmptyPath
	}
	return nil
}

func applyDefaults(rec *Record) {
	if rec.SessionID == "" {
		rec.SessionID = uuid.New().String()
	}
	if rec.Hostname == "" {
		if h, err := os.Hostname(); err == nil && h != "" {
			rec.Hostname = h
		} else {
			rec.Hostname = "unknown"
		}
	}
}

// Write atomically inserts a HistoryRecord, upserts its CommandStat, and
// updates the new record's rank, retrying on transient write contention.
// Returns the new row's id.
func (w *Writer) Write(ctx context.Context, rec Record) (int64, error) {
	if err := validate(&rec); err != nil {
		return 0, err
	}
	applyDefaults(&rec)

	var id int64
	err := withRetry(ctx, func() error {
		var txErr error
		id, txErr = writeOne(ctx, w.store, rec, time.Now().Unix())
		return txErr
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Prepared-statement names cached once per Store handle: the INSERT, the
// stats upsert, and the rank update are each prepared once per session
// (per handle) and bound per call.
const (
	stmtInsertHistory    = "writer.insert_history"
	stmtUpsertCmdStat    = "writer.upsert_command_stat"
	stmtReadCmdStat      = "writer.read_command_stat"
	stmtUpdateRank       = "writer.update_rank"
	sqlInsertHistory     = `INSERT INTO history (command, cwd, exit_code, duration_ms, session_id, hostname, event_time, command_hash, rank) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`
	sqlUpsertCommandStat = `INSERT INTO command_stat (command_hash, command, frequency, last_used) VALUES (?, ?, 1, ?) ON CONFLICT(command_hash) DO UPDATE SET frequency = frequency + 1, last_used = MAX(last_used, excluded.last_used)`
	sqlReadCommandStat   = `SELECT frequency, last_used FROM command_stat WHERE command_hash = ?`
	sqlUpdateRank        = `UPDATE history SET rank = ? WHERE id = ?`
)

// writeOne performs the insert/upsert/rank-update transaction for a single
// validated, defaulted record, binding the Store's cached prepared
// statements into the transaction via tx.StmtContext.
func writeOne(ctx context.Context, s *store.Store, rec Record, now int64) (int64, error) {
	tx, err := s.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("writer: begin tx: %w", err)
	}
	defer tx.Rollback()

	hash := rank.Hash(rec.Command)

	insertStmt, err := s.PrepareStatement(ctx, stmtInsertHistory, sqlInsertHistory)
	if err != nil {
		return 0, err
	}
	result, err := tx.StmtContext(ctx, insertStmt).ExecContext(ctx,
		rec.Command, rec.CWD, rec.ExitCode, rec.DurationMs, rec.SessionID, rec.Hostname, now, hash)
	if err != nil {
		return 0, fmt.Errorf("writer: insert history: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("writer: last insert id: %w", err)
	}

	if err := upsertCommandStat(ctx, s, tx, hash, rec.Command, now); err != nil {
		return 0, err
	}

	freq, lastUsed, err := readCommandStat(ctx, s, tx, hash)
	if err != nil {
		return 0, err
	}
	newRank := rank.DefaultScore(freq, lastUsed, now)

	rankStmt, err := s.PrepareStatement(ctx, stmtUpdateRank, sqlUpdateRank)
	if err != nil {
		return 0, err
	}
	if _, err := tx.StmtContext(ctx, rankStmt).ExecContext(ctx, newRank, id); err != nil {
		return 0, fmt.Errorf("writer: update rank: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("writer: commit: %w", err)
	}
	return id, nil
}

// upsertCommandStat increments frequency (or seeds it at 1) and advances
// last_used to now; frequency never decreases and last_used never moves
// backward.
func upsertCommandStat(ctx context.Context, s *store.Store, tx *sql.Tx, hash, command string, now int64) error {
	stmt, err := s.PrepareStatement(ctx, stmtUpsertCmdStat, sqlUpsertCommandStat)
	if err != nil {
		return err
	}
	if _, err := tx.StmtContext(ctx, stmt).ExecContext(ctx, hash, command, now); err != nil {
		return fmt.Errorf("writer: upsert command_stat: %w", err)
	}
	return nil
}

func readCommandStat(ctx context.Context, s *store.Store, tx *sql.Tx, hash string) (frequency, lastUsed int64, err error) {
	stmt, err := s.PrepareStatement(ctx, stmtReadCmdStat, sqlReadCommandStat)
	if err != nil {
		return 0, 0, err
	}
	err = tx.StmtContext(ctx, stmt).QueryRowContext(ctx, hash).Scan(&frequency, &lastUsed)
	if err != nil {
		return 0, 0, fmt.Errorf("writer: read command_stat: %w", err)
	}
	return frequency, lastUsed, nil
}
