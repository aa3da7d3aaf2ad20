package writer

import (
	"context"
	"fmt"
	"time"

	"github.com/zigstory/zigstory/internal/rank"
	"github.com/zigstory/zigstory/internal/store"
)

// BatchRecord is one entry of a batch write; unlike Record it carries no
// per-entry session or host tag, since a batch shares a single tag for all
// of its entries.
type BatchRecord struct {
	Command    string
	CWD        string
	ExitCode   int
	DurationMs int64
}

// BatchResult reports how many of a batch's entries were accepted.
type BatchResult struct {
	Total    int
	Imported int
	Skipped  int
}

// WriteBatch inserts recs in a single transaction under one session and host
// tag, silently dropping entries that fail validation rather than aborting
// the whole batch. If sessionID or hostname are empty they
// are defaulted once for the entire batch.
func (w *Writer) WriteBatch(ctx context.Context, recs []BatchRecord, sessionID, hostname string) (BatchResult, error) {
	shared := Record{SessionID: sessionID, Hostname: hostname}
	applyDefaults(&shared)

	result := BatchResult{Total: len(recs)}
	err := withRetry(ctx, func() error {
		result.Imported, result.Skipped = 0, 0
		n, err := writeBatchTx(ctx, w.store, recs, shared.SessionID, shared.Hostname)
		result.Imported = n
		result.Skipped = len(recs) - n
		return err
	})
	if err != nil {
		return BatchResult{}, err
	}
	return result, nil
}

func writeBatchTx(ctx context.Context, s *store.Store, recs []BatchRecord, sessionID, hostname string) (int, error) {
	tx, err := s.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("writer: begin batch tx: %w", err)
	}
	defer tx.Rollback()

	insertStmt, err := s.PrepareStatement(ctx, stmtInsertHistory, sqlInsertHistory)
	if err != nil {
		return 0, err
	}
	txInsert := tx.StmtContext(ctx, insertStmt)

	now := time.Now().Unix()
	type inserted struct {
		id   int64
		hash string
	}
	var rows []inserted

	for _, r := range recs {
		if r.Command == "" || r.CWD == "" {
			continue // invalid entries are dropped, not rejected
		}
		hash := rank.Hash(r.Command)
		res, err := txInsert.ExecContext(ctx, r.Command, r.CWD, r.ExitCode, r.DurationMs, sessionID, hostname, now, hash)
		if err != nil {
			return 0, fmt.Errorf("writer: insert batch row: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		rows = append(rows, inserted{id: id, hash: hash})

		if err := upsertCommandStat(ctx, s, tx, hash, r.Command, now); err != nil {
			return 0, err
		}
	}

	if len(rows) > 0 {
		rankStmt, err := s.PrepareStatement(ctx, stmtUpdateRank, sqlUpdateRank)
		if err != nil {
			return 0, err
		}
		txRank := tx.StmtContext(ctx, rankStmt)

		for _, r := range rows {
			freq, lastUsed, err := readCommandStat(ctx, s, tx, r.hash)
			if err != nil {
				return 0, err
			}
			score := rank.DefaultScore(freq, lastUsed, now)
			if _, err := txRank.ExecContext(ctx, score, r.id); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("writer: commit batch: %w", err)
	}
	return len(rows), nil
}
