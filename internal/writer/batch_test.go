package writer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriteBatchInsertsAllValidEntries(t *testing.T) {
	w, s := openTestWriter(t)
	recs := []BatchRecord{
		{Command: "ls", CWD: "/p"},
		{Command: "pwd", CWD: "/p"},
		{Command: "git status", CWD: "/p"},
	}
	result, err := w.WriteBatch(t.Context(), recs, "", "")
	require.NoError(t, err)
	require.Equal(t, 3, result.Total)
	require.Equal(t, 3, result.Imported)
	require.Equal(t, 0, result.Skipped)

	var count int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM history`).Scan(&count))
	require.Equal(t, 3, count)
}

func TestWriteBatchDropsInvalidEntriesSilently(t *testing.T) {
	w, _ := openTestWriter(t)
	recs := []BatchRecord{
		{Command: "ls", CWD: "/p"},
		{Command: "", CWD: "/p"},    // invalid: empty command
		{Command: "pwd", CWD: ""},   // invalid: empty cwd
	}
	result, err := w.WriteBatch(t.Context(), recs, "", "")
	require.NoError(t, err)
	require.Equal(t, 3, result.Total)
	require.Equal(t, 1, result.Imported)
	require.Equal(t, 2, result.Skipped)
}

func TestWriteBatchSharesOneSessionAndHostTag(t *testing.T) {
	w, s := openTestWriter(t)
	recs := []BatchRecord{
		{Command: "ls", CWD: "/p"},
		{Command: "pwd", CWD: "/p"},
	}
	_, err := w.WriteBatch(t.Context(), recs, "sess-1", "host-1")
	require.NoError(t, err)

	rows, err := s.DB().Query(`SELECT DISTINCT session_id, hostname FROM history`)
	require.NoError(t, err)
	defer rows.Close()

	var count int
	for rows.Next() {
		var sessionID, hostname string
		require.NoError(t, rows.Scan(&sessionID, &hostname))
		require.Equal(t, "sess-1", sessionID)
		require.Equal(t, "host-1", hostname)
		count++
	}
	require.Equal(t, 1, count)
}

func TestWriteBatchEmptyInputIsNoop(t *testing.T) {
	w, _ := openTestWriter(t)
	result, err := w.WriteBatch(t.Context(), nil, "", "")
	require.NoError(t, err)
	require.Equal(t, 0, result.Total)
	require.Equal(t, 0, result.Imported)
}

// TestWriteBatchIsAtomicOnInjectedFault verifies a failed batch leaves zero
// rows in history and an unchanged command_stat table, since
// insert/upsert/rank-update all share one transaction. The fault is
// simulated with an already-expired context, which makes the batch fail
// before any of its rows is committed.
func TestWriteBatchIsAtomicOnInjectedFault(t *testing.T) {
	w, s := openTestWriter(t)

	recs := make([]BatchRecord, 100)
	for i := range recs {
		recs[i] = BatchRecord{Command: "cmd", CWD: "/p"}
	}

	ctx, cancel := context.WithTimeout(t.Context(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond) // ensure the deadline has passed

	_, err := w.WriteBatch(ctx, recs, "", "")
	require.Error(t, err)

	var historyCount, statCount int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM history`).Scan(&historyCount))
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM command_stat`).Scan(&statCount))
	require.Equal(t, 0, historyCount)
	require.Equal(t, 0, statCount)
}
