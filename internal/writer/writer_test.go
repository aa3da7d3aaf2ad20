package writer

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zigstory/zigstory/internal/store"
)

func openTestWriter(t *testing.T) (*Writer, *store.Store) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return New(s), s
}

func TestWriteRejectsEmptyCommand(t *testing.T) {
	w, _ := openTestWriter(t)
	_, err := w.Write(t.Context(), Record{CWD: "/p"})
	require.ErrorIs(t, err, ErrEmptyCommand)
}

func TestWriteRejectsEmptyPath(t *testing.T) {
	w, _ := openTestWriter(t)
	_, err := w.Write(t.Context(), Record{Command: "ls"})
	require.ErrorIs(t, err, ErrEmptyPath)
}

func TestWriteInsertsAndRanks(t *testing.T) {
	w, s := openTestWriter(t)
	id, err := w.Write(t.Context(), Record{Command: "git status", CWD: "/p"})
	require.NoError(t, err)
	require.Positive(t, id)

	var command, hash string
	var r float64
	require.NoError(t, s.DB().QueryRow(`SELECT command, command_hash, rank FROM history WHERE id = ?`, id).
		Scan(&command, &hash, &r))
	require.Equal(t, "git status", command)
	require.NotEmpty(t, hash)
	require.Greater(t, r, 0.0)

	var freq int64
	require.NoError(t, s.DB().QueryRow(`SELECT frequency FROM command_stat WHERE command_hash = ?`, hash).Scan(&freq))
	require.Equal(t, int64(1), freq)
}

func TestWriteGeneratesSessionAndHostWhenAbsent(t *testing.T) {
	w, s := openTestWriter(t)
	id, err := w.Write(t.Context(), Record{Command: "ls", CWD: "/p"})
	require.NoError(t, err)

	var sessionID, hostname string
	require.NoError(t, s.DB().QueryRow(`SELECT session_id, hostname FROM history WHERE id = ?`, id).
		Scan(&sessionID, &hostname))
	require.NotEmpty(t, sessionID)
	require.NotEmpty(t, hostname)
}

func TestWriteTwiceIncrementsFrequencyAndRaisesRank(t *testing.T) {
	w, s := openTestWriter(t)
	id1, err := w.Write(t.Context(), Record{Command: "npm install", CWD: "/p"})
	require.NoError(t, err)

	id2, err := w.Write(t.Context(), Record{Command: "npm install", CWD: "/p"})
	require.NoError(t, err)

	var rank1, rank2 float64
	require.NoError(t, s.DB().QueryRow(`SELECT rank FROM history WHERE id = ?`, id1).Scan(&rank1))
	require.NoError(t, s.DB().QueryRow(`SELECT rank FROM history WHERE id = ?`, id2).Scan(&rank2))
	require.Greater(t, rank2, rank1)
}

// TestWriteRoundTripsLongCommand verifies a 1500-character command is
// accepted and round-trips intact.
func TestWriteRoundTripsLongCommand(t *testing.T) {
	w, s := openTestWriter(t)
	long := "echo " + strings.Repeat("x", 1500)

	id, err := w.Write(t.Context(), Record{Command: long, CWD: "/p"})
	require.NoError(t, err)

	var got string
	require.NoError(t, s.DB().QueryRow(`SELECT command FROM history WHERE id = ?`, id).Scan(&got))
	require.Equal(t, long, got)
}

// TestWriteStoresSQLMetacharactersAsLiteralText verifies a command whose
// text is SQL syntax inserts exactly one row with that literal text,
// proving the parameterized query path leaves the schema untouched.
func TestWriteStoresSQLMetacharactersAsLiteralText(t *testing.T) {
	w, s := openTestWriter(t)
	payload := "'; DROP TABLE history; --"

	id, err := w.Write(t.Context(), Record{Command: payload, CWD: "/p"})
	require.NoError(t, err)

	var got string
	require.NoError(t, s.DB().QueryRow(`SELECT command FROM history WHERE id = ?`, id).Scan(&got))
	require.Equal(t, payload, got)

	var count int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM history`).Scan(&count))
	require.Equal(t, 1, count)
}
