package predictor

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zigstory/zigstory/internal/store"
	"github.com/zigstory/zigstory/internal/writer"
)

func openTestPredictor(t *testing.T) (*Predictor, *store.Store) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	pool, err := NewPool(path, 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })

	return New(pool, 0, 0), s
}

func seed(t *testing.T, s *store.Store, commands ...string) {
	t.Helper()
	w := writer.New(s)
	for _, cmd := range commands {
		_, err := w.Write(t.Context(), writer.Record{Command: cmd, CWD: "/p"})
		require.NoError(t, err)
	}
}

func TestSuggestRejectsShortPrefix(t *testing.T) {
	p, s := openTestPredictor(t)
	seed(t, s, "git status")
	require.Empty(t, p.Suggest(t.Context(), "g"))
}

func TestSuggestReturnsMatchingPrefix(t *testing.T) {
	p, s := openTestPredictor(t)
	seed(t, s, "git status", "git commit", "ls -la")

	results := p.Suggest(t.Context(), "git")
	require.Len(t, results, 2)
	require.Contains(t, results, "git status")
	require.Contains(t, results, "git commit")
}

func TestSuggestIsCaseInsensitive(t *testing.T) {
	p, s := openTestPredictor(t)
	seed(t, s, "Git Status")
	require.Len(t, p.Suggest(t.Context(), "git"), 1)
}

func TestSuggestReturnsEmptyOnNoMatch(t *testing.T) {
	p, s := openTestPredictor(t)
	seed(t, s, "ls -la")
	require.Empty(t, p.Suggest(t.Context(), "zz"))
}

func TestSuggestCachesRepeatQuery(t *testing.T) {
	p, s := openTestPredictor(t)
	seed(t, s, "git status")

	first := p.Suggest(t.Context(), "git")
	require.Equal(t, 1, p.cache.len())

	seed(t, s, "git commit") // new write after first query is cached

	second := p.Suggest(t.Context(), "git")
	require.Equal(t, first, second) // cache short-circuits the new row
}

func TestSuggestLimitsToK(t *testing.T) {
	p, s := openTestPredictor(t)
	seed(t, s, "git a", "git b", "git c", "git d", "git e", "git f")
	require.Len(t, p.Suggest(t.Context(), "git"), DefaultSuggestionCount)
}
