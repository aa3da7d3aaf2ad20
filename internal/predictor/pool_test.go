package predictor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zigstory/zigstory/internal/store"
)

func TestPoolAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	defer s.Close()

	pool, err := NewPool(path, 1)
	require.NoError(t, err)
	defer pool.Close()

	db, err := pool.Acquire(t.Context())
	require.NoError(t, err)
	pool.Release(db)

	db2, err := pool.Acquire(t.Context())
	require.NoError(t, err)
	pool.Release(db2)
}

func TestPoolAcquireBlocksWhenExhausted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	defer s.Close()

	pool, err := NewPool(path, 1)
	require.NoError(t, err)
	defer pool.Close()

	db, err := pool.Acquire(t.Context())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()
	_, err = pool.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	pool.Release(db)
}
