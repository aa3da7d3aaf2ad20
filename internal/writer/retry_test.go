package writer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithRetrySucceedsWithoutRetryOnNilError(t *testing.T) {
	calls := 0
	err := withRetry(t.Context(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestWithRetryPassesThroughNonBusyErrors(t *testing.T) {
	sentinel := errors.New("boom")
	calls := 0
	err := withRetry(t.Context(), func() error {
		calls++
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, 1, calls)
}

func TestWithRetryRecoversAfterTransientBusyError(t *testing.T) {
	calls := 0
	err := withRetry(t.Context(), func() error {
		calls++
		if calls < 2 {
			return errors.New("database is locked")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestWithRetryExhaustsBudgetAndSurfacesContention(t *testing.T) {
	calls := 0
	err := withRetry(t.Context(), func() error {
		calls++
		return errors.New("SQLITE_BUSY")
	})
	require.ErrorIs(t, err, ErrWriteContention)
	require.Equal(t, retryMaxAttempts+1, calls)
}
