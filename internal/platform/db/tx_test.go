package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func serializationErr() error {
	return fmt.Errorf("update quote: %w", &pgconn.PgError{Code: "40001"})
}

func TestRetrySerializationSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := retrySerialization(context.Background(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestRetrySerializationRerunsOn40001(t *testing.T) {
	calls := 0
	err := retrySerialization(context.Background(), func() error {
		calls++
		if calls < 3 {
			return serializationErr()
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestRetrySerializationDoesNotRetryOtherErrors(t *testing.T) {
	calls := 0
	boom := errors.New("constraint violation")
	err := retrySerialization(context.Background(), func() error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)
}

func TestRetrySerializationGivesUpAfterBoundedAttempts(t *testing.T) {
	calls := 0
	err := retrySerialization(context.Background(), func() error {
		calls++
		return serializationErr()
	})
	require.Error(t, err)
	require.True(t, isSerializationFailure(err))
	require.Equal(t, maxTxAttempts, calls)
}

func TestRetrySerializationStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retrySerialization(ctx, func() error {
		calls++
		cancel()
		return serializationErr()
	})
	require.True(t, isSerializationFailure(err))
	require.Equal(t, 1, calls)
}
