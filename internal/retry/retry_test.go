package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithBackoffSucceedsWithoutRetry(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), DefaultPolicy(), nil, func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithBackoffRetriesUntilSuccess(t *testing.T) {
	policy := Policy{InitialDelay: time.Millisecond, Multiplier: 2, MaxDelay: 10 * time.Millisecond, MaxAttempts: 5}
	calls := 0
	err := WithBackoff(context.Background(), policy, nil, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithBackoffExhaustsAttempts(t *testing.T) {
	policy := Policy{InitialDelay: time.Millisecond, Multiplier: 2, MaxDelay: 5 * time.Millisecond, MaxAttempts: 3}
	boom := errors.New("permanent failure")
	calls := 0
	err := WithBackoff(context.Background(), policy, nil, func(ctx context.Context) error {
		calls++
		return boom
	})
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestWithBackoffStopsWhenNotRetryable(t *testing.T) {
	policy := Policy{InitialDelay: time.Millisecond, Multiplier: 2, MaxDelay: 5 * time.Millisecond, MaxAttempts: 5}
	fatal := errors.New("fatal, do not retry")
	calls := 0
	retryable := func(err error) bool { return !errors.Is(err, fatal) }

	err := WithBackoff(context.Background(), policy, retryable, func(ctx context.Context) error {
		calls++
		return fatal
	})
	require.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestWithBackoffRespectsContextCancellation(t *testing.T) {
	policy := Policy{InitialDelay: time.Second, Multiplier: 2, MaxDelay: time.Second, MaxAttempts: 5}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	err := WithBackoff(ctx, policy, nil, func(ctx context.Context) error {
		calls++
		return errors.New("always fails")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
