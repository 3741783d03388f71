package ratelimit

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnconfiguredServiceAdmitsImmediately(t *testing.T) {
	s := New()
	release, err := s.Acquire(context.Background(), "unknown-service")
	require.NoError(t, err)
	release()
}

func TestMaxConcurrentBoundsInFlightCalls(t *testing.T) {
	s := New()
	s.Configure("svc", Policy{MaxConcurrent: 1})

	release1, err := s.Acquire(context.Background(), "svc")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = s.Acquire(ctx, "svc")
	assert.Error(t, err, "second acquire should block until the first releases")

	release1()
	release2, err := s.Acquire(context.Background(), "svc")
	require.NoError(t, err)
	release2()
}

func TestRateLimiterThrottlesCalls(t *testing.T) {
	s := New()
	s.Configure("svc", Policy{CallsPerPeriod: 2, Period: 1})

	var admitted int32
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	for i := 0; i < 2; i++ {
		release, err := s.Acquire(ctx, "svc")
		require.NoError(t, err)
		atomic.AddInt32(&admitted, 1)
		release()
	}

	// The burst of 2 is exhausted; a third call within the same short
	// window should not be admitted before the context deadline.
	_, err := s.Acquire(ctx, "svc")
	assert.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&admitted))
}

func TestReleaseIsIdempotent(t *testing.T) {
	s := New()
	s.Configure("svc", Policy{MaxConcurrent: 1})

	release, err := s.Acquire(context.Background(), "svc")
	require.NoError(t, err)
	release()
	release() // must not panic or double-release the semaphore

	release2, err := s.Acquire(context.Background(), "svc")
	require.NoError(t, err)
	release2()
}
