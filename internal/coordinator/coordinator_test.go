package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegisterHandleWaitRoundTrip(t *testing.T) {
	c := New(zap.NewNop())

	var received Payload
	require.NoError(t, c.Register("job-1", func(p Payload) (any, error) {
		received = p
		return p["value"], nil
	}))

	delivered := Payload{"id": "job-1", "value": "hello"}

	go func() {
		time.Sleep(10 * time.Millisecond)
		require.NoError(t, c.Handle(delivered))
	}()

	value, err := c.Wait(context.Background(), "job-1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "hello", value)
	assert.Equal(t, delivered, received)
}

func TestWaitTimesOutWithoutDelivery(t *testing.T) {
	c := New(zap.NewNop())
	require.NoError(t, c.Register("job-2", func(p Payload) (any, error) { return nil, nil }))

	start := time.Now()
	_, err := c.Wait(context.Background(), "job-2", 30*time.Millisecond)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrCallbackTimeout)
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
	assert.Equal(t, 0, c.Pending())
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	c := New(zap.NewNop())
	require.NoError(t, c.Register("job-3", func(Payload) (any, error) { return nil, nil }))
	err := c.Register("job-3", func(Payload) (any, error) { return nil, nil })
	require.ErrorIs(t, err, ErrDuplicateRegistration)
}

func TestHandlerErrorWrappedAsCallbackFailed(t *testing.T) {
	c := New(zap.NewNop())
	boom := errors.New("boom")
	require.NoError(t, c.Register("job-4", func(Payload) (any, error) { return nil, boom }))

	go func() {
		time.Sleep(5 * time.Millisecond)
		_ = c.Handle(Payload{"id": "job-4"})
	}()

	_, err := c.Wait(context.Background(), "job-4", time.Second)
	require.ErrorIs(t, err, ErrCallbackFailed)
}

func TestUnknownDeliveryIsDiscarded(t *testing.T) {
	c := New(zap.NewNop())
	require.NoError(t, c.Handle(Payload{"id": "ghost"}))
}

func TestCancelDuringWaitReturnsPromptlyAndDiscardsLateDelivery(t *testing.T) {
	c := New(zap.NewNop())
	require.NoError(t, c.Register("job-5", func(Payload) (any, error) { return "late", nil }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cancel()
		close(done)
	}()
	<-done

	_, err := c.Wait(ctx, "job-5", time.Second)
	require.ErrorIs(t, err, ErrWaitCancelled)

	// A delivery that arrives after Wait gave up is silently discarded.
	require.NoError(t, c.Handle(Payload{"id": "job-5"}))
	assert.Equal(t, 0, c.Pending())
}
