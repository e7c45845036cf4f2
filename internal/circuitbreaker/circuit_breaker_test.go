package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream down")

func failing(context.Context) error { return errUpstream }
func succeeding(context.Context) error { return nil }

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := New(&Config{FailureThreshold: 3, SuccessThreshold: 1, ResetTimeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Execute(ctx, failing), errUpstream)
	}
	assert.Equal(t, StateOpen, b.State())

	err := b.Execute(ctx, succeeding)
	assert.ErrorIs(t, err, ErrOpen)
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	b := New(&Config{FailureThreshold: 1, SuccessThreshold: 2, ResetTimeout: time.Millisecond})
	ctx := context.Background()

	require.Error(t, b.Execute(ctx, failing))
	require.Equal(t, StateOpen, b.State())

	time.Sleep(5 * time.Millisecond)

	require.NoError(t, b.Execute(ctx, succeeding))
	assert.Equal(t, StateHalfOpen, b.State())

	require.NoError(t, b.Execute(ctx, succeeding))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerReopensOnProbeFailure(t *testing.T) {
	b := New(&Config{FailureThreshold: 1, SuccessThreshold: 2, ResetTimeout: time.Millisecond})
	ctx := context.Background()

	require.Error(t, b.Execute(ctx, failing))
	time.Sleep(5 * time.Millisecond)

	require.Error(t, b.Execute(ctx, failing))
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	b := New(nil)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		require.NoError(t, b.Execute(ctx, succeeding))
	}
	assert.Equal(t, StateClosed, b.State())
}
