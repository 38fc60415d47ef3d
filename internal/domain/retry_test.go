package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearBackoff(t *testing.T) {
	backoff := LinearBackoff(5 * time.Second)

	assert.Equal(t, 5*time.Second, backoff(1))
	assert.Equal(t, 10*time.Second, backoff(2))
	assert.Equal(t, 15*time.Second, backoff(3))
}

func TestRetryDo_SucceedsWithoutRetry(t *testing.T) {
	calls := 0
	p := RetryPolicy{MaxAttempts: 3, Retryable: IsRateLimit}

	err := p.Do(context.Background(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryDo_ExhaustsRetryableAttempts(t *testing.T) {
	calls := 0
	var waits []time.Duration
	p := RetryPolicy{
		MaxAttempts: 3,
		Backoff:     LinearBackoff(5 * time.Second),
		Retryable:   IsRateLimit,
		Sleep: func(ctx context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		},
	}

	err := p.Do(context.Background(), func() error {
		calls++
		return fmt.Errorf("%w: quota", ErrRateLimited)
	})

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second}, waits)
}

func TestRetryDo_NonRetryableAbortsImmediately(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	p := RetryPolicy{MaxAttempts: 3, Retryable: IsRateLimit}

	err := p.Do(context.Background(), func() error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetryDo_RecoversAfterTransientFailure(t *testing.T) {
	calls := 0
	p := RetryPolicy{
		MaxAttempts: 3,
		Retryable:   IsRateLimit,
		Sleep:       func(ctx context.Context, d time.Duration) error { return nil },
		Backoff:     LinearBackoff(time.Second),
	}

	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 2 {
			return fmt.Errorf("%w: quota", ErrRateLimited)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryDo_CanceledContextStopsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	p := RetryPolicy{
		MaxAttempts: 3,
		Backoff:     LinearBackoff(time.Hour),
		Retryable:   IsRateLimit,
	}

	err := p.Do(ctx, func() error {
		calls++
		return fmt.Errorf("%w: quota", ErrRateLimited)
	})

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, calls)
}

func TestIsRateLimit(t *testing.T) {
	assert.True(t, IsRateLimit(fmt.Errorf("wrapped: %w", ErrRateLimited)))
	assert.False(t, IsRateLimit(errors.New("other")))
	assert.False(t, IsRateLimit(nil))
}
