package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candidate-matching-workers/internal/common/config"
	"candidate-matching-workers/internal/common/logger"
)

func fastRetry(maxRetries int) *RetryConfig {
	return &RetryConfig{MaxRetries: maxRetries, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestWithRetry(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), fastRetry(3), func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return stderrors.New("rpc error: code = Unavailable")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on permanent failure", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), fastRetry(3), func(ctx context.Context) error {
			calls++
			return stderrors.New("permission denied")
		})
		assert.EqualError(t, err, "permission denied")
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), fastRetry(2), func(ctx context.Context) error {
			calls++
			return stderrors.New("connection refused")
		})
		assert.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("honours cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		cfg := &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}

		err := withRetry(ctx, cfg, func(ctx context.Context) error {
			return stderrors.New("timeout")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(stderrors.New("dial tcp: Connection Refused")))
	assert.True(t, isRetryableZeebeError(stderrors.New("context deadline exceeded")))
	assert.False(t, isRetryableZeebeError(stderrors.New("invalid argument")))
}

func TestWorkerSet_DisabledWorkerIsNotOpened(t *testing.T) {
	set := NewWorkerSet(nil, logger.NewNoOpLogger())

	opened := set.Register("batch-evaluate", config.WorkerConfig{Enabled: false}, nil)
	assert.False(t, opened)
	assert.Empty(t, set.TaskTypes())

	set.Close()
}
