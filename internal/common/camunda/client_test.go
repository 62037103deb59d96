package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crew-match-workers/internal/common/errors"
	"crew-match-workers/internal/common/logger"
)

func newTestClient(t *testing.T, retries uint) *Client {
	return &Client{
		config: &ClientConfig{
			ConnectionTimeout: time.Second,
			RetryConfig: &RetryConfig{
				MaxRetries: retries,
				BaseDelay:  time.Millisecond,
				MaxDelay:   5 * time.Millisecond,
			},
		},
		logger: logger.NewTestLogger(t),
	}
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		msg      string
		expected bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"write: broken pipe", true},
		{"NOT_FOUND: expected to find process", false},
		{"INVALID_ARGUMENT: bad variables", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.expected, isRetryableZeebeError(stderrors.New(tt.msg)))
		})
	}
}

func TestExecuteWithRetry(t *testing.T) {
	t.Run("retries transient errors until success", func(t *testing.T) {
		c := newTestClient(t, 3)
		calls := 0

		out, err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
			calls++
			if calls < 3 {
				return nil, stderrors.New("unavailable")
			}
			return "ok", nil
		}, "publish")

		require.NoError(t, err)
		assert.Equal(t, "ok", out)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		c := newTestClient(t, 3)
		calls := 0

		_, err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
			calls++
			return nil, stderrors.New("INVALID_ARGUMENT: bad variables")
		}, "complete")

		require.Error(t, err)
		assert.Equal(t, 1, calls)
		var stdErr *errors.StandardError
		require.ErrorAs(t, err, &stdErr)
		assert.Equal(t, errors.ErrCodeExternalService, stdErr.Code)
	})

	t.Run("maps exhausted timeouts", func(t *testing.T) {
		c := newTestClient(t, 1)
		calls := 0

		_, err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
			calls++
			return nil, stderrors.New("context deadline exceeded")
		}, "topology")

		var stdErr *errors.StandardError
		require.ErrorAs(t, err, &stdErr)
		assert.Equal(t, errors.ErrCodeTimeout, stdErr.Code)
		assert.Contains(t, stdErr.Details, "after 2 attempts")
		assert.Equal(t, 2, calls)
	})
}
