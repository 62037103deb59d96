// internal/common/database/connect.go
package database

import (
	"context"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"crew-match-workers/internal/common/logger"
)

// Pinger is anything the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WaitFor pings target until it answers, backing off with full jitter.
// attempts below one means a single try.
func WaitFor(ctx context.Context, name string, target Pinger, attempts uint, log logger.Logger) error {
	if attempts == 0 {
		attempts = 1
	}

	return retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return target.Ping(pingCtx)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("dependency not ready, retrying", map[string]interface{}{
				"dependency": name,
				"attempt":    n + 1,
				"error":      err.Error(),
			})
		}),
	)
}
