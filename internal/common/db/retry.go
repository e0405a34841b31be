package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgconn"

	"github.com/devnla/backend-express/internal/common/logger"
)

type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

var DefaultRetryConfig = RetryConfig{
	MaxAttempts:  3,
	InitialDelay: 100 * time.Millisecond,
	MaxDelay:     2 * time.Second,
	Multiplier:   2.0,
}

// retryableStates are SQLSTATEs after which re-running a read is safe:
// serialization failures, deadlocks, lock timeouts and server restarts.
var retryableStates = map[string]struct{}{
	"40001": {},
	"40P01": {},
	"55P03": {},
	"57P01": {},
	"57P02": {},
	"57P03": {},
}

// IsRetryableError reports transient Postgres failures. The whole 08 class
// (connection exception) is retryable, as is anything pgconn marks safe to
// retry because the query never reached the server.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "08") {
			return true
		}
		_, ok := retryableStates[pgErr.Code]
		return ok
	}

	return pgconn.SafeToRetry(err)
}

// RetryWithBackoff runs operation until it succeeds, fails permanently or
// MaxAttempts is reached. ctx cancellation stops the wait between attempts.
func RetryWithBackoff(ctx context.Context, log *logger.Logger, config RetryConfig, operation func(ctx context.Context) error) error {
	attempts := max(config.MaxAttempts, 1)
	delay := config.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = operation(ctx)
		if lastErr == nil {
			if attempt > 1 && log != nil {
				log.WithFields(ctx, logger.Fields{"attempt": attempt, "action": "db_retry_recovered"}).Info("database operation recovered after retry")
			}
			return nil
		}
		if !IsRetryableError(lastErr) || attempt == attempts {
			break
		}

		if log != nil {
			log.WithFields(ctx, logger.Fields{
				"attempt": attempt,
				"max":     attempts,
				"delay":   delay.String(),
				"action":  "db_retry",
			}).Warnf("transient database error: %v", lastErr)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-timer.C:
		}

		delay = min(time.Duration(float64(delay)*config.Multiplier), config.MaxDelay)
	}

	if !IsRetryableError(lastErr) {
		return lastErr
	}
	return fmt.Errorf("database operation failed after %d attempts: %w", attempts, lastErr)
}
