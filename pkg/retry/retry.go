// pkg/retry/retry.go - retries file writes that fail transiently, e.g. an
// export target held open by a spreadsheet.

package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/windowsadmins/appsweep/pkg/logging"
)

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so Retry returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// RetryConfig defines the configuration for retry attempts
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	Multiplier      float64
}

// DefaultConfig suits short-lived file locks.
var DefaultConfig = RetryConfig{
	MaxRetries:      3,
	InitialInterval: 250 * time.Millisecond,
	Multiplier:      2,
}

// Retry runs action until it succeeds, returns a permanent error, the
// attempts run out or ctx is done. The last error is returned.
func Retry(ctx context.Context, logger *logging.Logger, config RetryConfig, action func() error) error {
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}
	interval := config.InitialInterval

	var err error
	for attempt := 1; attempt <= config.MaxRetries; attempt++ {
		if err = action(); err == nil {
			return nil
		}

		var permanent *permanentError
		if errors.As(err, &permanent) {
			return permanent.err
		}
		if attempt == config.MaxRetries {
			break
		}

		logger.Warn(fmt.Sprintf("Attempt %d/%d failed, retrying in %s", attempt, config.MaxRetries, interval),
			"error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-time.After(interval):
		}
		interval = time.Duration(float64(interval) * config.Multiplier)
	}

	return fmt.Errorf("failed after %d attempts: %w", config.MaxRetries, err)
}
