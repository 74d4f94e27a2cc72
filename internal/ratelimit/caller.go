// Package ratelimit wraps remote calls with request pacing, bounded
// exponential backoff for transient failures, and throttle-aware retries.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"playlist-importer/internal/shared"
)

const (
	defaultMaxAttempts  = 6
	defaultInitialDelay = 1 * time.Second
	defaultMaxDelay     = 10 * time.Second
	defaultRate         = 250 * time.Millisecond
	defaultBurst        = 4
	// Safety margin added on top of the server's advisory Retry-After.
	defaultThrottleMargin = 1 * time.Second
)

// Config holds configuration for the rate-limited caller.
type Config struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Rate           time.Duration
	Burst          int
	ThrottleMargin time.Duration
}

// DefaultConfig returns sensible defaults for calling the catalog API.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    defaultMaxAttempts,
		InitialDelay:   defaultInitialDelay,
		MaxDelay:       defaultMaxDelay,
		Rate:           defaultRate,
		Burst:          defaultBurst,
		ThrottleMargin: defaultThrottleMargin,
	}
}

// Caller executes remote operations under a shared rate limiter.
//
// Failure handling follows the error taxonomy: throttled responses always
// sleep for the server-advised delay plus a margin and retry without
// consuming an attempt slot; transient failures retry with exponential
// backoff and jitter until attempts are exhausted; anything else propagates
// immediately.
type Caller struct {
	config  Config
	limiter *rate.Limiter
	log     *slog.Logger

	// sleep is swappable so tests can observe delays without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Caller with the given configuration.
func New(cfg Config, log *slog.Logger) *Caller {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = defaultInitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaultMaxDelay
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.Rate <= 0 {
		cfg.Rate = defaultRate
	}
	return &Caller{
		config:  cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.Rate), cfg.Burst),
		log:     log,
		sleep:   sleepContext,
	}
}

// Do runs op under the rate limiter, retrying per the caller's policy.
func (c *Caller) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < c.config.MaxAttempts; {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if shared.IsThrottled(lastErr) {
			delay := shared.ThrottleDelay(lastErr) + c.config.ThrottleMargin
			c.log.Debug("throttled by remote service", "retry_after", delay)
			if err := c.sleep(ctx, delay); err != nil {
				return err
			}
			// Throttling is expected, not a failure: the attempt is not consumed.
			continue
		}

		if !shared.IsRetryableHTTPError(lastErr) {
			return lastErr
		}

		attempt++
		if attempt >= c.config.MaxAttempts {
			break
		}
		delay := c.backoff(attempt)
		c.log.Debug("transient remote failure, backing off", "attempt", attempt, "delay", delay, "error", lastErr)
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", c.config.MaxAttempts, lastErr)
}

// backoff computes the exponential delay for the given attempt with ±25% jitter.
func (c *Caller) backoff(attempt int) time.Duration {
	delay := c.config.InitialDelay * time.Duration(1<<uint(attempt-1))
	if delay > c.config.MaxDelay {
		delay = c.config.MaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay/2))) - delay/4
	if delay+jitter < 0 {
		return delay
	}
	return delay + jitter
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
