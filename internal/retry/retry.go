// Package retry provides exponential backoff retry logic with jitter.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Config holds retry configuration.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int
	// InitialBackoff is the delay before the second attempt, excluding jitter.
	InitialBackoff time.Duration
	// MaxBackoff caps a single delay. Zero means uncapped.
	MaxBackoff time.Duration
	// Multiplier is the exponential backoff multiplier.
	Multiplier float64
	// MaxJitter is the upper bound of the uniform jitter added to each delay.
	MaxJitter time.Duration

	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is called before each sleep with the zero-based index of the
	// attempt that failed.
	OnRetry func(attempt int, wait time.Duration, err error)
	// MinWait returns the shortest delay err allows, such as a server's
	// Retry-After. It raises the backoff but never past MaxBackoff.
	MinWait func(err error) time.Duration
}

// DefaultConfig returns the 3-attempt, 2^n seconds plus [0,1)s jitter policy.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		MaxJitter:      1 * time.Second,
	}
}

// ErrorClassifier reports whether an error is transient and worth retrying.
type ErrorClassifier func(error) bool

// IsRetryable is the default classifier. Context errors are never retried;
// everything else is.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// ExhaustedError is returned when every attempt failed with a transient error.
type ExhaustedError struct {
	Err      error
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do executes fn with retry logic, using the provided classifier to determine
// if errors are retryable. Permanent errors are returned as-is after a single
// attempt. Context cancellation is returned unwrapped.
func Do(ctx context.Context, cfg Config, classifier ErrorClassifier, fn func(context.Context) error) error {
	if classifier == nil {
		classifier = IsRetryable
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = timerSleep
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !classifier(err) {
			return err
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}

		wait := cfg.wait(attempt, err)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, wait, err)
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}

	return &ExhaustedError{Err: lastErr, Attempts: attempts}
}

// Value is Do for operations that produce a result.
func Value[T any](ctx context.Context, cfg Config, classifier ErrorClassifier, fn func(context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, classifier, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// Backoff returns the delay that follows the failed attempt with the given
// zero-based index: InitialBackoff * Multiplier^attempt plus jitter.
func (c Config) Backoff(attempt int) time.Duration {
	mult := c.Multiplier
	if mult <= 0 {
		mult = 1
	}
	// Work in float64 so large attempt indexes saturate instead of wrapping.
	wait := float64(c.InitialBackoff)*math.Pow(mult, float64(attempt)) + float64(jitter(c.MaxJitter))
	limit := float64(math.MaxInt64)
	if c.MaxBackoff > 0 {
		limit = float64(c.MaxBackoff)
	}
	if wait >= limit || math.IsInf(wait, 0) || math.IsNaN(wait) {
		if c.MaxBackoff > 0 {
			return c.MaxBackoff
		}
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(wait)
}

// wait is Backoff raised to the floor MinWait reports for err.
func (c Config) wait(attempt int, err error) time.Duration {
	wait := c.Backoff(attempt)
	if c.MinWait == nil {
		return wait
	}
	floor := c.MinWait(err)
	if c.MaxBackoff > 0 && floor > c.MaxBackoff {
		floor = c.MaxBackoff
	}
	return max(wait, floor)
}

// jitter returns a uniform random duration in [0, max).
func jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Float64() * float64(max))
}

func timerSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
