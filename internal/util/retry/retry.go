package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config holds the backoff policy for one call of Do.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// OnRetry is called before each wait with the 1-based attempt that failed.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Option is a functional option for retry configuration.
type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		MaxRetries:   5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Do runs operation until it succeeds, fails with a Fatal error, or has
// been retried MaxRetries times. Waits grow by Multiplier up to MaxDelay;
// an error built with After raises the next wait to the delay it carries,
// still capped at MaxDelay. Context cancellation ends the wait early.
func Do(ctx context.Context, operation func() error, opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	delay := cfg.InitialDelay
	for attempt := 1; ; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		if IsFatal(err) {
			return fmt.Errorf("fatal error (not retrying): %w", err)
		}
		if attempt > cfg.MaxRetries {
			return fmt.Errorf("operation failed after %d attempts: %w", attempt, err)
		}

		wait := delay
		if hint, ok := requestedDelay(err); ok && hint > wait {
			wait = hint
		}
		if cfg.MaxDelay > 0 && wait > cfg.MaxDelay {
			wait = cfg.MaxDelay
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, wait)
		}

		if err := sleep(ctx, wait); err != nil {
			return fmt.Errorf("context cancelled after %d attempts: %w", attempt, err)
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WithMaxRetries sets the maximum number of retries.
func WithMaxRetries(n int) Option {
	return func(c *Config) {
		c.MaxRetries = n
	}
}

// WithInitialDelay sets the initial delay between retries.
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		c.InitialDelay = d
	}
}

// WithMaxDelay caps every wait, including delays requested through After.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		c.MaxDelay = d
	}
}

// WithMultiplier sets the backoff multiplier.
func WithMultiplier(m float64) Option {
	return func(c *Config) {
		c.Multiplier = m
	}
}

// WithOnRetry registers a hook invoked before every wait.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(c *Config) {
		c.OnRetry = fn
	}
}

// FatalError wraps an error to mark it as fatal (non-retryable).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal marks an error as fatal (non-retryable).
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal checks if an error is fatal (non-retryable).
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}

// AfterError is a retryable error that asks for a minimum wait, such as
// the Retry-After of a throttled AWX response.
type AfterError struct {
	Err   error
	Delay time.Duration
}

func (e *AfterError) Error() string {
	return e.Err.Error()
}

func (e *AfterError) Unwrap() error {
	return e.Err
}

// After marks err as retryable no sooner than d. A nil err or a
// non-positive d returns err unchanged.
func After(err error, d time.Duration) error {
	if err == nil || d <= 0 {
		return err
	}
	return &AfterError{Err: err, Delay: d}
}

func requestedDelay(err error) (time.Duration, bool) {
	var after *AfterError
	if errors.As(err, &after) {
		return after.Delay, true
	}
	return 0, false
}
