package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// ErrTimeout is returned by Poll when the condition is not met in time.
var ErrTimeout = errors.New("condition not met before timeout")

// Config holds retry configuration.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Option is a functional option for retry configuration.
type Option func(*Config)

// WithExponentialBackoff executes the operation with exponential backoff retry.
// It retries the operation up to MaxRetries times, with exponentially increasing
// delays between attempts. Context cancellation is respected throughout.
//
// Errors wrapped with Fatal() are not retried.
func WithExponentialBackoff(ctx context.Context, operation func() error, opts ...Option) error {
	cfg := &Config{
		MaxRetries:   5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err

		if IsFatal(err) {
			return fmt.Errorf("fatal error (not retrying): %w", err)
		}

		if attempt < cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled after %d attempts: %w", attempt+1, ctx.Err())
			case <-time.After(delay):
				delay = nextDelay(delay, cfg.Multiplier, cfg.MaxDelay)
			}
		}
	}

	return fmt.Errorf("operation failed after %d retries: %w", cfg.MaxRetries+1, lastErr)
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

// WithMaxDelay sets the maximum delay between retries.
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

// Condition reports whether a polled state has been reached.
// A non-nil error is treated as "not yet" unless it is marked with Fatal.
type Condition func(ctx context.Context) (bool, error)

// PollConfig holds polling configuration.
type PollConfig struct {
	Interval    time.Duration
	Timeout     time.Duration
	MaxAttempts int // 0 means bounded by Timeout only
	Multiplier  float64
	MaxInterval time.Duration
}

// PollOption is a functional option for Poll.
type PollOption func(*PollConfig)

// PollResult describes how a Poll call ended.
type PollResult struct {
	Attempts int
	// Immediate is true when the first evaluation already succeeded.
	Immediate bool
	LastErr   error
}

// Poll evaluates condition immediately and then every Interval until it
// returns true, the Timeout elapses, or MaxAttempts evaluations were made.
// The interval grows by Multiplier after each attempt, capped at MaxInterval.
//
// On timeout the returned error wraps ErrTimeout and, if present, the last
// condition error. A Fatal condition error stops polling at once.
func Poll(ctx context.Context, condition Condition, opts ...PollOption) (PollResult, error) {
	cfg := &PollConfig{
		Interval:    5 * time.Second,
		Timeout:     2 * time.Minute,
		Multiplier:  1.0,
		MaxInterval: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var res PollResult
	cond := func(ctx context.Context) (bool, error) {
		res.Attempts++
		ok, err := condition(ctx)
		if ok {
			res.Immediate = res.Attempts == 1
			return true, nil
		}
		if err != nil {
			res.LastErr = err
			if IsFatal(err) {
				return false, err
			}
		}
		return false, nil
	}

	err := poll(ctx, cfg, func() int { return res.Attempts }, cond)
	switch {
	case err == nil:
		return res, nil
	case IsFatal(err):
		return res, fmt.Errorf("fatal error (not polling): %w", err)
	case ctx.Err() != nil:
		return res, fmt.Errorf("context cancelled after %d attempts: %w", res.Attempts, ctx.Err())
	case wait.Interrupted(err):
		return res, timeoutError(res)
	default:
		return res, err
	}
}

// poll picks the wait loop matching cfg. Fixed intervals run on
// wait.PollUntilContextTimeout, attempt-bounded polls on
// wait.ExponentialBackoffWithContext and growing intervals without an
// attempt bound on a capped Backoff delay.
func poll(ctx context.Context, cfg *PollConfig, attempts func() int, cond wait.ConditionWithContextFunc) error {
	if cfg.MaxAttempts <= 0 && cfg.Multiplier <= 1 {
		return wait.PollUntilContextTimeout(ctx, cfg.Interval, cfg.Timeout, true, cond)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	b := wait.Backoff{Duration: cfg.Interval, Steps: math.MaxInt32}
	if cfg.Multiplier > 1 {
		b.Factor = cfg.Multiplier
		b.Cap = cfg.MaxInterval
	}
	if cfg.MaxAttempts <= 0 {
		return b.DelayFunc().Until(ctx, true, false, cond)
	}

	b.Steps = cfg.MaxAttempts
	err := wait.ExponentialBackoffWithContext(ctx, b, cond)
	// Reaching Cap ends a Backoff's steps; spend the rest at the cap.
	if left := cfg.MaxAttempts - attempts(); left > 0 && wait.Interrupted(err) && ctx.Err() == nil {
		err = wait.ExponentialBackoffWithContext(ctx, wait.Backoff{Duration: b.Cap, Steps: left}, cond)
	}
	return err
}

// WithInterval sets the delay between condition evaluations.
func WithInterval(d time.Duration) PollOption {
	return func(c *PollConfig) {
		c.Interval = d
	}
}

// WithTimeout sets the overall polling deadline.
func WithTimeout(d time.Duration) PollOption {
	return func(c *PollConfig) {
		c.Timeout = d
	}
}

// WithMaxAttempts bounds the number of condition evaluations.
func WithMaxAttempts(n int) PollOption {
	return func(c *PollConfig) {
		c.MaxAttempts = n
	}
}

// WithBackoff makes the interval grow by m after each attempt, up to max.
func WithBackoff(m float64, max time.Duration) PollOption {
	return func(c *PollConfig) {
		c.Multiplier = m
		c.MaxInterval = max
	}
}

// Sleep blocks for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func timeoutError(res PollResult) error {
	if res.LastErr != nil {
		return fmt.Errorf("%w after %d attempts: %w", ErrTimeout, res.Attempts, res.LastErr)
	}
	return fmt.Errorf("%w after %d attempts", ErrTimeout, res.Attempts)
}

func nextDelay(cur time.Duration, multiplier float64, max time.Duration) time.Duration {
	if multiplier <= 1 {
		return cur
	}
	next := time.Duration(float64(cur) * multiplier)
	if max > 0 && next > max {
		next = max
	}
	return next
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
// Operations that encounter fatal errors will not be retried.
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
