package readiness

import (
	"context"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/vsops/vsbootstrap/internal/provisioning"
	"github.com/vsops/vsbootstrap/internal/util/retry"
)

// Kind selects the built-in probe for a Target.
type Kind string

// Target kinds.
const (
	KindPods  Kind = "pods"
	KindNodes Kind = "nodes"
)

// DefaultMaxFallbackSleep caps the fallback sleep growth.
const DefaultMaxFallbackSleep = 5 * time.Minute

// Target is one condition to wait for.
type Target struct {
	Name      string
	Namespace string
	// Selector is a label selector. Empty for nodes.
	Selector string
	Kind     Kind
	// Probe, if set, replaces the Kind probe.
	Probe retry.Condition

	Timeout  time.Duration
	Interval time.Duration
	// MaxAttempts bounds the checks of the first pass.
	MaxAttempts int
	// PollBackoff grows Interval after each evaluation, up to MaxInterval.
	PollBackoff float64
	MaxInterval time.Duration

	FallbackAttempts int
	FallbackSleep    time.Duration
	// Backoff multiplies FallbackSleep after each pass, up to MaxFallbackSleep.
	Backoff          float64
	MaxFallbackSleep time.Duration

	// Fatal targets abort the run when they never become ready.
	Fatal bool
}

// Result is the terminal state of a Wait.
type Result struct {
	Target   string
	Outcome  provisioning.Outcome
	Attempts int
	Duration time.Duration
	// Err is set for every failed outcome. It wraps
	// provisioning.ErrReadinessTimeout when the target timed out.
	Err error
}

// Ready reports whether the target became ready.
func (r Result) Ready() bool {
	return !r.Outcome.Failed()
}

// Poller waits for Targets.
type Poller struct {
	Cluster provisioning.Cluster
}

// NewPoller creates a Poller. cluster may be nil when every Target carries
// its own Probe.
func NewPoller(cluster provisioning.Cluster) *Poller {
	return &Poller{Cluster: cluster}
}

// Wait polls t until it is ready or its fallback passes are exhausted.
// A cancelled context ends the wait as failed-fatal.
func (p *Poller) Wait(ctx context.Context, t Target) Result {
	log := clog.FromContext(ctx).With("target", t.Name)
	start := time.Now()
	result := Result{Target: t.Name}

	cond, err := p.condition(t)
	if err != nil {
		result.Outcome = provisioning.OutcomeFailedFatal
		result.Err = provisioning.NewStepError(t.Name, err)
		return result
	}

	log.Info("waiting for readiness", "timeout", t.Timeout, "interval", t.Interval)
	res, err := retry.Poll(ctx, cond,
		retry.WithInterval(t.Interval),
		retry.WithTimeout(t.Timeout),
		retry.WithMaxAttempts(t.MaxAttempts),
		retry.WithBackoff(t.PollBackoff, t.MaxInterval))
	result.Attempts = res.Attempts
	if err == nil {
		result.Duration = time.Since(start)
		result.Outcome = provisioning.OutcomeNewlySatisfied
		if res.Immediate {
			result.Outcome = provisioning.OutcomeAlreadySatisfied
		}
		log.Info("ready", "attempts", result.Attempts, "duration", result.Duration.Round(time.Millisecond))
		return result
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return p.cancelled(t, result, start, ctxErr)
	}

	lastErr := res.LastErr
	if !retry.IsFatal(lastErr) {
		sleep := t.FallbackSleep
		for pass := 1; pass <= t.FallbackAttempts; pass++ {
			log.Warn("not ready before timeout, waiting before another check",
				"pass", pass, "of", t.FallbackAttempts, "sleep", sleep)
			if err := retry.Sleep(ctx, sleep); err != nil {
				return p.cancelled(t, result, start, err)
			}
			result.Attempts++
			ok, perr := cond(ctx)
			if ok {
				result.Duration = time.Since(start)
				result.Outcome = provisioning.OutcomeNewlySatisfied
				log.Info("ready after fallback wait", "pass", pass)
				return result
			}
			if perr != nil {
				lastErr = perr
			}
			sleep = grow(sleep, t.Backoff, t.MaxFallbackSleep)
		}
	}

	result.Duration = time.Since(start)
	cause := fmt.Errorf("%w: %s after %d attempts",
		provisioning.ErrReadinessTimeout, t.Name, result.Attempts)
	if lastErr != nil {
		cause = fmt.Errorf("%w: %w", cause, lastErr)
	}

	if t.Fatal {
		log.Error("not ready, giving up", "attempts", result.Attempts, "error", lastErr)
		result.Outcome = provisioning.OutcomeFailedFatal
		result.Err = provisioning.NewStepError(t.Name, cause)
		return result
	}
	log.Warn("not ready, continuing without it", "attempts", result.Attempts, "error", lastErr)
	result.Outcome = provisioning.OutcomeFailedWarned
	result.Err = cause
	return result
}

func (p *Poller) cancelled(t Target, result Result, start time.Time, err error) Result {
	result.Duration = time.Since(start)
	result.Outcome = provisioning.OutcomeFailedFatal
	result.Err = provisioning.NewStepError(t.Name, fmt.Errorf("wait cancelled: %w", err))
	return result
}

func (p *Poller) condition(t Target) (retry.Condition, error) {
	if t.Probe != nil {
		return t.Probe, nil
	}
	if p.Cluster == nil {
		return nil, fmt.Errorf("target %s needs cluster access", t.Name)
	}
	switch t.Kind {
	case KindNodes:
		return p.Cluster.NodesReady, nil
	case KindPods:
		return func(ctx context.Context) (bool, error) {
			return p.Cluster.PodsReady(ctx, t.Namespace, t.Selector)
		}, nil
	default:
		return nil, fmt.Errorf("target %s has unknown kind %q", t.Name, t.Kind)
	}
}

func grow(d time.Duration, factor float64, max time.Duration) time.Duration {
	if factor <= 1 {
		return d
	}
	next := time.Duration(float64(d) * factor)
	if max > 0 && next > max {
		return max
	}
	return next
}
