// Package retry wraps outbound provider calls in two independently bounded
// layers: a call-level Executor with exponential backoff, and a task-level
// TaskPolicy with linear backoff used by background workers.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Outcome tells the Executor what to do with a failed attempt.
type Outcome int

const (
	// Retry the call if attempts remain.
	Retry Outcome = iota
	// Fail immediately without further attempts.
	Fail
	// Empty ends the call successfully with the zero value (not-found).
	Empty
)

// Classifier maps an attempt error to an Outcome.
type Classifier func(err error) Outcome

// Policy bounds the call-level layer. The wait before attempt n+1 is
// Scale*2^n clamped to [Floor, Ceiling].
type Policy struct {
	MaxAttempts int
	Scale       time.Duration
	Floor       time.Duration
	Ceiling     time.Duration
}

// DefaultPolicy is 3 attempts waiting 2s then 4s, never more than 10s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Scale:       time.Second,
		Floor:       2 * time.Second,
		Ceiling:     10 * time.Second,
	}
}

func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.Scale <= 0 {
		p.Scale = def.Scale
	}
	if p.Floor < 0 {
		p.Floor = 0
	}
	if p.Ceiling <= 0 {
		p.Ceiling = def.Ceiling
	}
	if p.Floor > p.Ceiling {
		p.Floor = p.Ceiling
	}
	return p
}

// Delay returns the wait after the given 1-based failed attempt:
// Scale*2^(attempt-1) clamped to [Floor, Ceiling].
func (p Policy) Delay(attempt int) time.Duration {
	p = p.withDefaults()
	raw := float64(p.Scale) * math.Pow(2, float64(max(attempt, 1)-1))
	if raw >= float64(p.Ceiling) {
		return p.Ceiling
	}
	if d := time.Duration(raw); d > p.Floor {
		return d
	}
	return p.Floor
}

// clampedExponential adapts Policy to backoff.BackOff.
type clampedExponential struct {
	policy  Policy
	attempt int
}

func (b *clampedExponential) NextBackOff() time.Duration {
	b.attempt++
	return b.policy.Delay(b.attempt)
}

func (b *clampedExponential) Reset() { b.attempt = 0 }

// Executor runs a call under Policy. It is safe for concurrent use.
type Executor struct {
	name     string
	policy   Policy
	classify Classifier
	logger   *slog.Logger
	onRetry  func(name string, attempt int, err error, wait time.Duration)
	timer    backoff.Timer
}

type Option func(*Executor)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

func WithClassifier(c Classifier) Option {
	return func(e *Executor) { e.classify = c }
}

// WithOnRetry registers a hook called before each wait, e.g. for metrics.
func WithOnRetry(fn func(name string, attempt int, err error, wait time.Duration)) Option {
	return func(e *Executor) { e.onRetry = fn }
}

// WithTimer replaces the wall-clock timer, for tests.
func WithTimer(t backoff.Timer) Option {
	return func(e *Executor) { e.timer = t }
}

func NewExecutor(name string, policy Policy, opts ...Option) *Executor {
	e := &Executor{
		name:     name,
		policy:   policy.withDefaults(),
		classify: DefaultClassifier,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) Policy() Policy { return e.policy }

// Do runs op until it succeeds, the classifier stops it, attempts run out or
// ctx is done. Generic so callers keep their result types.
func Do[T any](ctx context.Context, e *Executor, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempt := 0

	operation := func() (T, error) {
		attempt++
		res, err := op(ctx)
		if err == nil {
			return res, nil
		}
		switch e.classify(err) {
		case Empty:
			return zero, nil
		case Fail:
			return zero, backoff.Permanent(err)
		default:
			return zero, err
		}
	}

	var b backoff.BackOff = &clampedExponential{policy: e.policy}
	b = backoff.WithMaxRetries(b, uint64(e.policy.MaxAttempts-1))
	b = backoff.WithContext(b, ctx)

	notify := func(err error, wait time.Duration) {
		e.logger.WarnContext(ctx, "retrying provider call",
			"call", e.name,
			"attempt", attempt,
			"max_attempts", e.policy.MaxAttempts,
			"wait", wait,
			"error", err,
		)
		if e.onRetry != nil {
			e.onRetry(e.name, attempt, err, wait)
		}
	}

	return backoff.RetryNotifyWithTimerAndData(operation, b, notify, e.timer)
}

type retryable interface{ Retryable() bool }
type notFound interface{ NotFound() bool }

// DefaultClassifier treats errors reporting NotFound() as empty results,
// errors reporting Retryable()==false as permanent, context errors as
// permanent, and anything else as retryable.
func DefaultClassifier(err error) Outcome {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Fail
	}
	var nf notFound
	if errors.As(err, &nf) && nf.NotFound() {
		return Empty
	}
	var r retryable
	if errors.As(err, &r) && !r.Retryable() {
		return Fail
	}
	return Retry
}
