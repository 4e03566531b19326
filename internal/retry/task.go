package retry

import "time"

// TaskPolicy bounds the task-level layer applied by background workers. It is
// independent of the call-level Policy: a task attempt may itself contain
// several call-level attempts.
type TaskPolicy struct {
	MaxAttempts int
	Base        time.Duration
}

// DefaultTaskPolicy retries a failed task twice, 60s then 120s later.
func DefaultTaskPolicy() TaskPolicy {
	return TaskPolicy{MaxAttempts: 3, Base: time.Minute}
}

// ShouldRetry reports whether another attempt follows the given 1-based
// failed attempt.
func (p TaskPolicy) ShouldRetry(attempt int) bool {
	max := p.MaxAttempts
	if max <= 0 {
		max = DefaultTaskPolicy().MaxAttempts
	}
	return attempt < max
}

// Delay is the linear countdown before the next attempt: Base * attempt.
func (p TaskPolicy) Delay(attempt int) time.Duration {
	base := p.Base
	if base <= 0 {
		base = DefaultTaskPolicy().Base
	}
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(attempt)
}
