// Package requestcontext provides transport-independent accessors for
// values that are set at the edge (HTTP middleware, queue consumer) and read
// by services.
//
//	ctx = requestcontext.WithRequestID(ctx, "req-1")
//	ctx = requestcontext.WithTime(ctx, fixedNow) // tests
//	now := requestcontext.Now(ctx)
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey   struct{}
	requestTimeKey struct{}
	taskAttemptKey struct{}
)

// RequestID returns the correlation ID, or "".
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now returns the time pinned in ctx, falling back to the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now().UTC()
}

// WithTime pins "now" for everything downstream of ctx.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// TaskAttempt returns the 1-based background task attempt, or 0 for
// synchronous calls.
func TaskAttempt(ctx context.Context) int {
	if v, ok := ctx.Value(taskAttemptKey{}).(int); ok {
		return v
	}
	return 0
}

func WithTaskAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, taskAttemptKey{}, attempt)
}
