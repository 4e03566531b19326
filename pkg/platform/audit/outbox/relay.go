// Package outbox relays audit rows written by the Postgres audit store to a
// message broker. Rows are published in creation order and marked once the
// broker acknowledges them; a crash between the two publishes again, so
// consumers must tolerate duplicates.
package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Entry is one unpublished outbox row.
type Entry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}

// Source reads pending rows and records their publication.
type Source interface {
	Pending(ctx context.Context, limit int) ([]Entry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Producer delivers a keyed message to a topic.
type Producer interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

type Relay struct {
	source    Source
	producer  Producer
	topic     string
	batchSize int
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
	onPublish func(n int)
}

type Option func(*Relay)

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(r *Relay) { r.now = now }
}

// WithOnPublished registers a hook called with the size of each marked
// batch.
func WithOnPublished(fn func(n int)) Option {
	return func(r *Relay) { r.onPublish = fn }
}

func NewRelay(source Source, producer Producer, topic string, opts ...Option) *Relay {
	r := &Relay{
		source:    source,
		producer:  producer,
		topic:     topic,
		batchSize: 100,
		interval:  time.Second,
		logger:    slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunOnce publishes one batch. It stops at the first publish failure and
// marks only the rows that went out before it, so ordering per aggregate
// is kept on the next pass.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	entries, err := r.source.Pending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	published := make([]uuid.UUID, 0, len(entries))
	var publishErr error
	for _, e := range entries {
		if err := r.producer.Publish(ctx, r.topic, e.AggregateID, e.Payload); err != nil {
			publishErr = err
			r.logger.WarnContext(ctx, "outbox publish failed",
				"outbox_id", e.ID.String(),
				"event_type", e.EventType,
				"error", err,
			)
			break
		}
		published = append(published, e.ID)
	}

	if len(published) > 0 {
		if err := r.source.MarkPublished(ctx, published, r.now()); err != nil {
			return 0, err
		}
		if r.onPublish != nil {
			r.onPublish(len(published))
		}
	}
	return len(published), publishErr
}

// Run polls until ctx is done. A full batch is followed immediately by
// another pass; otherwise the relay waits one interval.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		n, err := r.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "outbox relay pass failed", "error", err)
		}
		if err == nil && n == r.batchSize {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
