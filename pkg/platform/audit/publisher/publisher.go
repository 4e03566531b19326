// Package publisher fronts an audit.Store. In sync mode Emit writes through;
// with WithAsyncBuffer events are queued and written by a background
// goroutine, and Close drains the queue.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	audit "leadflow/pkg/platform/audit"
	"leadflow/pkg/requestcontext"
)

var ErrBufferFull = errors.New("audit buffer full")

type lister interface {
	ListByAggregate(ctx context.Context, aggregateID string) ([]audit.Event, error)
}

type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	queue chan audit.Event
	wg    sync.WaitGroup
	once  sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer enables async mode with a queue of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.queue = make(chan audit.Event, n)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.queue != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit stamps the event with time, category and request ID where unset,
// then stores or enqueues it. A full async queue drops the event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if p.queue == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"action", event.Action,
			"aggregate_id", event.AggregateID,
		)
		return ErrBufferFull
	}
}

// List reads back one aggregate's events when the store supports it.
func (p *Publisher) List(ctx context.Context, aggregateID string) ([]audit.Event, error) {
	l, ok := p.store.(lister)
	if !ok {
		return nil, errors.New("audit store does not support listing")
	}
	return l.ListByAggregate(ctx, aggregateID)
}

// Close stops accepting async events and waits for the queue to drain.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.queue != nil {
			close(p.queue)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.store.Append(ctx, event); err != nil {
			p.logger.Error("failed to persist audit event",
				"action", event.Action,
				"aggregate_id", event.AggregateID,
				"error", err,
			)
		}
		cancel()
	}
}
