// Package worker consumes queued campaign runs on a bounded pool and applies
// the task-level retry policy: a failed run is re-enqueued with a linear
// backoff until its attempts are spent.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	campaignmodels "leadflow/internal/campaign/models"
	"leadflow/internal/platform/kafka"
	"leadflow/internal/platform/metrics"
	"leadflow/internal/retry"
	id "leadflow/pkg/domain"
	"leadflow/pkg/requestcontext"
)

// Task outcomes, as exported on leadflow_tasks_consumed_total.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeRetried   = "retried"
	OutcomeExhausted = "exhausted"
	OutcomeDeferred  = "deferred"
	OutcomeInvalid   = "invalid"
)

const (
	defaultConcurrency = 4
	flushTimeout       = 5 * time.Second
)

type Runner interface {
	Run(ctx context.Context, campaignID id.CampaignID) campaignmodels.Report
}

// ConsumeFunc feeds messages to handle until ctx ends. kafka.Client.Consume
// satisfies it.
type ConsumeFunc func(ctx context.Context, handle kafka.Handler) error

type Worker struct {
	runner      Runner
	producer    *Producer
	policy      retry.TaskPolicy
	concurrency int
	metrics     *metrics.Metrics
	now         func() time.Time
	logger      *slog.Logger
	delayed     sync.WaitGroup
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

// WithConcurrency bounds how many campaign runs execute at once.
func WithConcurrency(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

func WithTaskPolicy(p retry.TaskPolicy) Option {
	return func(w *Worker) { w.policy = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) { w.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

func New(runner Runner, producer *Producer, opts ...Option) *Worker {
	w := &Worker{
		runner:      runner,
		producer:    producer,
		policy:      retry.DefaultTaskPolicy(),
		concurrency: defaultConcurrency,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes until ctx ends, then waits for in-flight runs and flushes
// pending retries back to the topic.
func (w *Worker) Run(ctx context.Context, consume ConsumeFunc) error {
	var g errgroup.Group
	g.SetLimit(w.concurrency)

	err := consume(ctx, func(ctx context.Context, msg kafka.Message) error {
		task, err := DecodeTask(msg.Value)
		if err != nil {
			w.metrics.IncrementTask(OutcomeInvalid)
			return err
		}
		g.Go(func() error {
			w.process(ctx, task)
			return nil
		})
		return nil
	})

	_ = g.Wait()
	w.delayed.Wait()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func (w *Worker) process(ctx context.Context, task Task) {
	now := w.now()
	if task.NotBefore != nil && task.NotBefore.After(now) {
		w.metrics.IncrementTask(OutcomeDeferred)
		w.schedule(ctx, task)
		return
	}

	runCtx := requestcontext.WithTaskAttempt(ctx, task.Attempt)
	report := w.runner.Run(runCtx, task.CampaignID)
	if report.Success {
		w.metrics.IncrementTask(OutcomeSucceeded)
		return
	}

	if !w.policy.ShouldRetry(task.Attempt) {
		w.metrics.IncrementTask(OutcomeExhausted)
		w.logger.ErrorContext(ctx, "campaign task exhausted retries",
			"campaign_id", task.CampaignID.String(),
			"attempt", task.Attempt,
			"error", report.Error,
		)
		return
	}

	delay := w.policy.Delay(task.Attempt)
	notBefore := now.Add(delay)
	next := Task{
		Task:       TaskRunCampaign,
		CampaignID: task.CampaignID,
		Attempt:    task.Attempt + 1,
		NotBefore:  &notBefore,
	}
	w.metrics.IncrementTask(OutcomeRetried)
	w.logger.WarnContext(ctx, "campaign task failed, retrying",
		"campaign_id", task.CampaignID.String(),
		"attempt", task.Attempt,
		"next_attempt", next.Attempt,
		"delay", delay.String(),
		"error", report.Error,
	)
	w.schedule(ctx, next)
}

// schedule republishes task once NotBefore passes. If ctx ends first the
// task is published right away with NotBefore intact, so the next consumer
// honours the remaining delay.
func (w *Worker) schedule(ctx context.Context, task Task) {
	w.delayed.Add(1)
	go func() {
		defer w.delayed.Done()
		if task.NotBefore != nil {
			if wait := task.NotBefore.Sub(w.now()); wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
				}
			}
		}
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
		defer cancel()
		if err := w.producer.publish(pubCtx, task); err != nil {
			w.logger.ErrorContext(ctx, "failed to re-enqueue campaign task",
				"campaign_id", task.CampaignID.String(),
				"attempt", task.Attempt,
				"error", err,
			)
		}
	}()
}
