// Package kafka wraps franz-go for the task queue and the audit relay.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"leadflow/internal/platform/config"
)

// Message is a consumed record stripped to what handlers need.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
}

// Handler processes one message. Returned errors are logged; the offset is
// committed regardless, so handlers own their retry policy.
type Handler func(ctx context.Context, msg Message) error

type Client struct {
	cl     *kgo.Client
	logger *slog.Logger
}

type Option func(*options)

type options struct {
	logger  *slog.Logger
	group   string
	topics  []string
	extraKG []kgo.Opt
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithConsumerGroup makes the client a group member consuming topics.
// Offsets are committed manually after each polled batch.
func WithConsumerGroup(group string, topics ...string) Option {
	return func(o *options) {
		o.group = group
		o.topics = topics
	}
}

// WithKgoOpts passes raw franz-go options through.
func WithKgoOpts(opts ...kgo.Opt) Option {
	return func(o *options) { o.extraKG = append(o.extraKG, opts...) }
}

func New(cfg config.KafkaConfig, opts ...Option) (*Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	kopts := []kgo.Opt{kgo.SeedBrokers(cfg.Brokers...)}
	if o.group != "" {
		kopts = append(kopts,
			kgo.ConsumerGroup(o.group),
			kgo.ConsumeTopics(o.topics...),
			kgo.DisableAutoCommit(),
		)
	}
	kopts = append(kopts, o.extraKG...)

	cl, err := kgo.NewClient(kopts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Client{cl: cl, logger: o.logger}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.cl.Ping(ctx)
}

// EnsureTopics creates any missing topics. Existing topics are left as is.
func (c *Client) EnsureTopics(ctx context.Context, partitions int32, replication int16, topics ...string) error {
	adm := kadm.NewClient(c.cl)
	resps, err := adm.CreateTopics(ctx, partitions, replication, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for topic, resp := range resps {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", topic, resp.Err)
		}
	}
	return nil
}

// Publish produces one record and waits for the broker acknowledgement.
func (c *Client) Publish(ctx context.Context, topic, key string, value []byte) error {
	rec := &kgo.Record{Topic: topic, Value: value}
	if key != "" {
		rec.Key = []byte(key)
	}
	if err := c.cl.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

// Consume polls until ctx is cancelled or the client is closed. Records in
// a batch are handled in order, then the batch offsets are committed.
func (c *Client) Consume(ctx context.Context, handle Handler) error {
	for {
		fetches := c.cl.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, fe := range fetches.Errors() {
			c.logger.WarnContext(ctx, "kafka fetch error",
				"topic", fe.Topic,
				"partition", fe.Partition,
				"error", fe.Err,
			)
		}
		fetches.EachRecord(func(r *kgo.Record) {
			msg := Message{
				Topic:     r.Topic,
				Partition: r.Partition,
				Offset:    r.Offset,
				Key:       r.Key,
				Value:     r.Value,
			}
			if err := handle(ctx, msg); err != nil {
				c.logger.ErrorContext(ctx, "kafka message handler failed",
					"topic", r.Topic,
					"offset", r.Offset,
					"error", err,
				)
			}
		})
		if err := c.cl.CommitUncommittedOffsets(ctx); err != nil && ctx.Err() == nil {
			c.logger.WarnContext(ctx, "kafka commit failed", "error", err)
		}
	}
}

func (c *Client) Close() {
	c.cl.Close()
}
