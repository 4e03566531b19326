package worker

import (
	"context"
	"fmt"

	"leadflow/internal/platform/metrics"
	id "leadflow/pkg/domain"
)

// Publisher writes one record to a topic. The kafka client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

// Producer enqueues campaign runs. Records are keyed by campaign so one
// campaign's tasks stay on one partition.
type Producer struct {
	pub     Publisher
	topic   string
	metrics *metrics.Metrics
}

func NewProducer(pub Publisher, topic string, m *metrics.Metrics) *Producer {
	return &Producer{pub: pub, topic: topic, metrics: m}
}

// Enqueue schedules the first attempt of a campaign run.
func (p *Producer) Enqueue(ctx context.Context, campaignID id.CampaignID) error {
	return p.publish(ctx, NewRunCampaignTask(campaignID))
}

func (p *Producer) publish(ctx context.Context, t Task) error {
	body, err := t.Encode()
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	if err := p.pub.Publish(ctx, p.topic, t.CampaignID.String(), body); err != nil {
		return fmt.Errorf("enqueue campaign %s: %w", t.CampaignID, err)
	}
	p.metrics.IncrementEnqueued()
	return nil
}
