// Package audit records lifecycle events for prospects and campaigns. Events
// are emitted by services through a Publisher and persisted by a Store; the
// Postgres store writes to a transactional outbox that is relayed to Kafka.
package audit

import (
	"context"
	"time"

	id "leadflow/pkg/domain"
)

// EventCategory separates per-entity lifecycle history from run-level
// operational events, which can be retained for less time.
type EventCategory string

const (
	CategoryLifecycle  EventCategory = "lifecycle"
	CategoryOperations EventCategory = "operations"
)

// AggregateType names the entity an event belongs to.
type AggregateType string

const (
	AggregateProspect AggregateType = "prospect"
	AggregateCampaign AggregateType = "campaign"
)

// Event is transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category      EventCategory     `json:"category"`
	Timestamp     time.Time         `json:"timestamp"`
	TenantID      id.TenantID       `json:"tenant_id"`
	AggregateType AggregateType     `json:"aggregate_type"`
	AggregateID   string            `json:"aggregate_id"`
	Action        string            `json:"action"`
	From          string            `json:"from,omitempty"`
	To            string            `json:"to,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	RequestID     string            `json:"request_id,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

type AuditEvent string

const (
	EventProspectCreated      AuditEvent = "prospect_created"
	EventProspectTransitioned AuditEvent = "prospect_transitioned"
	EventProspectScored       AuditEvent = "prospect_scored"
	EventProspectIntent       AuditEvent = "prospect_intent_recorded"

	EventCampaignCreated   AuditEvent = "campaign_created"
	EventCampaignUpdated   AuditEvent = "campaign_updated"
	EventCampaignLaunched  AuditEvent = "campaign_launched"
	EventCampaignStarted   AuditEvent = "campaign_run_started"
	EventCampaignCompleted AuditEvent = "campaign_run_completed"
	EventCampaignPaused    AuditEvent = "campaign_paused"
	EventCampaignArchived  AuditEvent = "campaign_archived"
	EventPhaseFailed       AuditEvent = "campaign_phase_failed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventProspectCreated:      CategoryLifecycle,
	EventProspectTransitioned: CategoryLifecycle,
	EventProspectScored:       CategoryLifecycle,
	EventProspectIntent:       CategoryLifecycle,
	EventCampaignCreated:      CategoryLifecycle,
	EventCampaignUpdated:      CategoryLifecycle,
	EventCampaignLaunched:     CategoryLifecycle,
	EventCampaignArchived:     CategoryLifecycle,
	EventCampaignPaused:       CategoryLifecycle,

	EventCampaignStarted:   CategoryOperations,
	EventCampaignCompleted: CategoryOperations,
	EventPhaseFailed:       CategoryOperations,
}

// Category returns the category for this event; unknown events are
// operational.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
