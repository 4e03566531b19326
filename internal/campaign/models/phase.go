package models

import (
	"encoding/json"
	"time"

	id "leadflow/pkg/domain"
)

type Phase string

const (
	PhaseProspecting   Phase = "prospecting"
	PhaseQualification Phase = "qualification"
	PhaseScheduling    Phase = "scheduling"
)

type PhaseStatus string

const (
	PhaseStatusPending   PhaseStatus = "pending"
	PhaseStatusRunning   PhaseStatus = "running"
	PhaseStatusCompleted PhaseStatus = "completed"
	PhaseStatusFailed    PhaseStatus = "failed"
	PhaseStatusCanceled  PhaseStatus = "canceled"
)

// PhaseExecution records one phase of one run.
type PhaseExecution struct {
	ID           id.PhaseExecutionID `json:"id"`
	CampaignID   id.CampaignID       `json:"campaign_id"`
	Phase        Phase               `json:"phase"`
	Status       PhaseStatus         `json:"status"`
	Input        json.RawMessage     `json:"input,omitempty"`
	Output       json.RawMessage     `json:"output,omitempty"`
	ErrorMessage string              `json:"error_message,omitempty"`
	StartedAt    *time.Time          `json:"started_at,omitempty"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
	DurationMS   int64               `json:"duration_ms"`
	RetryCount   int                 `json:"retry_count"`
}

// NewPhaseExecution starts a running record. retryCount is the task-level
// attempt that produced this run, 0 for the first.
func NewPhaseExecution(campaignID id.CampaignID, phase Phase, input any, retryCount int, now time.Time) *PhaseExecution {
	started := now
	return &PhaseExecution{
		ID:         id.NewPhaseExecutionID(),
		CampaignID: campaignID,
		Phase:      phase,
		Status:     PhaseStatusRunning,
		Input:      marshalSnapshot(input),
		StartedAt:  &started,
		RetryCount: retryCount,
	}
}

func (p *PhaseExecution) Complete(output any, now time.Time) {
	p.Status = PhaseStatusCompleted
	p.Output = marshalSnapshot(output)
	p.finish(now)
}

func (p *PhaseExecution) Fail(err error, now time.Time) {
	p.Status = PhaseStatusFailed
	if err != nil {
		p.ErrorMessage = err.Error()
	}
	p.finish(now)
}

func (p *PhaseExecution) finish(now time.Time) {
	completed := now
	p.CompletedAt = &completed
	if p.StartedAt != nil {
		p.DurationMS = now.Sub(*p.StartedAt).Milliseconds()
	}
}

func marshalSnapshot(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
