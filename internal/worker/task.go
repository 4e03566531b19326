package worker

import (
	"encoding/json"
	"fmt"
	"time"

	id "leadflow/pkg/domain"
	dErrors "leadflow/pkg/domain-errors"
)

// TaskRunCampaign is the only task type on the campaign topic.
const TaskRunCampaign = "run_campaign"

// Task is the wire form of a queued campaign run:
//
//	{"task":"run_campaign","campaign_id":"…","attempt":1}
//
// NotBefore is set on re-enqueued attempts that were flushed before their
// backoff elapsed.
type Task struct {
	Task       string        `json:"task"`
	CampaignID id.CampaignID `json:"campaign_id"`
	Attempt    int           `json:"attempt"`
	NotBefore  *time.Time    `json:"not_before,omitempty"`
}

func NewRunCampaignTask(campaignID id.CampaignID) Task {
	return Task{Task: TaskRunCampaign, CampaignID: campaignID, Attempt: 1}
}

func (t Task) Encode() ([]byte, error) {
	return json.Marshal(t)
}

// DecodeTask parses and validates a queued task. Attempt defaults to 1.
func DecodeTask(raw []byte) (Task, error) {
	var t Task
	if err := json.Unmarshal(raw, &t); err != nil {
		return Task{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed task payload")
	}
	if t.Task != TaskRunCampaign {
		return Task{}, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown task %q", t.Task))
	}
	if t.CampaignID.IsNil() {
		return Task{}, dErrors.New(dErrors.CodeBadRequest, "task is missing campaign_id")
	}
	if t.Attempt < 1 {
		t.Attempt = 1
	}
	return t, nil
}
