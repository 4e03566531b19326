package models

import (
	"time"

	id "leadflow/pkg/domain"
)

type ProspectingResult struct {
	Found   int `json:"found"`
	Created int `json:"created"`
}

type QualificationResult struct {
	Qualified int `json:"qualified"`
	Rejected  int `json:"rejected"`
}

type SchedulingResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Report is the outcome of one run. Success is false whenever a
// precondition failed or an error escaped a phase.
type Report struct {
	Success       bool                `json:"success"`
	CampaignID    id.CampaignID       `json:"campaign_id"`
	Prospecting   ProspectingResult   `json:"prospecting"`
	Qualification QualificationResult `json:"qualification"`
	Scheduling    SchedulingResult    `json:"scheduling"`
	Error         string              `json:"error,omitempty"`
	// Code is the domain error code of a failed run.
	Code string `json:"code,omitempty"`
}

// RunState is the live snapshot of a run kept in the cache.
type RunState struct {
	CampaignID id.CampaignID `json:"campaign_id"`
	Status     Status        `json:"status"`
	Phase      Phase         `json:"phase,omitempty"`
	Running    bool          `json:"running"`
	Report     Report        `json:"report"`
	UpdatedAt  time.Time     `json:"updated_at"`
}
