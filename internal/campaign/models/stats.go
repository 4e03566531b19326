package models

import (
	"time"

	id "leadflow/pkg/domain"
)

type LeadCounts struct {
	Total     int `json:"total"`
	Qualified int `json:"qualified"`
	Rejected  int `json:"rejected"`
}

type EmailCounts struct {
	Sent int `json:"sent"`
}

type ScoreSummary struct {
	AverageScore float64 `json:"average_score"`
	Threshold    int     `json:"threshold"`
}

// Stats summarizes a campaign's prospects across all runs. Qualified counts
// every prospect that reached qualified or later; Sent counts prospects
// that reached contacted or later. AverageScore ignores unscored prospects
// and is 0 when none are scored.
type Stats struct {
	CampaignID  id.CampaignID `json:"campaign_id"`
	Status      Status        `json:"status"`
	Leads       LeadCounts    `json:"leads"`
	Emails      EmailCounts   `json:"emails"`
	Scoring     ScoreSummary  `json:"bant"`
	StartedAt   *time.Time    `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at"`
}
