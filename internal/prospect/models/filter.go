package models

import (
	"slices"

	id "leadflow/pkg/domain"
)

// ProspectFilter narrows a prospect listing. Zero-valued fields match
// everything; Limit <= 0 means no limit.
type ProspectFilter struct {
	TenantID   id.TenantID
	CampaignID id.CampaignID
	Statuses   []Status
	Email      string
	MinScore   *int
	MaxScore   *int
	Limit      int
}

// Matches applies the filter in memory. Score bounds never match an
// unscored prospect.
func (f ProspectFilter) Matches(p *Prospect) bool {
	if !f.TenantID.IsNil() && p.TenantID != f.TenantID {
		return false
	}
	if !f.CampaignID.IsNil() && p.CampaignID != f.CampaignID {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, p.Status) {
		return false
	}
	if f.Email != "" && p.Email != f.Email {
		return false
	}
	if f.MinScore != nil && (p.Score == nil || *p.Score < *f.MinScore) {
		return false
	}
	if f.MaxScore != nil && (p.Score == nil || *p.Score > *f.MaxScore) {
		return false
	}
	return true
}
