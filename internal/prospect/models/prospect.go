package models

import (
	"fmt"
	"strings"
	"time"

	id "leadflow/pkg/domain"
	dErrors "leadflow/pkg/domain-errors"
	pstrings "leadflow/pkg/platform/strings"
)

// DefaultSource tags prospects whose origin was not reported.
const DefaultSource = "rocketreach"

// Prospect is a contact pursued by one campaign.
//
// Invariants:
//   - (CampaignID, Email) is unique; Email is stored normalised
//   - CampaignID and TenantID never change after construction
//   - Score and Breakdown are nil until the qualification phase scores it
//   - Status only moves along the lifecycle table via Transition
type Prospect struct {
	ID              id.ProspectID  `json:"id"`
	CampaignID      id.CampaignID  `json:"campaign_id"`
	TenantID        id.TenantID    `json:"tenant_id"`
	Email           string         `json:"email"`
	FirstName       string         `json:"first_name,omitempty"`
	LastName        string         `json:"last_name,omitempty"`
	Phone           string         `json:"phone,omitempty"`
	JobTitle        string         `json:"job_title,omitempty"`
	CompanyName     string         `json:"company_name,omitempty"`
	CompanyIndustry string         `json:"company_industry,omitempty"`
	CompanySize     string         `json:"company_size,omitempty"`
	Location        string         `json:"location,omitempty"`
	LinkedInURL     string         `json:"linkedin_url,omitempty"`
	EnrichmentData  map[string]any `json:"enrichment_data,omitempty"`
	Score           *int           `json:"score,omitempty"`
	Breakdown       *Breakdown     `json:"breakdown,omitempty"`
	Intent          *Intent        `json:"intent,omitempty"`
	Status          Status         `json:"status"`
	Source          string         `json:"source"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Breakdown is the four-part qualification score, each part 0..25.
type Breakdown struct {
	Budget    int `json:"budget"`
	Authority int `json:"authority"`
	Need      int `json:"need"`
	Timeline  int `json:"timeline"`
}

func (b Breakdown) Total() int {
	return b.Budget + b.Authority + b.Need + b.Timeline
}

// NewProspect builds a prospect from a sourced record in the given status.
// Prospecting creates prospects directly as enriched.
func NewProspect(campaignID id.CampaignID, tenantID id.TenantID, rec Record, status Status, now time.Time) (*Prospect, error) {
	email := pstrings.NormalizeEmail(rec.Email)
	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "prospect email is required")
	}
	if campaignID.IsNil() || tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "prospect requires campaign and tenant")
	}
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown prospect status %q", status))
	}
	source := strings.TrimSpace(rec.Source)
	if source == "" {
		source = DefaultSource
	}
	return &Prospect{
		ID:              id.NewProspectID(),
		CampaignID:      campaignID,
		TenantID:        tenantID,
		Email:           email,
		FirstName:       rec.FirstName,
		LastName:        rec.LastName,
		Phone:           rec.Phone,
		JobTitle:        rec.JobTitle,
		CompanyName:     rec.CompanyName,
		CompanyIndustry: rec.CompanyIndustry,
		CompanySize:     rec.CompanySize,
		Location:        rec.Location,
		LinkedInURL:     rec.LinkedInURL,
		EnrichmentData:  cloneMap(rec.Raw),
		Status:          status,
		Source:          source,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// CanTransition reports an invalid_transition error for illegal moves.
func (p *Prospect) CanTransition(target Status) error {
	if !p.Status.CanTransitionTo(target) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("cannot transition prospect from %s to %s", p.Status, target))
	}
	return nil
}

// ApplyTransition moves the prospect to target. Call CanTransition first.
func (p *Prospect) ApplyTransition(target Status, now time.Time) {
	p.Status = target
	p.UpdatedAt = now
}

// ApplyScore records the qualification result.
func (p *Prospect) ApplyScore(b Breakdown, now time.Time) {
	total := b.Total()
	p.Score = &total
	p.Breakdown = &b
	p.UpdatedAt = now
}

// Industry is the best available industry hint. The company name stands in
// when no industry was sourced.
func (p *Prospect) Industry() string {
	if p.CompanyIndustry != "" {
		return p.CompanyIndustry
	}
	return p.CompanyName
}

func (p *Prospect) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// AsRecord projects the prospect back onto the sourcing record shape, which
// the firmographic scorer consumes.
func (p *Prospect) AsRecord() Record {
	return Record{
		Email:           p.Email,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Phone:           p.Phone,
		JobTitle:        p.JobTitle,
		CompanyName:     p.CompanyName,
		CompanyIndustry: p.CompanyIndustry,
		CompanySize:     p.CompanySize,
		Location:        p.Location,
		LinkedInURL:     p.LinkedInURL,
		Source:          p.Source,
		Raw:             cloneMap(p.EnrichmentData),
	}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
