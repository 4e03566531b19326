package models

import (
	"fmt"
	"strings"
	"time"

	id "leadflow/pkg/domain"
	dErrors "leadflow/pkg/domain-errors"
	pstrings "leadflow/pkg/platform/strings"
)

const (
	DefaultThreshold  = 60
	DefaultDailyLimit = 50
	maxNameLength     = 200
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusPaused, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// Criteria is the campaign's targeting. It converts directly to
// scoring.Criteria.
type Criteria struct {
	JobTitles    []string `json:"job_titles,omitempty"`
	Industries   []string `json:"industries,omitempty"`
	CompanySizes []string `json:"company_sizes,omitempty"`
	Locations    []string `json:"locations,omitempty"`
}

func (c Criteria) IsEmpty() bool {
	return len(c.JobTitles) == 0 && len(c.Industries) == 0 && len(c.CompanySizes) == 0 && len(c.Locations) == 0
}

// Normalize trims entries and drops case-insensitive duplicates.
func (c Criteria) Normalize() Criteria {
	return Criteria{
		JobTitles:    pstrings.DedupeFold(c.JobTitles),
		Industries:   pstrings.DedupeFold(c.Industries),
		CompanySizes: pstrings.DedupeFold(c.CompanySizes),
		Locations:    pstrings.DedupeFold(c.Locations),
	}
}

// EmailTemplate feeds outreach content generation.
type EmailTemplate struct {
	ValueProp          string `json:"value_prop,omitempty"`
	ProductDescription string `json:"product_description,omitempty"`
	SchedulingURL      string `json:"scheduling_url,omitempty"`
}

// Campaign is the aggregate a run executes against.
//
// Invariants:
//   - Criteria, Threshold and DailyLimit change only while draft
//   - Threshold is within 0..100; DailyLimit is at least 1
//   - StartedAt is set by the first run and never moved
//   - archived is terminal
type Campaign struct {
	ID            id.CampaignID `json:"id"`
	TenantID      id.TenantID   `json:"tenant_id"`
	CreatedBy     *id.UserID    `json:"created_by,omitempty"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	Status        Status        `json:"status"`
	Criteria      Criteria      `json:"criteria"`
	EmailTemplate EmailTemplate `json:"email_template"`
	Threshold     int           `json:"threshold"`
	DailyLimit    int           `json:"daily_limit"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Settings is the draft-only configuration. Nil pointers take defaults on
// creation and are left unchanged on update.
type Settings struct {
	Criteria      *Criteria
	EmailTemplate *EmailTemplate
	Threshold     *int
	DailyLimit    *int
}

func (s Settings) validate() error {
	if s.Threshold != nil && (*s.Threshold < 0 || *s.Threshold > 100) {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("threshold must be within 0..100, got %d", *s.Threshold))
	}
	if s.DailyLimit != nil && *s.DailyLimit < 1 {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("daily limit must be at least 1, got %d", *s.DailyLimit))
	}
	return nil
}

// NewCampaign builds a draft campaign.
func NewCampaign(tenantID id.TenantID, createdBy *id.UserID, name, description string, settings Settings, now time.Time) (*Campaign, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "campaign name is required")
	}
	if len(name) > maxNameLength {
		return nil, dErrors.New(dErrors.CodeValidation, "campaign name is too long")
	}
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "campaign requires a tenant")
	}
	if err := settings.validate(); err != nil {
		return nil, err
	}
	c := &Campaign{
		ID:          id.NewCampaignID(),
		TenantID:    tenantID,
		CreatedBy:   createdBy,
		Name:        name,
		Description: strings.TrimSpace(description),
		Status:      StatusDraft,
		Threshold:   DefaultThreshold,
		DailyLimit:  DefaultDailyLimit,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.applySettings(settings)
	return c, nil
}

func (c *Campaign) applySettings(s Settings) {
	if s.Criteria != nil {
		c.Criteria = s.Criteria.Normalize()
	}
	if s.EmailTemplate != nil {
		c.EmailTemplate = *s.EmailTemplate
	}
	if s.Threshold != nil {
		c.Threshold = *s.Threshold
	}
	if s.DailyLimit != nil {
		c.DailyLimit = *s.DailyLimit
	}
}

// CanUpdateSettings allows changes only while draft.
func (c *Campaign) CanUpdateSettings(s Settings) error {
	if c.Status != StatusDraft {
		return dErrors.New(dErrors.CodeInvalidState,
			fmt.Sprintf("campaign settings can only change while draft, status is %s", c.Status))
	}
	return s.validate()
}

func (c *Campaign) ApplySettings(s Settings, now time.Time) {
	c.applySettings(s)
	c.UpdatedAt = now
}

// CanLaunch requires targeting and a draft or paused campaign.
func (c *Campaign) CanLaunch() error {
	if c.Status != StatusDraft && c.Status != StatusPaused {
		return dErrors.New(dErrors.CodeInvalidState,
			fmt.Sprintf("cannot launch campaign in status %s", c.Status))
	}
	if c.Criteria.IsEmpty() {
		return dErrors.New(dErrors.CodeValidation, "campaign criteria are required to launch")
	}
	return nil
}

func (c *Campaign) ApplyLaunch(now time.Time) {
	c.Status = StatusActive
	c.UpdatedAt = now
}

func (c *Campaign) CanPause() error {
	if c.Status != StatusActive {
		return dErrors.New(dErrors.CodeInvalidState,
			fmt.Sprintf("cannot pause campaign in status %s", c.Status))
	}
	return nil
}

func (c *Campaign) CanArchive() error {
	if c.Status == StatusArchived {
		return dErrors.New(dErrors.CodeInvalidState, "campaign is already archived")
	}
	return nil
}

func (c *Campaign) ApplyArchive(now time.Time) {
	c.Status = StatusArchived
	c.UpdatedAt = now
}

// CanRun checks the run preconditions that depend on the campaign alone.
// A completed campaign runs again to pick up new candidates; only archived
// is final.
func (c *Campaign) CanRun() error {
	if c.Status == StatusArchived {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("campaign is %s and cannot run", c.Status))
	}
	if c.Criteria.IsEmpty() {
		return dErrors.New(dErrors.CodeValidation, "campaign has no targeting criteria")
	}
	return nil
}

// ApplyRunStart marks the campaign active. StartedAt keeps the first run's
// time.
func (c *Campaign) ApplyRunStart(now time.Time) {
	c.Status = StatusActive
	if c.StartedAt == nil {
		started := now
		c.StartedAt = &started
	}
	c.UpdatedAt = now
}

func (c *Campaign) ApplyRunComplete(now time.Time) {
	c.Status = StatusCompleted
	completed := now
	c.CompletedAt = &completed
	c.UpdatedAt = now
}

func (c *Campaign) ApplyPause(now time.Time) {
	c.Status = StatusPaused
	c.UpdatedAt = now
}
