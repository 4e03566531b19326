// Package service manages campaign configuration and status outside of a
// run. Runs themselves go through the orchestrator.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"leadflow/internal/campaign/models"
	prospectmodels "leadflow/internal/prospect/models"
	id "leadflow/pkg/domain"
	dErrors "leadflow/pkg/domain-errors"
	audit "leadflow/pkg/platform/audit"
	"leadflow/pkg/platform/sentinel"
	txcontext "leadflow/pkg/platform/tx"
	"leadflow/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, c *models.Campaign) error
	FindByID(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error)
	Update(ctx context.Context, c *models.Campaign) error
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Campaign, error)
	ListPhases(ctx context.Context, campaignID id.CampaignID) ([]*models.PhaseExecution, error)
}

// ProspectLister reads a campaign's prospects for Stats.
type ProspectLister interface {
	List(ctx context.Context, filter prospectmodels.ProspectFilter) ([]*prospectmodels.Prospect, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store     Store
	prospects ProspectLister
	tx        txcontext.Runner
	audit     AuditPublisher
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithProspects(p ProspectLister) Option {
	return func(s *Service) { s.prospects = p }
}

func WithTxRunner(r txcontext.Runner) Option {
	return func(s *Service) { s.tx = r }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, tx: txcontext.NopRunner{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateCommand struct {
	TenantID    id.TenantID
	CreatedBy   *id.UserID
	Name        string
	Description string
	Settings    models.Settings
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*models.Campaign, error) {
	c, err := models.NewCampaign(cmd.TenantID, cmd.CreatedBy, cmd.Name, cmd.Description, cmd.Settings, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, c); err != nil {
			return s.translateStoreErr(err, "failed to create campaign")
		}
		return s.emit(ctx, c, audit.EventCampaignCreated, "", string(c.Status), map[string]string{
			"name": c.Name,
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "campaign created",
		"campaign_id", c.ID.String(),
		"tenant_id", c.TenantID.String(),
	)
	return c, nil
}

func (s *Service) Get(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	c, err := s.store.FindByID(ctx, campaignID)
	if err != nil {
		return nil, s.translateStoreErr(err, "failed to load campaign")
	}
	return c, nil
}

func (s *Service) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Campaign, error) {
	out, err := s.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list campaigns")
	}
	return out, nil
}

// Phases returns the campaign's phase execution history, oldest first.
func (s *Service) Phases(ctx context.Context, campaignID id.CampaignID) ([]*models.PhaseExecution, error) {
	if _, err := s.Get(ctx, campaignID); err != nil {
		return nil, err
	}
	out, err := s.store.ListPhases(ctx, campaignID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list phase executions")
	}
	return out, nil
}

// Stats tallies the campaign's prospects by outcome.
func (s *Service) Stats(ctx context.Context, campaignID id.CampaignID) (*models.Stats, error) {
	if s.prospects == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "prospect store is not configured")
	}
	c, err := s.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	prospects, err := s.prospects.List(ctx, prospectmodels.ProspectFilter{TenantID: c.TenantID, CampaignID: c.ID})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list campaign prospects")
	}

	stats := &models.Stats{
		CampaignID:  c.ID,
		Status:      c.Status,
		Scoring:     models.ScoreSummary{Threshold: c.Threshold},
		StartedAt:   c.StartedAt,
		CompletedAt: c.CompletedAt,
	}
	scored, sum := 0, 0
	for _, p := range prospects {
		stats.Leads.Total++
		switch p.Status {
		case prospectmodels.StatusQualified:
			stats.Leads.Qualified++
		case prospectmodels.StatusContacted, prospectmodels.StatusMeetingScheduled, prospectmodels.StatusCompleted:
			stats.Leads.Qualified++
			stats.Emails.Sent++
		case prospectmodels.StatusRejected:
			stats.Leads.Rejected++
		}
		if p.Score != nil {
			scored++
			sum += *p.Score
		}
	}
	if scored > 0 {
		stats.Scoring.AverageScore = float64(sum) / float64(scored)
	}
	return stats, nil
}

// UpdateSettings changes targeting, template, threshold or daily limit on a
// draft campaign.
func (s *Service) UpdateSettings(ctx context.Context, campaignID id.CampaignID, settings models.Settings) (*models.Campaign, error) {
	return s.mutate(ctx, campaignID, audit.EventCampaignUpdated, func(c *models.Campaign) error {
		if err := c.CanUpdateSettings(settings); err != nil {
			return err
		}
		c.ApplySettings(settings, requestcontext.Now(ctx))
		return nil
	})
}

func (s *Service) Launch(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	return s.mutate(ctx, campaignID, audit.EventCampaignLaunched, func(c *models.Campaign) error {
		if err := c.CanLaunch(); err != nil {
			return err
		}
		c.ApplyLaunch(requestcontext.Now(ctx))
		return nil
	})
}

func (s *Service) Pause(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	return s.mutate(ctx, campaignID, audit.EventCampaignPaused, func(c *models.Campaign) error {
		if err := c.CanPause(); err != nil {
			return err
		}
		c.ApplyPause(requestcontext.Now(ctx))
		return nil
	})
}

func (s *Service) Archive(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	return s.mutate(ctx, campaignID, audit.EventCampaignArchived, func(c *models.Campaign) error {
		if err := c.CanArchive(); err != nil {
			return err
		}
		c.ApplyArchive(requestcontext.Now(ctx))
		return nil
	})
}

// mutate loads, changes, persists and audits a campaign in one transaction.
func (s *Service) mutate(ctx context.Context, campaignID id.CampaignID, event audit.AuditEvent, change func(*models.Campaign) error) (*models.Campaign, error) {
	var out *models.Campaign
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.store.FindByID(ctx, campaignID)
		if err != nil {
			return s.translateStoreErr(err, "failed to load campaign")
		}
		from := c.Status
		if err := change(c); err != nil {
			return err
		}
		if err := s.store.Update(ctx, c); err != nil {
			return s.translateStoreErr(err, "failed to update campaign")
		}
		out = c
		return s.emit(ctx, c, event, string(from), string(c.Status), map[string]string{
			"threshold":   strconv.Itoa(c.Threshold),
			"daily_limit": strconv.Itoa(c.DailyLimit),
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "campaign updated",
		"campaign_id", out.ID.String(),
		"action", string(event),
		"status", string(out.Status),
	)
	return out, nil
}

func (s *Service) emit(ctx context.Context, c *models.Campaign, event audit.AuditEvent, from, to string, attrs map[string]string) error {
	if s.audit == nil {
		return nil
	}
	err := s.audit.Emit(ctx, audit.Event{
		TenantID:      c.TenantID,
		AggregateType: audit.AggregateCampaign,
		AggregateID:   c.ID.String(),
		Action:        string(event),
		From:          from,
		To:            to,
		Attributes:    attrs,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

func (s *Service) translateStoreErr(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "campaign not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "campaign already exists")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
