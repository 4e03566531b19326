package orchestrator

import (
	"context"
	"fmt"

	campaignmodels "leadflow/internal/campaign/models"
	"leadflow/internal/prospect/models"
	"leadflow/internal/providers"
	"leadflow/internal/scoring"
	dErrors "leadflow/pkg/domain-errors"
	audit "leadflow/pkg/platform/audit"
	"leadflow/pkg/requestcontext"
)

// prospect marks the campaign active, sources up to DailyLimit records and
// creates the surviving candidates as enriched prospects. Conflicting or
// malformed candidates are skipped; any other store failure ends the phase.
func (o *Orchestrator) prospect(ctx context.Context, c *campaignmodels.Campaign) (campaignmodels.ProspectingResult, error) {
	var res campaignmodels.ProspectingResult
	if err := o.start(ctx, c); err != nil {
		return res, err
	}

	records, err := o.Source.Search(ctx, providers.SearchQuery{
		JobTitles:    c.Criteria.JobTitles,
		Industries:   c.Criteria.Industries,
		CompanySizes: c.Criteria.CompanySizes,
		Locations:    c.Criteria.Locations,
		Limit:        c.DailyLimit,
	})
	if err != nil {
		return res, fmt.Errorf("prospect search: %w", err)
	}
	res.Found = len(records)

	criteria := scoring.Criteria(c.Criteria)
	candidates, _, err := o.Coordinator.Process(ctx, c.ID, c.TenantID, records, &criteria)
	if err != nil {
		return res, err
	}

	now := requestcontext.Now(ctx)
	skipped := 0
	for _, cand := range candidates {
		if res.Created >= c.DailyLimit {
			break
		}
		p, err := models.NewProspect(c.ID, c.TenantID, cand.Record, models.StatusEnriched, now)
		if err != nil {
			skipped++
			o.logger.WarnContext(ctx, "skipping invalid candidate",
				"campaign_id", c.ID.String(),
				"error", err,
			)
			continue
		}
		if err := o.Lifecycle.Create(ctx, p); err != nil {
			if dErrors.HasCode(err, dErrors.CodeConflict) {
				skipped++
				continue
			}
			return res, err
		}
		res.Created++
	}
	o.metrics.addProspects(campaignmodels.PhaseProspecting, "created", res.Created)
	o.metrics.addProspects(campaignmodels.PhaseProspecting, "skipped", skipped)
	return res, nil
}

// start moves the campaign to active. StartedAt keeps the first run's time.
func (o *Orchestrator) start(ctx context.Context, c *campaignmodels.Campaign) error {
	from := c.Status
	next := *c
	next.ApplyRunStart(requestcontext.Now(ctx))
	err := o.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := o.Campaigns.Update(ctx, &next); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark campaign active")
		}
		return o.emitTx(ctx, &next, audit.EventCampaignStarted, string(from), string(next.Status), "", nil)
	})
	if err != nil {
		return err
	}
	*c = next
	return nil
}

// qualify scores every enriched prospect in CreatedAt, ID order. A prospect
// that cannot be moved is skipped; one that cannot be scored is rejected
// with the error as reason.
func (o *Orchestrator) qualify(ctx context.Context, c *campaignmodels.Campaign) (campaignmodels.QualificationResult, error) {
	var res campaignmodels.QualificationResult
	prospects, err := o.Prospects.List(ctx, models.ProspectFilter{
		TenantID:   c.TenantID,
		CampaignID: c.ID,
		Statuses:   []models.Status{models.StatusEnriched},
	})
	if err != nil {
		return res, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list enriched prospects")
	}

	skipped := 0
	for _, p := range prospects {
		if err := o.Lifecycle.Transition(ctx, p, models.StatusScoring, "qualification started"); err != nil {
			skipped++
			o.logEntity(ctx, c, p, "failed to start scoring", err)
			continue
		}

		result, err := o.Scorer.Qualify(scoring.InputFromProspect(p), c.Threshold)
		if err == nil {
			err = o.Lifecycle.RecordScore(ctx, p, result.Breakdown)
		}
		if err != nil {
			o.logEntity(ctx, c, p, "scoring failed, rejecting", err)
			if terr := o.Lifecycle.Transition(ctx, p, models.StatusRejected, err.Error()); terr != nil {
				skipped++
				o.logEntity(ctx, c, p, "failed to reject prospect", terr)
				continue
			}
			res.Rejected++
			continue
		}

		target := models.StatusRejected
		if result.Qualified {
			target = models.StatusQualified
		}
		if err := o.Lifecycle.Transition(ctx, p, target, string(result.Recommendation)); err != nil {
			skipped++
			o.logEntity(ctx, c, p, "failed to record qualification", err)
			continue
		}
		if result.Qualified {
			res.Qualified++
		} else {
			res.Rejected++
		}
	}
	o.metrics.addProspects(campaignmodels.PhaseQualification, "qualified", res.Qualified)
	o.metrics.addProspects(campaignmodels.PhaseQualification, "rejected", res.Rejected)
	o.metrics.addProspects(campaignmodels.PhaseQualification, "skipped", skipped)
	return res, nil
}

// schedule sends outreach to every qualified prospect. Only a confirmed send
// moves a prospect to contacted; anything else leaves it qualified for the
// next run and counts as failed.
func (o *Orchestrator) schedule(ctx context.Context, c *campaignmodels.Campaign) (campaignmodels.SchedulingResult, error) {
	var res campaignmodels.SchedulingResult
	prospects, err := o.Prospects.List(ctx, models.ProspectFilter{
		TenantID:   c.TenantID,
		CampaignID: c.ID,
		Statuses:   []models.Status{models.StatusQualified},
	})
	if err != nil {
		return res, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list qualified prospects")
	}

	for _, p := range prospects {
		content, err := o.Generator.Generate(ctx, c, p)
		if err != nil {
			res.Failed++
			o.logEntity(ctx, c, p, "failed to generate outreach", err)
			continue
		}
		sent, err := o.Dispatcher.Send(ctx, providers.Message{
			To:      p.Email,
			Subject: content.Subject,
			Body:    content.Body,
		})
		if err == nil && !sent.Success {
			err = providers.NewProviderError(providers.ErrorInternal, "dispatcher", "send not confirmed", nil)
		}
		if err != nil {
			res.Failed++
			o.logEntity(ctx, c, p, "failed to send outreach", err)
			continue
		}
		// The message is out; a failed transition is logged but still
		// counts as sent.
		if err := o.Lifecycle.Transition(ctx, p, models.StatusContacted, "outreach sent: "+sent.ID); err != nil {
			o.logEntity(ctx, c, p, "outreach sent but prospect not marked contacted", err)
		}
		res.Sent++
	}
	o.metrics.addProspects(campaignmodels.PhaseScheduling, "sent", res.Sent)
	o.metrics.addProspects(campaignmodels.PhaseScheduling, "failed", res.Failed)
	return res, nil
}

func (o *Orchestrator) logEntity(ctx context.Context, c *campaignmodels.Campaign, p *models.Prospect, msg string, err error) {
	o.logger.WarnContext(ctx, msg,
		"campaign_id", c.ID.String(),
		"prospect_id", p.ID.String(),
		"status", string(p.Status),
		"error", err,
	)
}
