// Package enrichment turns a raw search batch into ranked, de-duplicated
// candidates for one campaign.
package enrichment

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"leadflow/internal/prospect/models"
	"leadflow/internal/providers"
	"leadflow/internal/scoring"
	id "leadflow/pkg/domain"
	dErrors "leadflow/pkg/domain-errors"
	pstrings "leadflow/pkg/platform/strings"
)

// ExistingProspects answers whether an email is already a prospect of the
// campaign.
type ExistingProspects interface {
	ExistsByEmail(ctx context.Context, campaignID id.CampaignID, tenantID id.TenantID, email string) (bool, error)
}

// Candidate is a surviving record and its firmographic priority.
type Candidate struct {
	Record   models.Record
	Priority int
	Enriched bool
}

// Stats counts why records were dropped from a batch.
type Stats struct {
	Received       int
	MissingEmail   int
	Duplicate      int
	EnrichFailures int
	Accepted       int
}

type Coordinator struct {
	existing ExistingProspects
	enricher providers.EnrichmentClient
	logger   *slog.Logger
}

type Option func(*Coordinator)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithEnricher enables the lookup step. Without it records pass through as
// sourced.
func WithEnricher(e providers.EnrichmentClient) Option {
	return func(c *Coordinator) { c.enricher = e }
}

func NewCoordinator(existing ExistingProspects, opts ...Option) *Coordinator {
	c := &Coordinator{existing: existing, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Process filters, enriches and ranks records. Output is sorted by
// descending priority; ties keep input order. A failed lookup keeps the
// record unenriched. Only a failing duplicate check aborts the batch.
func (c *Coordinator) Process(
	ctx context.Context,
	campaignID id.CampaignID,
	tenantID id.TenantID,
	records []models.Record,
	criteria *scoring.Criteria,
) ([]Candidate, Stats, error) {
	stats := Stats{Received: len(records)}
	seen := make(map[string]struct{}, len(records))
	out := make([]Candidate, 0, len(records))

	for _, rec := range records {
		email := pstrings.NormalizeEmail(rec.Email)
		if email == "" {
			stats.MissingEmail++
			c.logger.WarnContext(ctx, "skipping prospect without email",
				"campaign_id", campaignID.String(),
				"name", strings.TrimSpace(rec.FirstName+" "+rec.LastName),
			)
			continue
		}
		if _, dup := seen[email]; dup {
			stats.Duplicate++
			continue
		}
		seen[email] = struct{}{}

		exists, err := c.existing.ExistsByEmail(ctx, campaignID, tenantID, email)
		if err != nil {
			return nil, stats, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check duplicate prospect")
		}
		if exists {
			stats.Duplicate++
			c.logger.DebugContext(ctx, "skipping duplicate prospect",
				"campaign_id", campaignID.String(),
				"email", email,
			)
			continue
		}

		rec.Email = email
		cand := Candidate{Record: rec}
		if c.enricher != nil {
			merged, enriched, err := c.enrich(ctx, rec)
			if err != nil {
				stats.EnrichFailures++
				c.logger.WarnContext(ctx, "enrichment failed, keeping sourced record",
					"campaign_id", campaignID.String(),
					"email", email,
					"category", string(providers.GetCategory(err)),
					"error", err,
				)
			} else {
				cand.Record = merged
				cand.Enriched = enriched
			}
		}
		cand.Priority = scoring.Firmographic(cand.Record, criteria)
		out = append(out, cand)
	}

	slices.SortStableFunc(out, func(a, b Candidate) int {
		return b.Priority - a.Priority
	})
	stats.Accepted = len(out)

	c.logger.InfoContext(ctx, "processed prospect batch",
		"campaign_id", campaignID.String(),
		"received", stats.Received,
		"accepted", stats.Accepted,
		"duplicates", stats.Duplicate,
		"missing_email", stats.MissingEmail,
		"enrich_failures", stats.EnrichFailures,
	)
	return out, stats, nil
}

// enrich backfills rec from the enrichment client. The sourced email is kept
// so the dedup key cannot drift.
func (c *Coordinator) enrich(ctx context.Context, rec models.Record) (models.Record, bool, error) {
	q := providers.LookupQuery{
		Email:      rec.Email,
		ProfileURL: rec.LinkedInURL,
		Name:       strings.TrimSpace(rec.FirstName + " " + rec.LastName),
		Company:    rec.CompanyName,
	}
	found, err := c.enricher.Lookup(ctx, q)
	if err != nil {
		return rec, false, err
	}
	if found == nil {
		return rec, false, nil
	}
	merged := rec.Merge(found)
	merged.Email = rec.Email
	return merged, true, nil
}
