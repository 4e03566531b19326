package enrichment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"leadflow/internal/prospect/models"
	"leadflow/internal/prospect/store"
	"leadflow/internal/providers"
	"leadflow/internal/scoring"
	id "leadflow/pkg/domain"
)

type stubEnricher struct {
	results map[string]*models.Record
	errs    map[string]error
	calls   int
}

func (s *stubEnricher) Lookup(_ context.Context, q providers.LookupQuery) (*models.Record, error) {
	s.calls++
	if err := s.errs[q.Email]; err != nil {
		return nil, err
	}
	return s.results[q.Email], nil
}

type CoordinatorSuite struct {
	suite.Suite
	ctx      context.Context
	store    *store.InMemory
	campaign id.CampaignID
	tenant   id.TenantID
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.campaign = id.NewCampaignID()
	s.tenant = id.NewTenantID()
}

func (s *CoordinatorSuite) persist(candidates []Candidate) {
	for _, c := range candidates {
		p, err := models.NewProspect(s.campaign, s.tenant, c.Record, models.StatusEnriched, time.Now())
		s.Require().NoError(err)
		s.Require().NoError(s.store.Create(s.ctx, p))
	}
}

func (s *CoordinatorSuite) TestDropsMissingEmailAndBatchDuplicates() {
	coord := NewCoordinator(s.store)
	records := []models.Record{
		{Email: "a@example.com", FirstName: "Ann"},
		{FirstName: "No", LastName: "Email"},
		{Email: " A@Example.com "},
		{Email: "b@example.com"},
	}

	got, stats, err := coord.Process(s.ctx, s.campaign, s.tenant, records, nil)
	s.Require().NoError(err)
	s.Len(got, 2)
	s.Equal(1, stats.MissingEmail)
	s.Equal(1, stats.Duplicate)
	s.Equal("a@example.com", got[0].Record.Email)
}

func (s *CoordinatorSuite) TestDedupAcrossCalls() {
	coord := NewCoordinator(s.store)
	batch := []models.Record{{Email: "x@example.com"}, {Email: "y@example.com"}}

	first, _, err := coord.Process(s.ctx, s.campaign, s.tenant, batch, nil)
	s.Require().NoError(err)
	s.Require().Len(first, 2)
	s.persist(first)

	second, stats, err := coord.Process(s.ctx, s.campaign, s.tenant, append(batch, models.Record{Email: "z@example.com"}), nil)
	s.Require().NoError(err)
	s.Require().Len(second, 1)
	s.Equal("z@example.com", second[0].Record.Email)
	s.Equal(2, stats.Duplicate)

	s.Run("other campaigns are unaffected", func() {
		got, _, err := coord.Process(s.ctx, id.NewCampaignID(), s.tenant, batch, nil)
		s.Require().NoError(err)
		s.Len(got, 2)
	})
}

func (s *CoordinatorSuite) TestSortsByPriorityStable() {
	criteria := &scoring.Criteria{Industries: []string{"software"}, Locations: []string{"berlin"}}
	records := []models.Record{
		{Email: "low1@example.com"},
		{Email: "high@example.com", CompanyIndustry: "Software", Location: "Berlin, DE"},
		{Email: "low2@example.com"},
	}

	got, _, err := NewCoordinator(s.store).Process(s.ctx, s.campaign, s.tenant, records, criteria)
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal("high@example.com", got[0].Record.Email)
	s.Equal("low1@example.com", got[1].Record.Email)
	s.Equal("low2@example.com", got[2].Record.Email)
	s.Greater(got[0].Priority, got[1].Priority)
	s.Equal(got[1].Priority, got[2].Priority)
}

func (s *CoordinatorSuite) TestEnrichmentBackfillsAndDegrades() {
	enricher := &stubEnricher{
		results: map[string]*models.Record{
			"ok@example.com": {
				Email:       "different@example.com",
				JobTitle:    "CTO",
				CompanySize: "120",
				Raw:         map[string]any{"current_employer_size": 120},
			},
		},
		errs: map[string]error{
			"down@example.com": providers.NewProviderError(providers.ErrorProviderOutage, "rocketreach", "503", nil),
		},
	}
	coord := NewCoordinator(s.store, WithEnricher(enricher))
	records := []models.Record{
		{Email: "ok@example.com", JobTitle: ""},
		{Email: "down@example.com", JobTitle: "Manager"},
		{Email: "unknown@example.com"},
	}

	got, stats, err := coord.Process(s.ctx, s.campaign, s.tenant, records, nil)
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal(3, enricher.calls)
	s.Equal(1, stats.EnrichFailures)

	byEmail := map[string]Candidate{}
	for _, c := range got {
		byEmail[c.Record.Email] = c
	}
	ok := byEmail["ok@example.com"]
	s.True(ok.Enriched)
	s.Equal("CTO", ok.Record.JobTitle)
	s.Equal(120, ok.Record.Raw["current_employer_size"])

	down := byEmail["down@example.com"]
	s.False(down.Enriched)
	s.Equal("Manager", down.Record.JobTitle)

	s.False(byEmail["unknown@example.com"].Enriched)
}

type brokenLookup struct{}

func (brokenLookup) ExistsByEmail(context.Context, id.CampaignID, id.TenantID, string) (bool, error) {
	return false, errors.New("db down")
}

func (s *CoordinatorSuite) TestDuplicateCheckFailureAborts() {
	_, _, err := NewCoordinator(brokenLookup{}).Process(s.ctx, s.campaign, s.tenant,
		[]models.Record{{Email: "a@example.com"}}, nil)
	s.Error(err)
}
