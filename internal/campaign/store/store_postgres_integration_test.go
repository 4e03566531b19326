//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"leadflow/internal/campaign/models"
	"leadflow/internal/campaign/store"
	id "leadflow/pkg/domain"
	"leadflow/pkg/platform/sentinel"
	"leadflow/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "phase_executions", "prospects", "campaigns"))
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	threshold := 65
	c, err := models.NewCampaign(id.NewTenantID(), nil, "Fintech CTOs", "q3", models.Settings{
		Criteria:      &models.Criteria{JobTitles: []string{"CTO"}, Industries: []string{"Fintech"}},
		EmailTemplate: &models.EmailTemplate{SchedulingURL: "https://cal.example.com/demo"},
		Threshold:     &threshold,
	}, now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(ctx, c))

	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.Criteria, found.Criteria)
	s.Equal(65, found.Threshold)
	s.Equal("https://cal.example.com/demo", found.EmailTemplate.SchedulingURL)
	s.Nil(found.StartedAt)

	found.ApplyRunStart(now)
	s.Require().NoError(s.store.Update(ctx, found))
	again, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Require().NotNil(again.StartedAt)
	s.True(now.Equal(*again.StartedAt))

	_, err = s.store.FindByID(ctx, id.NewCampaignID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestPhaseExecutions() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	c, err := models.NewCampaign(id.NewTenantID(), nil, "n", "", models.Settings{}, now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(ctx, c))

	pe := models.NewPhaseExecution(c.ID, models.PhaseProspecting, map[string]int{"limit": 50}, 0, now)
	s.Require().NoError(s.store.CreatePhase(ctx, pe))
	pe.Complete(models.ProspectingResult{Found: 10, Created: 8}, now.Add(time.Second))
	s.Require().NoError(s.store.UpdatePhase(ctx, pe))

	phases, err := s.store.ListPhases(ctx, c.ID)
	s.Require().NoError(err)
	s.Require().Len(phases, 1)
	s.Equal(models.PhaseStatusCompleted, phases[0].Status)
	s.JSONEq(`{"found":10,"created":8}`, string(phases[0].Output))
}
