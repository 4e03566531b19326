//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"leadflow/internal/prospect/models"
	"leadflow/internal/prospect/store"
	id "leadflow/pkg/domain"
	"leadflow/pkg/platform/sentinel"
	txcontext "leadflow/pkg/platform/tx"
	"leadflow/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	campaign id.CampaignID
	tenant   id.TenantID
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
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "prospects", "campaigns"))

	s.campaign = id.NewCampaignID()
	s.tenant = id.NewTenantID()
	now := time.Now().UTC()
	_, err := s.postgres.DB.ExecContext(ctx,
		`INSERT INTO campaigns (id, tenant_id, name, status, created_at, updated_at) VALUES ($1, $2, 'test', 'draft', $3, $3)`,
		s.campaign.String(), s.tenant.String(), now)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newProspect(email string) *models.Prospect {
	p, err := models.NewProspect(s.campaign, s.tenant, models.Record{
		Email:    email,
		JobTitle: "VP Sales",
		Raw:      map[string]any{"seniority_level": "vp"},
	}, models.StatusEnriched, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return p
}

// TestConcurrentDuplicateEmail verifies the unique index lets exactly one
// insert win.
func (s *PostgresStoreSuite) TestConcurrentDuplicateEmail() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successes, conflicts atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, s.newProspect("race@example.com"))
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}

func (s *PostgresStoreSuite) TestRoundTripWithScore() {
	ctx := context.Background()
	p := s.newProspect("score@example.com")
	s.Require().NoError(s.store.Create(ctx, p))

	p.ApplyTransition(models.StatusScoring, p.CreatedAt)
	p.ApplyScore(models.Breakdown{Budget: 18, Authority: 18, Need: 15, Timeline: 15}, p.CreatedAt)
	s.Require().NoError(s.store.Update(ctx, p))

	found, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusScoring, found.Status)
	s.Require().NotNil(found.Breakdown)
	s.Equal(66, found.Breakdown.Total())
	s.Equal("vp", found.EnrichmentData["seniority_level"])
}

func (s *PostgresStoreSuite) TestListFilters() {
	ctx := context.Background()
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		s.Require().NoError(s.store.Create(ctx, s.newProspect(email)))
	}

	got, err := s.store.List(ctx, models.ProspectFilter{
		CampaignID: s.campaign,
		TenantID:   s.tenant,
		Statuses:   []models.Status{models.StatusEnriched, models.StatusScoring},
		Limit:      2,
	})
	s.Require().NoError(err)
	s.Len(got, 2)

	exists, err := s.store.ExistsByEmail(ctx, s.campaign, s.tenant, "B@example.com")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *PostgresStoreSuite) TestRollbackDiscardsWrite() {
	ctx := context.Background()
	p := s.newProspect("rollback@example.com")

	err := txcontext.Run(ctx, s.postgres.DB, func(txCtx context.Context) error {
		s.Require().NoError(s.store.Create(txCtx, p))
		return errors.New("abort")
	})
	s.Require().Error(err)

	_, err = s.store.FindByID(ctx, p.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
