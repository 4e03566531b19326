package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"leadflow/internal/prospect/models"
	id "leadflow/pkg/domain"
	"leadflow/pkg/platform/sentinel"
)

type ProspectStoreSuite struct {
	suite.Suite
	store    *InMemory
	ctx      context.Context
	campaign id.CampaignID
	tenant   id.TenantID
	now      time.Time
}

func TestProspectStoreSuite(t *testing.T) {
	suite.Run(t, new(ProspectStoreSuite))
}

func (s *ProspectStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.campaign = id.NewCampaignID()
	s.tenant = id.NewTenantID()
	s.now = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
}

func (s *ProspectStoreSuite) newProspect(email string, offset time.Duration) *models.Prospect {
	p, err := models.NewProspect(s.campaign, s.tenant, models.Record{Email: email}, models.StatusEnriched, s.now.Add(offset))
	s.Require().NoError(err)
	return p
}

func (s *ProspectStoreSuite) TestCreateAndFind() {
	s.Run("round trips a prospect", func() {
		p := s.newProspect("ada@example.com", 0)
		s.Require().NoError(s.store.Create(s.ctx, p))

		found, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(p.Email, found.Email)
		s.Equal(models.StatusEnriched, found.Status)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, id.NewProspectID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned values are copies", func() {
		p := s.newProspect("copy@example.com", 0)
		s.Require().NoError(s.store.Create(s.ctx, p))

		found, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		found.Status = models.StatusRejected
		found.EnrichmentData["mutated"] = true

		again, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusEnriched, again.Status)
		s.NotContains(again.EnrichmentData, "mutated")
	})
}

func (s *ProspectStoreSuite) TestEmailUniqueness() {
	s.Run("rejects duplicate email in the same campaign", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newProspect("dup@example.com", 0)))
		err := s.store.Create(s.ctx, s.newProspect("DUP@example.com", 0))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("allows the same email in another campaign", func() {
		other, err := models.NewProspect(id.NewCampaignID(), s.tenant, models.Record{Email: "dup@example.com"}, models.StatusEnriched, s.now)
		s.Require().NoError(err)
		s.NoError(s.store.Create(s.ctx, other))
	})

	s.Run("ExistsByEmail is scoped to campaign and tenant", func() {
		exists, err := s.store.ExistsByEmail(s.ctx, s.campaign, s.tenant, " Dup@Example.com ")
		s.Require().NoError(err)
		s.True(exists)

		exists, err = s.store.ExistsByEmail(s.ctx, s.campaign, id.NewTenantID(), "dup@example.com")
		s.Require().NoError(err)
		s.False(exists)
	})
}

func (s *ProspectStoreSuite) TestUpdate() {
	s.Run("persists status and score", func() {
		p := s.newProspect("upd@example.com", 0)
		s.Require().NoError(s.store.Create(s.ctx, p))

		p.ApplyScore(models.Breakdown{Budget: 18, Authority: 18, Need: 10, Timeline: 10}, s.now)
		p.ApplyTransition(models.StatusScoring, s.now)
		s.Require().NoError(s.store.Update(s.ctx, p))

		found, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusScoring, found.Status)
		s.Require().NotNil(found.Score)
		s.Equal(56, *found.Score)
	})

	s.Run("keeps immutable fields", func() {
		p := s.newProspect("fixed@example.com", 0)
		s.Require().NoError(s.store.Create(s.ctx, p))

		tampered := *p
		tampered.CampaignID = id.NewCampaignID()
		tampered.Email = "other@example.com"
		s.Require().NoError(s.store.Update(s.ctx, &tampered))

		found, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(s.campaign, found.CampaignID)
		s.Equal("fixed@example.com", found.Email)
	})

	s.Run("returns ErrNotFound for unknown prospect", func() {
		err := s.store.Update(s.ctx, s.newProspect("ghost@example.com", 0))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *ProspectStoreSuite) TestList() {
	var created []*models.Prospect
	for i := range 4 {
		p := s.newProspect(fmt.Sprintf("p%d@example.com", i), time.Duration(3-i)*time.Minute)
		s.Require().NoError(s.store.Create(s.ctx, p))
		created = append(created, p)
	}
	created[0].ApplyScore(models.Breakdown{Budget: 23, Authority: 23, Need: 20, Timeline: 15}, s.now)
	created[0].ApplyTransition(models.StatusScoring, s.now)
	s.Require().NoError(s.store.Update(s.ctx, created[0]))

	s.Run("orders by creation time", func() {
		got, err := s.store.List(s.ctx, models.ProspectFilter{CampaignID: s.campaign})
		s.Require().NoError(err)
		s.Require().Len(got, 4)
		s.Equal("p3@example.com", got[0].Email)
		s.Equal("p0@example.com", got[3].Email)
	})

	s.Run("filters by status", func() {
		got, err := s.store.List(s.ctx, models.ProspectFilter{
			CampaignID: s.campaign,
			Statuses:   []models.Status{models.StatusEnriched},
		})
		s.Require().NoError(err)
		s.Len(got, 3)
	})

	s.Run("filters by score bounds", func() {
		minScore := 80
		got, err := s.store.List(s.ctx, models.ProspectFilter{CampaignID: s.campaign, MinScore: &minScore})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(created[0].ID, got[0].ID)
	})

	s.Run("applies limit after ordering", func() {
		got, err := s.store.List(s.ctx, models.ProspectFilter{CampaignID: s.campaign, Limit: 2})
		s.Require().NoError(err)
		s.Require().Len(got, 2)
		s.Equal("p3@example.com", got[0].Email)
	})
}
