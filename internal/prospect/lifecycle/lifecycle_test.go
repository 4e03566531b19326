package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"leadflow/internal/prospect/models"
	"leadflow/internal/prospect/store"
	id "leadflow/pkg/domain"
	dErrors "leadflow/pkg/domain-errors"
	audit "leadflow/pkg/platform/audit"
	"leadflow/pkg/platform/audit/publisher"
	auditmemory "leadflow/pkg/platform/audit/store/memory"
	"leadflow/pkg/requestcontext"
)

type LifecycleSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.InMemory
	events  *auditmemory.InMemoryStore
	service *Service
	now     time.Time
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) SetupTest() {
	s.now = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.store = store.NewInMemory()
	s.events = auditmemory.NewInMemoryStore()
	s.service = New(s.store, WithAuditPublisher(publisher.NewPublisher(s.events)))
}

func (s *LifecycleSuite) newProspect(status models.Status) *models.Prospect {
	p, err := models.NewProspect(id.NewCampaignID(), id.NewTenantID(),
		models.Record{Email: "lin@example.com"}, status, s.now.Add(-time.Hour))
	s.Require().NoError(err)
	s.Require().NoError(s.service.Create(s.ctx, p))
	return p
}

func (s *LifecycleSuite) TestCreateEmitsEvent() {
	p := s.newProspect(models.StatusEnriched)

	events, err := s.events.ListByAggregate(s.ctx, p.ID.String())
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventProspectCreated), events[0].Action)
	s.Equal("enriched", events[0].To)
	s.Equal(p.CampaignID.String(), events[0].Attributes["campaign_id"])
}

func (s *LifecycleSuite) TestCreateDuplicateIsConflict() {
	p := s.newProspect(models.StatusEnriched)
	dup, err := models.NewProspect(p.CampaignID, p.TenantID, models.Record{Email: p.Email}, models.StatusEnriched, s.now)
	s.Require().NoError(err)

	err = s.service.Create(s.ctx, dup)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *LifecycleSuite) TestTransitionPersistsAndAudits() {
	p := s.newProspect(models.StatusEnriched)

	s.Require().NoError(s.service.Transition(s.ctx, p, models.StatusScoring, "qualification started"))
	s.Equal(models.StatusScoring, p.Status)
	s.Equal(s.now, p.UpdatedAt)

	stored, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusScoring, stored.Status)

	events, err := s.events.ListByAction(s.ctx, audit.EventProspectTransitioned)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("enriched", events[0].From)
	s.Equal("scoring", events[0].To)
	s.Equal("qualification started", events[0].Reason)
}

func (s *LifecycleSuite) TestFullPipelineWalk() {
	p := s.newProspect(models.StatusNew)
	path := []models.Status{
		models.StatusEnriched, models.StatusScoring, models.StatusQualified,
		models.StatusContacted, models.StatusMeetingScheduled, models.StatusCompleted,
	}
	for _, target := range path {
		s.Require().NoError(s.service.Transition(s.ctx, p, target, ""), "to %s", target)
	}
	s.True(p.Status.IsTerminal())

	err := s.service.Transition(s.ctx, p, models.StatusRejected, "late")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *LifecycleSuite) TestInvalidTransitionLeavesStateUntouched() {
	s.Run("skipping a step", func() {
		p := s.newProspectWithEmail("skip@example.com", models.StatusEnriched)
		err := s.service.Transition(s.ctx, p, models.StatusContacted, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
		s.Equal(models.StatusEnriched, p.Status)

		stored, ferr := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(ferr)
		s.Equal(models.StatusEnriched, stored.Status)
	})

	s.Run("re-applying the current state", func() {
		p := s.newProspectWithEmail("again@example.com", models.StatusQualified)
		err := s.service.Transition(s.ctx, p, models.StatusQualified, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("no audit event for rejected moves", func() {
		events, err := s.events.ListByAction(s.ctx, audit.EventProspectTransitioned)
		s.Require().NoError(err)
		s.Empty(events)
	})
}

func (s *LifecycleSuite) TestStoreFailureKeepsCallerCopy() {
	p := s.newProspect(models.StatusEnriched)
	failing := New(failingStore{Store: s.store})

	err := failing.Transition(s.ctx, p, models.StatusScoring, "")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Equal(models.StatusEnriched, p.Status)
}

func (s *LifecycleSuite) TestRecordScore() {
	p := s.newProspect(models.StatusEnriched)
	b := models.Breakdown{Budget: 18, Authority: 18, Need: 10, Timeline: 10}

	err := s.service.RecordScore(s.ctx, p, b)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState), "only scoring prospects take a score")

	s.Require().NoError(s.service.Transition(s.ctx, p, models.StatusScoring, ""))
	s.Require().NoError(s.service.RecordScore(s.ctx, p, b))
	s.Require().NotNil(p.Score)
	s.Equal(56, *p.Score)

	events, err := s.events.ListByAction(s.ctx, audit.EventProspectScored)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("56", events[0].Attributes["score"])
}

func (s *LifecycleSuite) TestRecordIntent() {
	s.Run("rejects unknown intent", func() {
		_, err := s.service.RecordIntent(s.ctx, id.NewProspectID(), models.Intent("maybe"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("not found", func() {
		_, err := s.service.RecordIntent(s.ctx, id.NewProspectID(), models.IntentInterestedNow)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("requires outreach first", func() {
		p := s.newProspectWithEmail("early@example.com", models.StatusQualified)
		_, err := s.service.RecordIntent(s.ctx, p.ID, models.IntentInterestedNow)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("records intent for contacted prospect", func() {
		p := s.newProspectWithEmail("reply@example.com", models.StatusContacted)
		got, err := s.service.RecordIntent(s.ctx, p.ID, models.IntentObjectionPrice)
		s.Require().NoError(err)
		s.Require().NotNil(got.Intent)
		s.Equal(models.IntentObjectionPrice, *got.Intent)
	})
}

func (s *LifecycleSuite) newProspectWithEmail(email string, status models.Status) *models.Prospect {
	p, err := models.NewProspect(id.NewCampaignID(), id.NewTenantID(), models.Record{Email: email}, status, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.service.Create(s.ctx, p))
	return p
}

type failingStore struct {
	Store
}

func (failingStore) Update(context.Context, *models.Prospect) error {
	return errors.New("connection reset")
}
