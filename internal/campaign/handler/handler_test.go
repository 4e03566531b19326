package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"leadflow/internal/campaign/handler/mocks"
	"leadflow/internal/campaign/models"
	id "leadflow/pkg/domain"
	dErrors "leadflow/pkg/domain-errors"
	"leadflow/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks
type HandlerSuite struct {
	suite.Suite
	orchestrator *mocks.MockOrchestrator
	enqueuer     *mocks.MockEnqueuer
	stats        *mocks.MockStatsReader
	router       chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.orchestrator = mocks.NewMockOrchestrator(ctrl)
	s.enqueuer = mocks.NewMockEnqueuer(ctrl)
	s.stats = mocks.NewMockStatsReader(ctrl)
	s.router = chi.NewRouter()
	New(s.orchestrator, s.enqueuer, s.stats, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *HandlerSuite) do(method, path string) *httptest.ResponseRecorder {
	return testutil.Do(s.router, method, path)
}

func (s *HandlerSuite) TestRunSuccess() {
	campaignID := id.NewCampaignID()
	s.orchestrator.EXPECT().Run(gomock.Any(), campaignID).Return(models.Report{
		Success:       true,
		CampaignID:    campaignID,
		Prospecting:   models.ProspectingResult{Found: 4, Created: 3},
		Qualification: models.QualificationResult{Qualified: 2, Rejected: 1},
		Scheduling:    models.SchedulingResult{Sent: 2},
	})

	rec := s.do(http.MethodPost, "/campaigns/"+campaignID.String()+"/run")

	s.Equal(http.StatusOK, rec.Code)
	body := *testutil.UnmarshalResponse[map[string]any](s.T(), rec)
	s.Equal(true, body["success"])
	s.Equal(campaignID.String(), body["campaign_id"])
	s.Equal(map[string]any{"found": 4.0, "created": 3.0}, body["prospecting"])
	s.NotContains(body, "error")
}

func (s *HandlerSuite) TestRunFailureMapsCode() {
	campaignID := id.NewCampaignID()
	s.orchestrator.EXPECT().Run(gomock.Any(), campaignID).Return(models.Report{
		CampaignID: campaignID,
		Error:      "campaign not found",
		Code:       string(dErrors.CodeNotFound),
	})

	rec := s.do(http.MethodPost, "/campaigns/"+campaignID.String()+"/run")

	s.Equal(http.StatusNotFound, rec.Code)
	report := testutil.UnmarshalResponse[models.Report](s.T(), rec)
	s.False(report.Success)
	s.Equal("campaign not found", report.Error)
}

func (s *HandlerSuite) TestInvalidCampaignID() {
	rec := s.do(http.MethodPost, "/campaigns/not-a-uuid/run")
	testutil.AssertStatusAndError(s.T(), rec, http.StatusBadRequest, "bad_request")
}

func (s *HandlerSuite) TestEnqueue() {
	campaignID := id.NewCampaignID()
	s.enqueuer.EXPECT().Enqueue(gomock.Any(), campaignID).Return(nil)

	rec := s.do(http.MethodPost, "/campaigns/"+campaignID.String()+"/enqueue")

	s.Equal(http.StatusAccepted, rec.Code)
	s.JSONEq(`{"campaign_id":"`+campaignID.String()+`","task":"run_campaign","attempt":1}`, rec.Body.String())
}

func (s *HandlerSuite) TestEnqueueBrokerDown() {
	campaignID := id.NewCampaignID()
	s.enqueuer.EXPECT().Enqueue(gomock.Any(), campaignID).Return(errors.New("no brokers"))

	rec := s.do(http.MethodPost, "/campaigns/"+campaignID.String()+"/enqueue")

	testutil.AssertStatusAndError(s.T(), rec, http.StatusServiceUnavailable, "unavailable")
}

func (s *HandlerSuite) TestEnqueueWithoutQueue() {
	router := chi.NewRouter()
	New(s.orchestrator, nil, s.stats, nil).Register(router)
	rec := testutil.Do(router, http.MethodPost, "/campaigns/"+id.NewCampaignID().String()+"/enqueue")

	testutil.AssertStatusAndError(s.T(), rec, http.StatusServiceUnavailable, "unavailable")
}

func (s *HandlerSuite) TestState() {
	campaignID := id.NewCampaignID()
	s.orchestrator.EXPECT().State(gomock.Any(), campaignID).Return(&models.RunState{
		CampaignID: campaignID,
		Status:     models.StatusActive,
		Phase:      models.PhaseQualification,
		Running:    true,
	}, nil)

	rec := s.do(http.MethodGet, "/campaigns/"+campaignID.String()+"/state")

	s.Equal(http.StatusOK, rec.Code)
	state := testutil.UnmarshalResponse[models.RunState](s.T(), rec)
	s.True(state.Running)
	s.Equal(models.PhaseQualification, state.Phase)
}

func (s *HandlerSuite) TestStateNotFound() {
	campaignID := id.NewCampaignID()
	s.orchestrator.EXPECT().State(gomock.Any(), campaignID).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "no run recorded for campaign"))

	rec := s.do(http.MethodGet, "/campaigns/"+campaignID.String()+"/state")

	s.Equal(http.StatusNotFound, rec.Code)
	s.Contains(rec.Body.String(), "no run recorded")
}

func (s *HandlerSuite) TestStats() {
	campaignID := id.NewCampaignID()
	s.stats.EXPECT().Stats(gomock.Any(), campaignID).Return(&models.Stats{
		CampaignID: campaignID,
		Status:     models.StatusCompleted,
		Leads:      models.LeadCounts{Total: 3, Qualified: 2, Rejected: 1},
		Emails:     models.EmailCounts{Sent: 2},
		Scoring:    models.ScoreSummary{AverageScore: 61.5, Threshold: 60},
	}, nil)

	rec := s.do(http.MethodGet, "/campaigns/"+campaignID.String()+"/stats")

	s.Equal(http.StatusOK, rec.Code)
	body := *testutil.UnmarshalResponse[map[string]any](s.T(), rec)
	s.Equal(map[string]any{"total": 3.0, "qualified": 2.0, "rejected": 1.0}, body["leads"])
	s.Equal(map[string]any{"sent": 2.0}, body["emails"])
	s.Equal(map[string]any{"average_score": 61.5, "threshold": 60.0}, body["bant"])
	s.Nil(body["started_at"])
}

func (s *HandlerSuite) TestStatsNotFound() {
	campaignID := id.NewCampaignID()
	s.stats.EXPECT().Stats(gomock.Any(), campaignID).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "campaign not found"))

	rec := s.do(http.MethodGet, "/campaigns/"+campaignID.String()+"/stats")

	testutil.AssertStatusAndError(s.T(), rec, http.StatusNotFound, "not_found")
}
