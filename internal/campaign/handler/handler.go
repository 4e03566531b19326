// Package handler exposes campaign run triggers and run state over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"leadflow/internal/campaign/models"
	id "leadflow/pkg/domain"
	dErrors "leadflow/pkg/domain-errors"
	"leadflow/pkg/platform/httputil"
	"leadflow/pkg/requestcontext"
)

type Orchestrator interface {
	Run(ctx context.Context, campaignID id.CampaignID) models.Report
	State(ctx context.Context, campaignID id.CampaignID) (*models.RunState, error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, campaignID id.CampaignID) error
}

type StatsReader interface {
	Stats(ctx context.Context, campaignID id.CampaignID) (*models.Stats, error)
}

type Handler struct {
	orchestrator Orchestrator
	enqueuer     Enqueuer
	stats        StatsReader
	logger       *slog.Logger
}

// New builds the handler. A nil enqueuer disables the async trigger.
func New(orchestrator Orchestrator, enqueuer Enqueuer, stats StatsReader, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{orchestrator: orchestrator, enqueuer: enqueuer, stats: stats, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/campaigns/{id}", func(r chi.Router) {
		r.Post("/run", h.handleRun)
		r.Post("/enqueue", h.handleEnqueue)
		r.Get("/state", h.handleState)
		r.Get("/stats", h.handleStats)
	})
}

type enqueueResponse struct {
	CampaignID id.CampaignID `json:"campaign_id"`
	Task       string        `json:"task"`
	Attempt    int           `json:"attempt"`
}

// handleRun executes the campaign synchronously. The report is returned on
// failure too, with the status derived from its error code.
func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	report := h.orchestrator.Run(r.Context(), campaignID)
	status := http.StatusOK
	if !report.Success {
		status = httputil.StatusFor(dErrors.Code(report.Code))
	}
	httputil.WriteJSON(w, status, report)
}

func (h *Handler) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	campaignID, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	if h.enqueuer == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "task queue is not configured"))
		return
	}
	if err := h.enqueuer.Enqueue(ctx, campaignID); err != nil {
		h.logger.ErrorContext(ctx, "failed to enqueue campaign run",
			"campaign_id", campaignID.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to enqueue campaign run"))
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, enqueueResponse{
		CampaignID: campaignID,
		Task:       "run_campaign",
		Attempt:    1,
	})
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	state, err := h.orchestrator.State(r.Context(), campaignID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, state)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	stats, err := h.stats.Stats(r.Context(), campaignID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) campaignID(w http.ResponseWriter, r *http.Request) (id.CampaignID, bool) {
	campaignID, err := id.ParseCampaignID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid campaign id"))
		return id.CampaignID{}, false
	}
	return campaignID, true
}
