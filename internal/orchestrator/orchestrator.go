// Package orchestrator runs a campaign through its three fixed phases:
// prospecting, qualification and scheduling. Failures of a single prospect
// are logged and counted; an error escaping a phase ends the run and pauses
// the campaign. Re-running a paused campaign is safe: prospecting skips
// known emails and each later phase only picks up prospects in the status it
// consumes.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	campaignmodels "leadflow/internal/campaign/models"
	"leadflow/internal/enrichment"
	"leadflow/internal/prospect/models"
	"leadflow/internal/scoring"
	id "leadflow/pkg/domain"
	dErrors "leadflow/pkg/domain-errors"
	audit "leadflow/pkg/platform/audit"
	"leadflow/pkg/platform/sentinel"
	txcontext "leadflow/pkg/platform/tx"
	"leadflow/pkg/requestcontext"
)

const tracerName = "leadflow/orchestrator"

type CampaignStore interface {
	FindByID(ctx context.Context, campaignID id.CampaignID) (*campaignmodels.Campaign, error)
	Update(ctx context.Context, c *campaignmodels.Campaign) error
	CreatePhase(ctx context.Context, pe *campaignmodels.PhaseExecution) error
	UpdatePhase(ctx context.Context, pe *campaignmodels.PhaseExecution) error
}

type ProspectStore interface {
	List(ctx context.Context, filter models.ProspectFilter) ([]*models.Prospect, error)
}

// Lifecycle applies prospect state changes, one transaction each.
type Lifecycle interface {
	Create(ctx context.Context, p *models.Prospect) error
	Transition(ctx context.Context, p *models.Prospect, target models.Status, reason string) error
	RecordScore(ctx context.Context, p *models.Prospect, b models.Breakdown) error
}

type Coordinator interface {
	Process(ctx context.Context, campaignID id.CampaignID, tenantID id.TenantID,
		records []models.Record, criteria *scoring.Criteria) ([]enrichment.Candidate, enrichment.Stats, error)
}

type Scorer interface {
	Qualify(in scoring.QualificationInput, threshold int) (scoring.Result, error)
}

type StateStore interface {
	Save(ctx context.Context, state campaignmodels.RunState) error
	Load(ctx context.Context, campaignID id.CampaignID) (*campaignmodels.RunState, error)
}

// RunLock keeps one run per campaign. Acquire returns sentinel.ErrLocked
// when another run holds it.
type RunLock interface {
	Acquire(ctx context.Context, campaignID id.CampaignID) (func(context.Context) error, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Deps are the collaborators every run needs. Creators is optional; without
// it the creator verification check is skipped.
type Deps struct {
	Campaigns   CampaignStore
	Prospects   ProspectStore
	Lifecycle   Lifecycle
	Coordinator Coordinator
	Scorer      Scorer
	Source      ProspectSource
	Generator   ContentGenerator
	Dispatcher  Dispatcher
	Creators    CreatorDirectory
}

type Orchestrator struct {
	Deps
	state   StateStore
	lock    RunLock
	audit   AuditPublisher
	tx      txcontext.Runner
	metrics *Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithStateStore publishes a run snapshot at every phase boundary.
func WithStateStore(s StateStore) Option {
	return func(o *Orchestrator) { o.state = s }
}

func WithRunLock(l RunLock) Option {
	return func(o *Orchestrator) { o.lock = l }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(o *Orchestrator) { o.audit = p }
}

func WithTxRunner(r txcontext.Runner) Option {
	return func(o *Orchestrator) { o.tx = r }
}

func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

func New(deps Deps, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		Deps:   deps,
		tx:     txcontext.NopRunner{},
		tracer: otel.Tracer(tracerName),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes every phase for the campaign and reports the outcome. It
// never returns an error: failures are reported with Success=false, the
// error text and its domain code.
func (o *Orchestrator) Run(ctx context.Context, campaignID id.CampaignID) campaignmodels.Report {
	ctx, span := o.tracer.Start(ctx, "campaign.run",
		trace.WithAttributes(attribute.String("campaign.id", campaignID.String())))
	defer span.End()

	start := time.Now()
	report := campaignmodels.Report{CampaignID: campaignID}

	if o.lock != nil {
		release, err := o.lock.Acquire(ctx, campaignID)
		if err != nil {
			if errors.Is(err, sentinel.ErrLocked) {
				err = dErrors.Wrap(err, dErrors.CodeConflict, "campaign run already in progress")
			} else {
				err = dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to acquire campaign run lock")
			}
			return o.reject(ctx, span, report, err, start)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				o.logger.WarnContext(ctx, "failed to release run lock",
					"campaign_id", campaignID.String(),
					"error", err,
				)
			}
		}()
	}

	c, err := o.validate(ctx, campaignID)
	if err != nil {
		return o.reject(ctx, span, report, err, start)
	}

	retryCount := max(requestcontext.TaskAttempt(ctx)-1, 0)
	o.logger.InfoContext(ctx, "campaign run started",
		"campaign_id", c.ID.String(),
		"tenant_id", c.TenantID.String(),
		"retry_count", retryCount,
	)

	if err := o.runPhases(ctx, c, &report, retryCount); err != nil {
		o.pause(ctx, c, &report, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.metrics.observeRun(OutcomeFailed, time.Since(start))
		return report
	}

	if err := o.complete(ctx, c, &report); err != nil {
		o.pause(ctx, c, &report, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.metrics.observeRun(OutcomeFailed, time.Since(start))
		return report
	}

	o.metrics.observeRun(OutcomeSucceeded, time.Since(start))
	o.logger.InfoContext(ctx, "campaign run completed",
		"campaign_id", c.ID.String(),
		"found", report.Prospecting.Found,
		"created", report.Prospecting.Created,
		"qualified", report.Qualification.Qualified,
		"rejected", report.Qualification.Rejected,
		"sent", report.Scheduling.Sent,
		"failed", report.Scheduling.Failed,
	)
	return report
}

// State returns the latest run snapshot for the campaign.
func (o *Orchestrator) State(ctx context.Context, campaignID id.CampaignID) (*campaignmodels.RunState, error) {
	if o.state == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "run state is not configured")
	}
	state, err := o.state.Load(ctx, campaignID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "no run recorded for campaign")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load run state")
	}
	return state, nil
}

// validate checks every precondition without mutating anything.
func (o *Orchestrator) validate(ctx context.Context, campaignID id.CampaignID) (*campaignmodels.Campaign, error) {
	c, err := o.Campaigns.FindByID(ctx, campaignID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "campaign not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load campaign")
	}
	if c.CreatedBy != nil && o.Creators != nil {
		if err := o.checkCreator(ctx, c); err != nil {
			return nil, err
		}
	}
	if err := c.CanRun(); err != nil {
		return nil, err
	}
	return c, nil
}

// checkCreator blocks a run only for a known, unverified creator. A creator
// missing from the account store is logged and ignored.
func (o *Orchestrator) checkCreator(ctx context.Context, c *campaignmodels.Campaign) error {
	creator, err := o.Creators.FindByID(ctx, *c.CreatedBy)
	if errors.Is(err, sentinel.ErrNotFound) {
		o.logger.WarnContext(ctx, "campaign creator not found",
			"campaign_id", c.ID.String(),
			"creator_id", c.CreatedBy.String(),
		)
		return nil
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load campaign creator")
	}
	if !creator.EmailVerified {
		return dErrors.New(dErrors.CodeValidation, "campaign creator email is not verified")
	}
	return nil
}

func (o *Orchestrator) runPhases(ctx context.Context, c *campaignmodels.Campaign, report *campaignmodels.Report, retryCount int) error {
	var err error
	report.Prospecting, err = runPhase(ctx, o, c, report, campaignmodels.PhaseProspecting, retryCount, o.prospect)
	if err != nil {
		return err
	}
	report.Qualification, err = runPhase(ctx, o, c, report, campaignmodels.PhaseQualification, retryCount, o.qualify)
	if err != nil {
		return err
	}
	report.Scheduling, err = runPhase(ctx, o, c, report, campaignmodels.PhaseScheduling, retryCount, o.schedule)
	return err
}

// runPhase wraps fn in a phase execution record, a span and a state
// snapshot.
func runPhase[T any](
	ctx context.Context,
	o *Orchestrator,
	c *campaignmodels.Campaign,
	report *campaignmodels.Report,
	phase campaignmodels.Phase,
	retryCount int,
	fn func(context.Context, *campaignmodels.Campaign) (T, error),
) (T, error) {
	var zero T
	ctx, span := o.tracer.Start(ctx, "campaign.phase."+string(phase),
		trace.WithAttributes(
			attribute.String("campaign.id", c.ID.String()),
			attribute.String("campaign.phase", string(phase)),
		))
	defer span.End()

	start := time.Now()
	pe := campaignmodels.NewPhaseExecution(c.ID, phase, phaseInput(c, phase), retryCount, requestcontext.Now(ctx))
	if err := o.Campaigns.CreatePhase(ctx, pe); err != nil {
		return zero, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record phase start")
	}
	o.saveState(ctx, c, phase, true, *report)

	out, err := fn(ctx, c)
	if err != nil {
		pe.Fail(err, requestcontext.Now(ctx))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.emit(ctx, c, audit.EventPhaseFailed, "", "", err.Error(), map[string]string{"phase": string(phase)})
	} else {
		pe.Complete(out, requestcontext.Now(ctx))
	}
	if uerr := o.Campaigns.UpdatePhase(ctx, pe); uerr != nil {
		o.logger.WarnContext(ctx, "failed to record phase result",
			"campaign_id", c.ID.String(),
			"phase", string(phase),
			"error", uerr,
		)
	}
	o.metrics.observePhase(phase, pe.Status, time.Since(start))
	return out, err
}

type prospectingInput struct {
	Criteria campaignmodels.Criteria `json:"criteria"`
	Limit    int                     `json:"limit"`
}

type qualificationInput struct {
	Threshold int `json:"threshold"`
}

type schedulingInput struct {
	SchedulingURL string `json:"scheduling_url,omitempty"`
}

func phaseInput(c *campaignmodels.Campaign, phase campaignmodels.Phase) any {
	switch phase {
	case campaignmodels.PhaseProspecting:
		return prospectingInput{Criteria: c.Criteria, Limit: c.DailyLimit}
	case campaignmodels.PhaseQualification:
		return qualificationInput{Threshold: c.Threshold}
	default:
		return schedulingInput{SchedulingURL: c.EmailTemplate.SchedulingURL}
	}
}

func (o *Orchestrator) complete(ctx context.Context, c *campaignmodels.Campaign, report *campaignmodels.Report) error {
	from := c.Status
	next := *c
	next.ApplyRunComplete(requestcontext.Now(ctx))
	err := o.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := o.Campaigns.Update(ctx, &next); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark campaign completed")
		}
		return o.emitTx(ctx, &next, audit.EventCampaignCompleted, string(from), string(next.Status), "", map[string]string{
			"created":   strconv.Itoa(report.Prospecting.Created),
			"qualified": strconv.Itoa(report.Qualification.Qualified),
			"sent":      strconv.Itoa(report.Scheduling.Sent),
		})
	})
	if err != nil {
		return err
	}
	*c = next
	report.Success = true
	o.saveState(ctx, c, "", false, *report)
	return nil
}

// pause records the escaping error on the report and parks the campaign.
func (o *Orchestrator) pause(ctx context.Context, c *campaignmodels.Campaign, report *campaignmodels.Report, cause error) {
	report.Success = false
	report.Error = cause.Error()
	report.Code = string(dErrors.CodeOf(cause))

	// Pause even when the caller has gone away.
	ctx = context.WithoutCancel(ctx)
	from := c.Status
	next := *c
	next.ApplyPause(requestcontext.Now(ctx))
	err := o.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := o.Campaigns.Update(ctx, &next); err != nil {
			return err
		}
		return o.emitTx(ctx, &next, audit.EventCampaignPaused, string(from), string(next.Status), cause.Error(), nil)
	})
	if err != nil {
		o.logger.ErrorContext(ctx, "failed to pause campaign after run failure",
			"campaign_id", c.ID.String(),
			"error", err,
		)
	} else {
		*c = next
	}
	o.logger.ErrorContext(ctx, "campaign run failed",
		"campaign_id", c.ID.String(),
		"error", cause,
	)
	o.saveState(ctx, c, "", false, *report)
}

// reject reports a run that never started. Nothing is persisted.
func (o *Orchestrator) reject(ctx context.Context, span trace.Span, report campaignmodels.Report, err error, start time.Time) campaignmodels.Report {
	report.Success = false
	report.Error = err.Error()
	report.Code = string(dErrors.CodeOf(err))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	o.metrics.observeRun(OutcomeRejected, time.Since(start))
	o.logger.WarnContext(ctx, "campaign run rejected",
		"campaign_id", report.CampaignID.String(),
		"code", report.Code,
		"error", err,
	)
	return report
}

func (o *Orchestrator) saveState(ctx context.Context, c *campaignmodels.Campaign, phase campaignmodels.Phase, running bool, report campaignmodels.Report) {
	if o.state == nil {
		return
	}
	err := o.state.Save(ctx, campaignmodels.RunState{
		CampaignID: c.ID,
		Status:     c.Status,
		Phase:      phase,
		Running:    running,
		Report:     report,
		UpdatedAt:  requestcontext.Now(ctx),
	})
	if err != nil {
		o.logger.WarnContext(ctx, "failed to save run state",
			"campaign_id", c.ID.String(),
			"error", err,
		)
	}
}

// emit records a best-effort audit event outside any transaction.
func (o *Orchestrator) emit(ctx context.Context, c *campaignmodels.Campaign, event audit.AuditEvent, from, to, reason string, attrs map[string]string) {
	if err := o.emitTx(ctx, c, event, from, to, reason, attrs); err != nil {
		o.logger.WarnContext(ctx, "failed to record audit event",
			"campaign_id", c.ID.String(),
			"action", string(event),
			"error", err,
		)
	}
}

func (o *Orchestrator) emitTx(ctx context.Context, c *campaignmodels.Campaign, event audit.AuditEvent, from, to, reason string, attrs map[string]string) error {
	if o.audit == nil {
		return nil
	}
	err := o.audit.Emit(ctx, audit.Event{
		TenantID:      c.TenantID,
		AggregateType: audit.AggregateCampaign,
		AggregateID:   c.ID.String(),
		Action:        string(event),
		From:          from,
		To:            to,
		Reason:        reason,
		Attributes:    attrs,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}
