// Package lifecycle applies prospect state changes. Every change is
// validated against the transition table, persisted in its own transaction
// and recorded as an audit event in that same transaction.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"leadflow/internal/prospect/models"
	id "leadflow/pkg/domain"
	dErrors "leadflow/pkg/domain-errors"
	audit "leadflow/pkg/platform/audit"
	"leadflow/pkg/platform/sentinel"
	txcontext "leadflow/pkg/platform/tx"
	"leadflow/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, p *models.Prospect) error
	FindByID(ctx context.Context, prospectID id.ProspectID) (*models.Prospect, error)
	Update(ctx context.Context, p *models.Prospect) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store  Store
	tx     txcontext.Runner
	audit  AuditPublisher
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// WithTxRunner scopes each change in a database transaction. Without it
// changes run directly against the store.
func WithTxRunner(r txcontext.Runner) Option {
	return func(s *Service) { s.tx = r }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, tx: txcontext.NopRunner{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create persists a new prospect and records prospect_created.
func (s *Service) Create(ctx context.Context, p *models.Prospect) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, p); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Wrap(err, dErrors.CodeConflict, "prospect already exists for this campaign")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create prospect")
		}
		return s.emit(ctx, p, audit.EventProspectCreated, "", string(p.Status), "", map[string]string{
			"source": p.Source,
		})
	})
}

// Transition moves p to target. An illegal move returns an
// invalid_transition error and leaves p and the store untouched; moving to
// the current state is illegal too. On success p reflects the new state.
func (s *Service) Transition(ctx context.Context, p *models.Prospect, target models.Status, reason string) error {
	if err := p.CanTransition(target); err != nil {
		return err
	}

	from := p.Status
	next := *p
	next.ApplyTransition(target, requestcontext.Now(ctx))

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Update(ctx, &next); err != nil {
			return s.translateStoreErr(err, "failed to persist transition")
		}
		return s.emit(ctx, &next, audit.EventProspectTransitioned, string(from), string(target), reason, nil)
	})
	if err != nil {
		return err
	}

	*p = next
	s.logger.DebugContext(ctx, "prospect transitioned",
		"prospect_id", p.ID.String(),
		"from", string(from),
		"to", string(target),
		"reason", reason,
	)
	return nil
}

// RecordScore stores a qualification breakdown. Scores are only written
// while the prospect is being scored.
func (s *Service) RecordScore(ctx context.Context, p *models.Prospect, b models.Breakdown) error {
	if p.Status != models.StatusScoring {
		return dErrors.New(dErrors.CodeInvalidState,
			fmt.Sprintf("cannot score prospect in status %s", p.Status))
	}
	next := *p
	next.ApplyScore(b, requestcontext.Now(ctx))

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Update(ctx, &next); err != nil {
			return s.translateStoreErr(err, "failed to persist score")
		}
		return s.emit(ctx, &next, audit.EventProspectScored, "", "", "", map[string]string{
			"score":     strconv.Itoa(b.Total()),
			"budget":    strconv.Itoa(b.Budget),
			"authority": strconv.Itoa(b.Authority),
			"need":      strconv.Itoa(b.Need),
			"timeline":  strconv.Itoa(b.Timeline),
		})
	})
	if err != nil {
		return err
	}
	*p = next
	return nil
}

// RecordIntent classifies a reply. Intent is only meaningful once outreach
// went out, so the prospect must be contacted or later in the pipeline.
func (s *Service) RecordIntent(ctx context.Context, prospectID id.ProspectID, intent models.Intent) (*models.Prospect, error) {
	if !intent.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown intent %q", intent))
	}

	var out *models.Prospect
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.store.FindByID(ctx, prospectID)
		if err != nil {
			return s.translateStoreErr(err, "failed to load prospect")
		}
		switch p.Status {
		case models.StatusContacted, models.StatusMeetingScheduled, models.StatusCompleted, models.StatusRejected:
		default:
			return dErrors.New(dErrors.CodeInvalidState,
				fmt.Sprintf("cannot record intent for prospect in status %s", p.Status))
		}
		p.Intent = &intent
		p.UpdatedAt = requestcontext.Now(ctx)
		if err := s.store.Update(ctx, p); err != nil {
			return s.translateStoreErr(err, "failed to persist intent")
		}
		out = p
		return s.emit(ctx, p, audit.EventProspectIntent, "", "", "", map[string]string{
			"intent": string(intent),
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) emit(ctx context.Context, p *models.Prospect, event audit.AuditEvent, from, to, reason string, attrs map[string]string) error {
	if s.audit == nil {
		return nil
	}
	if attrs == nil {
		attrs = map[string]string{}
	}
	attrs["campaign_id"] = p.CampaignID.String()
	err := s.audit.Emit(ctx, audit.Event{
		TenantID:      p.TenantID,
		AggregateType: audit.AggregateProspect,
		AggregateID:   p.ID.String(),
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

func (s *Service) translateStoreErr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "prospect not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
