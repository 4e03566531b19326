package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	audit "leadflow/pkg/platform/audit"
	txcontext "leadflow/pkg/platform/tx"
)

// Store implements audit.Store with the transactional outbox pattern. When
// the caller's context carries a transaction (see pkg/platform/tx) the outbox
// row commits atomically with the state change it describes.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

type outboxPayload struct {
	ID            string            `json:"id"`
	Category      string            `json:"category"`
	Timestamp     string            `json:"timestamp"`
	TenantID      string            `json:"tenant_id,omitempty"`
	AggregateType string            `json:"aggregate_type"`
	AggregateID   string            `json:"aggregate_id"`
	Action        string            `json:"action"`
	From          string            `json:"from,omitempty"`
	To            string            `json:"to,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	RequestID     string            `json:"request_id,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	payload := outboxPayload{
		ID:            eventID.String(),
		Category:      string(audit.AuditEvent(event.Action).Category()),
		Timestamp:     ts.Format(time.RFC3339Nano),
		AggregateType: string(event.AggregateType),
		AggregateID:   event.AggregateID,
		Action:        event.Action,
		From:          event.From,
		To:            event.To,
		Reason:        event.Reason,
		RequestID:     event.RequestID,
		Attributes:    event.Attributes,
	}
	if !event.TenantID.IsNil() {
		payload.TenantID = event.TenantID.String()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	const query = `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query,
		eventID,
		string(event.AggregateType),
		event.AggregateID,
		event.Action,
		body,
		ts,
	); err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}
