package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"leadflow/internal/campaign/models"
	id "leadflow/pkg/domain"
	"leadflow/pkg/platform/sentinel"
	txcontext "leadflow/pkg/platform/tx"
)

// PostgresStore persists campaigns and phase_executions.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const campaignColumns = `id, tenant_id, created_by, name, description, status, criteria, email_template,
	threshold, daily_limit, started_at, completed_at, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, c *models.Campaign) error {
	criteria, tmpl, err := marshalCampaignJSON(c)
	if err != nil {
		return err
	}
	query := `INSERT INTO campaigns (` + campaignColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		c.ID.String(), c.TenantID.String(), nullableUser(c.CreatedBy), c.Name, c.Description,
		string(c.Status), criteria, tmpl, c.Threshold, c.DailyLimit,
		c.StartedAt, c.CompletedAt, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	c, err := scanCampaign(s.execer(ctx).QueryRowContext(ctx, query, campaignID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find campaign: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) Update(ctx context.Context, c *models.Campaign) error {
	criteria, tmpl, err := marshalCampaignJSON(c)
	if err != nil {
		return err
	}
	const query = `
		UPDATE campaigns SET
			name = $2, description = $3, status = $4, criteria = $5, email_template = $6,
			threshold = $7, daily_limit = $8, started_at = $9, completed_at = $10, updated_at = $11
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		c.ID.String(), c.Name, c.Description, string(c.Status), criteria, tmpl,
		c.Threshold, c.DailyLimit, c.StartedAt, c.CompletedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE tenant_id = $1 ORDER BY created_at, id`
	rows, err := s.execer(ctx).QueryContext(ctx, query, tenantID.String())
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()
	var out []*models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreatePhase(ctx context.Context, pe *models.PhaseExecution) error {
	const query = `
		INSERT INTO phase_executions (id, campaign_id, phase, status, input, output, error_message,
			started_at, completed_at, duration_ms, retry_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		pe.ID.String(), pe.CampaignID.String(), string(pe.Phase), string(pe.Status),
		nullableJSON(pe.Input), nullableJSON(pe.Output), pe.ErrorMessage,
		pe.StartedAt, pe.CompletedAt, pe.DurationMS, pe.RetryCount,
	)
	if err != nil {
		return fmt.Errorf("insert phase execution: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdatePhase(ctx context.Context, pe *models.PhaseExecution) error {
	const query = `
		UPDATE phase_executions SET status = $2, output = $3, error_message = $4,
			completed_at = $5, duration_ms = $6
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		pe.ID.String(), string(pe.Status), nullableJSON(pe.Output), pe.ErrorMessage,
		pe.CompletedAt, pe.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("update phase execution: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListPhases(ctx context.Context, campaignID id.CampaignID) ([]*models.PhaseExecution, error) {
	const query = `
		SELECT id, campaign_id, phase, status, input, output, error_message,
			started_at, completed_at, duration_ms, retry_count
		FROM phase_executions WHERE campaign_id = $1 ORDER BY started_at, id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, campaignID.String())
	if err != nil {
		return nil, fmt.Errorf("list phase executions: %w", err)
	}
	defer rows.Close()

	var out []*models.PhaseExecution
	for rows.Next() {
		var (
			pe                 models.PhaseExecution
			rawID, rawCampaign string
			phase, status      string
			input, output      []byte
			started, completed sql.NullTime
		)
		if err := rows.Scan(&rawID, &rawCampaign, &phase, &status, &input, &output, &pe.ErrorMessage,
			&started, &completed, &pe.DurationMS, &pe.RetryCount); err != nil {
			return nil, fmt.Errorf("scan phase execution: %w", err)
		}
		if pe.ID, err = id.ParsePhaseExecutionID(rawID); err != nil {
			return nil, err
		}
		if pe.CampaignID, err = id.ParseCampaignID(rawCampaign); err != nil {
			return nil, err
		}
		pe.Phase = models.Phase(phase)
		pe.Status = models.PhaseStatus(status)
		pe.Input = input
		pe.Output = output
		pe.StartedAt = timePtr(started)
		pe.CompletedAt = timePtr(completed)
		out = append(out, &pe)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*models.Campaign, error) {
	var (
		c                  models.Campaign
		rawID, rawTenant   string
		createdBy          sql.NullString
		status             string
		criteria, tmpl     []byte
		started, completed sql.NullTime
	)
	if err := row.Scan(&rawID, &rawTenant, &createdBy, &c.Name, &c.Description, &status,
		&criteria, &tmpl, &c.Threshold, &c.DailyLimit, &started, &completed,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if c.ID, err = id.ParseCampaignID(rawID); err != nil {
		return nil, err
	}
	if c.TenantID, err = id.ParseTenantID(rawTenant); err != nil {
		return nil, err
	}
	if createdBy.Valid {
		u, err := id.ParseUserID(createdBy.String)
		if err != nil {
			return nil, err
		}
		c.CreatedBy = &u
	}
	c.Status = models.Status(status)
	if err := json.Unmarshal(criteria, &c.Criteria); err != nil {
		return nil, fmt.Errorf("decode criteria: %w", err)
	}
	if err := json.Unmarshal(tmpl, &c.EmailTemplate); err != nil {
		return nil, fmt.Errorf("decode email template: %w", err)
	}
	c.StartedAt = timePtr(started)
	c.CompletedAt = timePtr(completed)
	return &c, nil
}

func marshalCampaignJSON(c *models.Campaign) ([]byte, []byte, error) {
	criteria, err := json.Marshal(c.Criteria)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal criteria: %w", err)
	}
	tmpl, err := json.Marshal(c.EmailTemplate)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal email template: %w", err)
	}
	return criteria, tmpl, nil
}

func nullableUser(u *id.UserID) any {
	if u == nil {
		return nil
	}
	return u.String()
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
