package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"leadflow/internal/prospect/models"
	id "leadflow/pkg/domain"
	"leadflow/pkg/platform/sentinel"
	pstrings "leadflow/pkg/platform/strings"
	txcontext "leadflow/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists prospects in the prospects table. Writes join the
// transaction carried by ctx when there is one.
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

const prospectColumns = `id, campaign_id, tenant_id, email, first_name, last_name, phone, job_title,
	company_name, company_industry, company_size, location, linkedin_url, enrichment_data,
	score, budget_score, authority_score, need_score, timeline_score, intent, status, source,
	created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, p *models.Prospect) error {
	enrichment, err := json.Marshal(p.EnrichmentData)
	if err != nil {
		return fmt.Errorf("marshal enrichment data: %w", err)
	}
	score, budget, authority, need, timeline := scoreColumns(p)
	query := `INSERT INTO prospects (` + prospectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		p.ID.String(), p.CampaignID.String(), p.TenantID.String(), pstrings.NormalizeEmail(p.Email),
		p.FirstName, p.LastName, p.Phone, p.JobTitle,
		p.CompanyName, p.CompanyIndustry, p.CompanySize, p.Location, p.LinkedInURL, enrichment,
		score, budget, authority, need, timeline, intentColumn(p), string(p.Status), p.Source,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("prospect %s in campaign %s: %w", p.Email, p.CampaignID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert prospect: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, prospectID id.ProspectID) (*models.Prospect, error) {
	query := `SELECT ` + prospectColumns + ` FROM prospects WHERE id = $1`
	p, err := scanProspect(s.execer(ctx).QueryRowContext(ctx, query, prospectID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find prospect: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Update(ctx context.Context, p *models.Prospect) error {
	enrichment, err := json.Marshal(p.EnrichmentData)
	if err != nil {
		return fmt.Errorf("marshal enrichment data: %w", err)
	}
	score, budget, authority, need, timeline := scoreColumns(p)
	const query = `
		UPDATE prospects SET
			first_name = $2, last_name = $3, phone = $4, job_title = $5,
			company_name = $6, company_industry = $7, company_size = $8, location = $9,
			linkedin_url = $10, enrichment_data = $11, score = $12, budget_score = $13,
			authority_score = $14, need_score = $15, timeline_score = $16, intent = $17,
			status = $18, source = $19, updated_at = $20
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		p.ID.String(), p.FirstName, p.LastName, p.Phone, p.JobTitle,
		p.CompanyName, p.CompanyIndustry, p.CompanySize, p.Location,
		p.LinkedInURL, enrichment, score, budget,
		authority, need, timeline, intentColumn(p),
		string(p.Status), p.Source, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update prospect: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update prospect: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.ProspectFilter) ([]*models.Prospect, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if !filter.TenantID.IsNil() {
		add("tenant_id = $%d", filter.TenantID.String())
	}
	if !filter.CampaignID.IsNil() {
		add("campaign_id = $%d", filter.CampaignID.String())
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		add("status = ANY($%d)", pq.Array(statuses))
	}
	if filter.Email != "" {
		add("email = $%d", pstrings.NormalizeEmail(filter.Email))
	}
	if filter.MinScore != nil {
		add("score >= $%d", *filter.MinScore)
	}
	if filter.MaxScore != nil {
		add("score <= $%d", *filter.MaxScore)
	}

	query := `SELECT ` + prospectColumns + ` FROM prospects`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list prospects: %w", err)
	}
	defer rows.Close()

	var out []*models.Prospect
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prospect: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ExistsByEmail(ctx context.Context, campaignID id.CampaignID, tenantID id.TenantID, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM prospects WHERE campaign_id = $1 AND tenant_id = $2 AND email = $3)`
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx, query,
		campaignID.String(), tenantID.String(), pstrings.NormalizeEmail(email),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check prospect email: %w", err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProspect(row rowScanner) (*models.Prospect, error) {
	var (
		p                                  models.Prospect
		rawID, rawCampaign, rawTenant      string
		enrichment                         []byte
		score, budget, authority, need, tl sql.NullInt64
		intent                             sql.NullString
		status                             string
	)
	err := row.Scan(
		&rawID, &rawCampaign, &rawTenant, &p.Email, &p.FirstName, &p.LastName, &p.Phone, &p.JobTitle,
		&p.CompanyName, &p.CompanyIndustry, &p.CompanySize, &p.Location, &p.LinkedInURL, &enrichment,
		&score, &budget, &authority, &need, &tl, &intent, &status, &p.Source,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.ID, err = id.ParseProspectID(rawID); err != nil {
		return nil, err
	}
	if p.CampaignID, err = id.ParseCampaignID(rawCampaign); err != nil {
		return nil, err
	}
	if p.TenantID, err = id.ParseTenantID(rawTenant); err != nil {
		return nil, err
	}
	p.Status = models.Status(status)
	if len(enrichment) > 0 {
		if err := json.Unmarshal(enrichment, &p.EnrichmentData); err != nil {
			return nil, fmt.Errorf("decode enrichment data: %w", err)
		}
	}
	if score.Valid {
		total := int(score.Int64)
		p.Score = &total
	}
	if budget.Valid && authority.Valid && need.Valid && tl.Valid {
		p.Breakdown = &models.Breakdown{
			Budget:    int(budget.Int64),
			Authority: int(authority.Int64),
			Need:      int(need.Int64),
			Timeline:  int(tl.Int64),
		}
	}
	if intent.Valid {
		in := models.Intent(intent.String)
		p.Intent = &in
	}
	return &p, nil
}

func scoreColumns(p *models.Prospect) (score, budget, authority, need, timeline any) {
	if p.Score != nil {
		score = *p.Score
	}
	if p.Breakdown != nil {
		budget, authority, need, timeline = p.Breakdown.Budget, p.Breakdown.Authority, p.Breakdown.Need, p.Breakdown.Timeline
	}
	return score, budget, authority, need, timeline
}

func intentColumn(p *models.Prospect) any {
	if p.Intent == nil {
		return nil
	}
	return string(*p.Intent)
}
