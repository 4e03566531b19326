// Package store is the creator directory.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"leadflow/internal/account/models"
	id "leadflow/pkg/domain"
	"leadflow/pkg/platform/sentinel"
	pstrings "leadflow/pkg/platform/strings"
)

type InMemory struct {
	mu       sync.RWMutex
	creators map[id.UserID]*models.Creator
}

func NewInMemory() *InMemory {
	return &InMemory{creators: make(map[id.UserID]*models.Creator)}
}

func (s *InMemory) Save(_ context.Context, c *models.Creator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	cp.Email = pstrings.NormalizeEmail(cp.Email)
	s.creators[c.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*models.Creator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.creators[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Save upserts a creator, refreshing email, name and verification.
func (s *PostgresStore) Save(ctx context.Context, c *models.Creator) error {
	const query = `
		INSERT INTO creators (id, tenant_id, email, name, email_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email, name = EXCLUDED.name, email_verified = EXCLUDED.email_verified
	`
	_, err := s.db.ExecContext(ctx, query,
		c.ID.String(), c.TenantID.String(), pstrings.NormalizeEmail(c.Email), c.Name, c.EmailVerified, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("save creator: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.Creator, error) {
	const query = `SELECT id, tenant_id, email, name, email_verified, created_at FROM creators WHERE id = $1`
	var (
		c                models.Creator
		rawID, rawTenant string
	)
	err := s.db.QueryRowContext(ctx, query, userID.String()).Scan(
		&rawID, &rawTenant, &c.Email, &c.Name, &c.EmailVerified, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find creator: %w", err)
	}
	if c.ID, err = id.ParseUserID(rawID); err != nil {
		return nil, err
	}
	if c.TenantID, err = id.ParseTenantID(rawTenant); err != nil {
		return nil, err
	}
	return &c, nil
}
