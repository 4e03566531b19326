// Package store persists prospects. The in-memory store serves tests and
// local runs; the Postgres store backs deployments.
package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"leadflow/internal/prospect/models"
	id "leadflow/pkg/domain"
	"leadflow/pkg/platform/sentinel"
	pstrings "leadflow/pkg/platform/strings"
)

// InMemory is a concurrency-safe prospect store. Stored values are copied on
// the way in and out so callers cannot mutate shared state.
type InMemory struct {
	mu        sync.RWMutex
	prospects map[id.ProspectID]*models.Prospect
	byEmail   map[emailKey]id.ProspectID
}

type emailKey struct {
	campaign id.CampaignID
	email    string
}

func NewInMemory() *InMemory {
	return &InMemory{
		prospects: make(map[id.ProspectID]*models.Prospect),
		byEmail:   make(map[emailKey]id.ProspectID),
	}
}

func (s *InMemory) Create(_ context.Context, p *models.Prospect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := emailKey{campaign: p.CampaignID, email: pstrings.NormalizeEmail(p.Email)}
	if _, taken := s.byEmail[key]; taken {
		return fmt.Errorf("prospect %s in campaign %s: %w", key.email, p.CampaignID, sentinel.ErrConflict)
	}
	if _, exists := s.prospects[p.ID]; exists {
		return fmt.Errorf("prospect %s: %w", p.ID, sentinel.ErrConflict)
	}
	s.prospects[p.ID] = clone(p)
	s.byEmail[key] = p.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, prospectID id.ProspectID) (*models.Prospect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prospects[prospectID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(p), nil
}

// Update replaces the mutable fields of an existing prospect. Campaign,
// tenant and email are fixed at creation and ignored here.
func (s *InMemory) Update(_ context.Context, p *models.Prospect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.prospects[p.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	updated := clone(p)
	updated.CampaignID = existing.CampaignID
	updated.TenantID = existing.TenantID
	updated.Email = existing.Email
	updated.CreatedAt = existing.CreatedAt
	s.prospects[p.ID] = updated
	return nil
}

// List returns matches ordered by CreatedAt, then ID.
func (s *InMemory) List(_ context.Context, filter models.ProspectFilter) ([]*models.Prospect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Prospect
	for _, p := range s.prospects {
		if filter.Matches(p) {
			out = append(out, clone(p))
		}
	}
	slices.SortFunc(out, func(a, b *models.Prospect) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *InMemory) ExistsByEmail(_ context.Context, campaignID id.CampaignID, tenantID id.TenantID, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prospectID, ok := s.byEmail[emailKey{campaign: campaignID, email: pstrings.NormalizeEmail(email)}]
	if !ok {
		return false, nil
	}
	return s.prospects[prospectID].TenantID == tenantID, nil
}

func clone(p *models.Prospect) *models.Prospect {
	out := *p
	if p.EnrichmentData != nil {
		out.EnrichmentData = make(map[string]any, len(p.EnrichmentData))
		for k, v := range p.EnrichmentData {
			out.EnrichmentData[k] = v
		}
	}
	if p.Score != nil {
		score := *p.Score
		out.Score = &score
	}
	if p.Breakdown != nil {
		b := *p.Breakdown
		out.Breakdown = &b
	}
	if p.Intent != nil {
		intent := *p.Intent
		out.Intent = &intent
	}
	return &out
}
