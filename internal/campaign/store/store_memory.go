// Package store persists campaigns and their phase execution records.
package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"leadflow/internal/campaign/models"
	id "leadflow/pkg/domain"
	"leadflow/pkg/platform/sentinel"
)

type InMemory struct {
	mu        sync.RWMutex
	campaigns map[id.CampaignID]*models.Campaign
	phases    map[id.CampaignID][]*models.PhaseExecution
}

func NewInMemory() *InMemory {
	return &InMemory{
		campaigns: make(map[id.CampaignID]*models.Campaign),
		phases:    make(map[id.CampaignID][]*models.PhaseExecution),
	}
}

func (s *InMemory) Create(_ context.Context, c *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.campaigns[c.ID]; exists {
		return sentinel.ErrConflict
	}
	s.campaigns[c.ID] = cloneCampaign(c)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[campaignID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneCampaign(c), nil
}

func (s *InMemory) Update(_ context.Context, c *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.campaigns[c.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	updated := cloneCampaign(c)
	updated.TenantID = existing.TenantID
	updated.CreatedAt = existing.CreatedAt
	s.campaigns[c.ID] = updated
	return nil
}

// ListByTenant returns a tenant's campaigns oldest first.
func (s *InMemory) ListByTenant(_ context.Context, tenantID id.TenantID) ([]*models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Campaign
	for _, c := range s.campaigns {
		if c.TenantID == tenantID {
			out = append(out, cloneCampaign(c))
		}
	}
	slices.SortFunc(out, func(a, b *models.Campaign) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

func (s *InMemory) CreatePhase(_ context.Context, pe *models.PhaseExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *pe
	s.phases[pe.CampaignID] = append(s.phases[pe.CampaignID], &cp)
	return nil
}

func (s *InMemory) UpdatePhase(_ context.Context, pe *models.PhaseExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.phases[pe.CampaignID] {
		if existing.ID == pe.ID {
			cp := *pe
			s.phases[pe.CampaignID][i] = &cp
			return nil
		}
	}
	return sentinel.ErrNotFound
}

// ListPhases returns a campaign's phase records in creation order.
func (s *InMemory) ListPhases(_ context.Context, campaignID id.CampaignID) ([]*models.PhaseExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.PhaseExecution, 0, len(s.phases[campaignID]))
	for _, pe := range s.phases[campaignID] {
		cp := *pe
		out = append(out, &cp)
	}
	return out, nil
}

func cloneCampaign(c *models.Campaign) *models.Campaign {
	out := *c
	out.Criteria = models.Criteria{
		JobTitles:    slices.Clone(c.Criteria.JobTitles),
		Industries:   slices.Clone(c.Criteria.Industries),
		CompanySizes: slices.Clone(c.Criteria.CompanySizes),
		Locations:    slices.Clone(c.Criteria.Locations),
	}
	if c.CreatedBy != nil {
		u := *c.CreatedBy
		out.CreatedBy = &u
	}
	if c.StartedAt != nil {
		t := *c.StartedAt
		out.StartedAt = &t
	}
	if c.CompletedAt != nil {
		t := *c.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}
