package runstate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadflow/internal/campaign/models"
	id "leadflow/pkg/domain"
	"leadflow/pkg/platform/sentinel"
)

func TestInMemoryState(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	campaignID := id.NewCampaignID()

	_, err := s.Load(ctx, campaignID)
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	state := models.RunState{
		CampaignID: campaignID,
		Status:     models.StatusActive,
		Phase:      models.PhaseQualification,
		Running:    true,
		UpdatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, s.Save(ctx, state))

	got, err := s.Load(ctx, campaignID)
	require.NoError(t, err)
	assert.Equal(t, state, *got)
}

func TestMemoryLock(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLock()
	campaignID := id.NewCampaignID()

	release, err := l.Acquire(ctx, campaignID)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, campaignID)
	assert.ErrorIs(t, err, sentinel.ErrLocked)

	other, err := l.Acquire(ctx, id.NewCampaignID())
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx))

	again, err := l.Acquire(ctx, campaignID)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}
