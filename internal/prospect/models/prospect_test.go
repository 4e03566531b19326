package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "leadflow/pkg/domain"
	dErrors "leadflow/pkg/domain-errors"
)

var now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func TestNewProspect(t *testing.T) {
	campaignID, tenantID := id.NewCampaignID(), id.NewTenantID()

	t.Run("normalises email and defaults source", func(t *testing.T) {
		p, err := NewProspect(campaignID, tenantID, Record{Email: " Jane@Acme.IO ", JobTitle: "VP Sales"}, StatusEnriched, now)
		require.NoError(t, err)
		assert.Equal(t, "jane@acme.io", p.Email)
		assert.Equal(t, DefaultSource, p.Source)
		assert.Equal(t, StatusEnriched, p.Status)
		assert.Nil(t, p.Score)
		assert.Nil(t, p.Breakdown)
		assert.NotNil(t, p.EnrichmentData)
	})

	t.Run("requires email", func(t *testing.T) {
		_, err := NewProspect(campaignID, tenantID, Record{FirstName: "Jane"}, StatusEnriched, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("requires owning campaign and tenant", func(t *testing.T) {
		_, err := NewProspect(id.CampaignID{}, tenantID, Record{Email: "a@b.io"}, StatusNew, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := NewProspect(campaignID, tenantID, Record{Email: "a@b.io"}, Status("lost"), now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestProspect_Transition(t *testing.T) {
	p := &Prospect{Status: StatusScoring}

	err := p.CanTransition(StatusContacted)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	require.NoError(t, p.CanTransition(StatusQualified))
	p.ApplyTransition(StatusQualified, now)
	assert.Equal(t, StatusQualified, p.Status)
	assert.Equal(t, now, p.UpdatedAt)

	// same target again is not a no-op
	assert.Error(t, p.CanTransition(StatusQualified))
}

func TestProspect_ApplyScore(t *testing.T) {
	p := &Prospect{}
	p.ApplyScore(Breakdown{Budget: 18, Authority: 18, Need: 10, Timeline: 10}, now)
	require.NotNil(t, p.Score)
	assert.Equal(t, 56, *p.Score)
	assert.Equal(t, 18, p.Breakdown.Authority)
}

func TestProspect_Industry(t *testing.T) {
	assert.Equal(t, "Fintech", (&Prospect{CompanyIndustry: "Fintech", CompanyName: "Acme"}).Industry())
	assert.Equal(t, "Acme", (&Prospect{CompanyName: "Acme"}).Industry())
}

func TestRecord_Merge(t *testing.T) {
	base := Record{
		Email:     "jane@acme.io",
		FirstName: "Jane",
		JobTitle:  "VP Sales",
		Raw:       map[string]any{"source_rank": 3},
	}

	t.Run("enriched value wins only when non-empty", func(t *testing.T) {
		merged := base.Merge(&Record{
			JobTitle:    "",
			CompanySize: "51-200",
			LastName:    "Doe",
			Raw:         map[string]any{"current_employer_size": "51-200", "ignored": nil},
		})
		assert.Equal(t, "VP Sales", merged.JobTitle)
		assert.Equal(t, "51-200", merged.CompanySize)
		assert.Equal(t, "Doe", merged.LastName)
		assert.Equal(t, 3, merged.Raw["source_rank"])
		assert.Equal(t, "51-200", merged.Raw["current_employer_size"])
		assert.NotContains(t, merged.Raw, "ignored")
	})

	t.Run("nil enrichment is a no-op", func(t *testing.T) {
		assert.Equal(t, base, base.Merge(nil))
	})

	t.Run("does not mutate receiver raw map", func(t *testing.T) {
		_ = base.Merge(&Record{Raw: map[string]any{"k": "v"}})
		assert.NotContains(t, base.Raw, "k")
	})
}
