package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "leadflow/pkg/domain-errors"
)

func TestParseCampaignID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseCampaignID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseCampaignID("campaign-42")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseCampaignID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		raw := uuid.New()
		parsed, err := ParseCampaignID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, CampaignID(raw), parsed)
	})
}

func TestParse_RejectsHostileInput(t *testing.T) {
	inputs := map[string]string{
		"sql injection":  "'; DROP TABLE prospects;--",
		"null byte":      "550e8400\x00-e29b-41d4-a716-446655440000",
		"oversized":      strings.Repeat("a", 1000),
		"whitespace":     "   ",
		"zero width gap": "550e8400\u200B-e29b-41d4-a716-446655440000",
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := ParseProspectID(input)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	valid := uuid.New().String()

	_, errTenant := ParseTenantID(valid)
	_, errUser := ParseUserID(valid)
	_, errCampaign := ParseCampaignID(valid)
	_, errProspect := ParseProspectID(valid)
	require.NoError(t, errTenant)
	require.NoError(t, errUser)
	require.NoError(t, errCampaign)
	require.NoError(t, errProspect)

	for _, input := range []string{"", "invalid", uuid.Nil.String()} {
		_, errTenant = ParseTenantID(input)
		_, errUser = ParseUserID(input)
		_, errCampaign = ParseCampaignID(input)
		_, errProspect = ParseProspectID(input)
		assert.Error(t, errTenant, input)
		assert.Error(t, errUser, input)
		assert.Error(t, errCampaign, input)
		assert.Error(t, errProspect, input)
	}
}

func TestCampaignID_JSONRoundTrip(t *testing.T) {
	original := NewCampaignID()
	payload, err := json.Marshal(struct {
		ID CampaignID `json:"campaign_id"`
	}{original})
	require.NoError(t, err)
	assert.Contains(t, string(payload), original.String())

	var decoded struct {
		ID CampaignID `json:"campaign_id"`
	}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, original, decoded.ID)

	err = json.Unmarshal([]byte(`{"campaign_id":"nope"}`), &decoded)
	assert.Error(t, err)
}
