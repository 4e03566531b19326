package orchestrator

import (
	"context"

	accountmodels "leadflow/internal/account/models"
	campaignmodels "leadflow/internal/campaign/models"
	"leadflow/internal/outreach"
	"leadflow/internal/prospect/models"
	"leadflow/internal/providers"
	id "leadflow/pkg/domain"
)

// ProspectSource finds candidate contacts for a campaign's criteria.
type ProspectSource interface {
	Search(ctx context.Context, q providers.SearchQuery) ([]models.Record, error)
}

// Dispatcher sends one outreach message.
type Dispatcher interface {
	Send(ctx context.Context, msg providers.Message) (providers.SendResult, error)
}

// ContentGenerator renders outreach for a qualified prospect.
type ContentGenerator interface {
	Generate(ctx context.Context, c *campaignmodels.Campaign, p *models.Prospect) (outreach.Content, error)
}

// CreatorDirectory resolves the user who owns a campaign.
type CreatorDirectory interface {
	FindByID(ctx context.Context, userID id.UserID) (*accountmodels.Creator, error)
}
