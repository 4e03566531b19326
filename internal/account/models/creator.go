package models

import (
	"time"

	id "leadflow/pkg/domain"
)

// Creator is the user who owns a campaign. Runs are refused while their
// email is unverified.
type Creator struct {
	ID            id.UserID   `json:"id"`
	TenantID      id.TenantID `json:"tenant_id"`
	Email         string      `json:"email"`
	Name          string      `json:"name,omitempty"`
	EmailVerified bool        `json:"email_verified"`
	CreatedAt     time.Time   `json:"created_at"`
}
