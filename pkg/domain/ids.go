// Package domain holds typed identifiers shared across bounded contexts.
// Each ID is a distinct named uuid.UUID so a CampaignID can never be passed
// where a ProspectID is expected.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "leadflow/pkg/domain-errors"
)

type (
	TenantID         uuid.UUID
	UserID           uuid.UUID
	CampaignID       uuid.UUID
	ProspectID       uuid.UUID
	PhaseExecutionID uuid.UUID
)

func (id TenantID) String() string         { return uuid.UUID(id).String() }
func (id UserID) String() string           { return uuid.UUID(id).String() }
func (id CampaignID) String() string       { return uuid.UUID(id).String() }
func (id ProspectID) String() string       { return uuid.UUID(id).String() }
func (id PhaseExecutionID) String() string { return uuid.UUID(id).String() }

func (id TenantID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id CampaignID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ProspectID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id CampaignID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id ProspectID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id TenantID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id UserID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }

func (id PhaseExecutionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *CampaignID) UnmarshalText(b []byte) error {
	parsed, err := ParseCampaignID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ProspectID) UnmarshalText(b []byte) error {
	parsed, err := ParseProspectID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *TenantID) UnmarshalText(b []byte) error {
	parsed, err := ParseTenantID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func NewTenantID() TenantID                 { return TenantID(uuid.New()) }
func NewUserID() UserID                     { return UserID(uuid.New()) }
func NewCampaignID() CampaignID             { return CampaignID(uuid.New()) }
func NewProspectID() ProspectID             { return ProspectID(uuid.New()) }
func NewPhaseExecutionID() PhaseExecutionID { return PhaseExecutionID(uuid.New()) }

func ParseTenantID(s string) (TenantID, error) {
	u, err := parseUUID(s, "tenant")
	return TenantID(u), err
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user")
	return UserID(u), err
}

func ParseCampaignID(s string) (CampaignID, error) {
	u, err := parseUUID(s, "campaign")
	return CampaignID(u), err
}

func ParseProspectID(s string) (ProspectID, error) {
	u, err := parseUUID(s, "prospect")
	return ProspectID(u), err
}

func ParsePhaseExecutionID(s string) (PhaseExecutionID, error) {
	u, err := parseUUID(s, "phase execution")
	return PhaseExecutionID(u), err
}

// parseUUID rejects empty, malformed and nil UUIDs.
func parseUUID(s, kind string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be nil")
	}
	return u, nil
}
