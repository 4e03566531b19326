// Package providers defines the outbound collaborator contracts used by the
// campaign pipeline (prospect search, enrichment lookup, message dispatch)
// and the error taxonomy their implementations report.
package providers

import (
	"context"

	"leadflow/internal/prospect/models"
)

// SearchQuery filters a prospect search. Limit caps the result count.
type SearchQuery struct {
	JobTitles    []string
	Industries   []string
	CompanySizes []string
	Locations    []string
	Limit        int
}

// ProspectSource finds candidate contacts. Zero matches is an empty slice,
// never an error.
type ProspectSource interface {
	Search(ctx context.Context, q SearchQuery) ([]models.Record, error)
}

// LookupQuery identifies a person by any combination of fields.
type LookupQuery struct {
	Email      string
	ProfileURL string
	Name       string
	Company    string
}

func (q LookupQuery) IsEmpty() bool {
	return q.Email == "" && q.ProfileURL == "" && (q.Name == "" || q.Company == "")
}

// EnrichmentClient returns extra data about one person. Not-found is
// (nil, nil).
type EnrichmentClient interface {
	Lookup(ctx context.Context, q LookupQuery) (*models.Record, error)
}

type Message struct {
	To      string
	Subject string
	Body    string
}

type SendResult struct {
	ID      string
	Success bool
}

// Dispatcher delivers one outbound message. Failures are per-recipient.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) (SendResult, error)
}
