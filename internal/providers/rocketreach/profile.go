package rocketreach

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"leadflow/internal/prospect/models"
)

type profile struct {
	Email  string `json:"email"`
	Emails []struct {
		Email string `json:"email"`
		Type  string `json:"type"`
	} `json:"emails"`
	Name                    string          `json:"name"`
	FirstName               string          `json:"first_name"`
	LastName                string          `json:"last_name"`
	CurrentTitle            string          `json:"current_title"`
	CurrentEmployer         string          `json:"current_employer"`
	CurrentEmployerDomain   string          `json:"current_employer_domain"`
	CurrentEmployerSize     json.RawMessage `json:"current_employer_size"`
	CurrentEmployerIndustry string          `json:"current_employer_industry"`
	Location                string          `json:"location"`
	LinkedInURL             string          `json:"linkedin_url"`
	SeniorityLevel          string          `json:"seniority_level"`
	PhoneNumbers            []struct {
		Number string `json:"number"`
	} `json:"phone_numbers"`
}

// decodeProfile normalises a RocketReach profile. The full payload is kept in
// Record.Raw so qualification can read provider signals from it.
func decodeProfile(raw json.RawMessage) (models.Record, error) {
	var p profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.Record{}, fmt.Errorf("decode profile: %w", err)
	}
	var rawMap map[string]any
	if err := json.Unmarshal(raw, &rawMap); err != nil {
		return models.Record{}, fmt.Errorf("decode profile map: %w", err)
	}

	first, last := p.FirstName, p.LastName
	if first == "" && last == "" && p.Name != "" {
		first, last = splitName(p.Name)
	}

	rec := models.Record{
		Email:           p.primaryEmail(),
		FirstName:       first,
		LastName:        last,
		JobTitle:        p.CurrentTitle,
		CompanyName:     p.CurrentEmployer,
		CompanyDomain:   p.CurrentEmployerDomain,
		CompanyIndustry: p.CurrentEmployerIndustry,
		CompanySize:     sizeString(p.CurrentEmployerSize),
		Location:        p.Location,
		LinkedInURL:     p.LinkedInURL,
		SeniorityLevel:  p.SeniorityLevel,
		Source:          ProviderID,
		Raw:             rawMap,
	}
	if len(p.PhoneNumbers) > 0 {
		rec.Phone = p.PhoneNumbers[0].Number
	}
	return rec, nil
}

// primaryEmail prefers the top-level address, then a professional one.
func (p profile) primaryEmail() string {
	if p.Email != "" {
		return p.Email
	}
	for _, e := range p.Emails {
		if e.Type == "professional" && e.Email != "" {
			return e.Email
		}
	}
	for _, e := range p.Emails {
		if e.Email != "" {
			return e.Email
		}
	}
	return ""
}

// sizeString accepts both "51-200" and 120 encodings.
func sizeString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return ""
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
