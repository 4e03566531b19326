package scoring

import (
	"strings"

	"leadflow/internal/prospect/models"
)

// Criteria is the targeting a candidate is ranked against. Its field set
// matches campaign models.Criteria so the two convert directly.
type Criteria struct {
	JobTitles    []string `json:"job_titles,omitempty"`
	Industries   []string `json:"industries,omitempty"`
	CompanySizes []string `json:"company_sizes,omitempty"`
	Locations    []string `json:"locations,omitempty"`
}

const (
	weightCompanySize  = 30
	weightIndustry     = 25
	weightLocation     = 20
	weightJobTitle     = 15
	weightCompleteness = 10
)

// Firmographic ranks rec against criteria on a 0..100 scale. A nil criteria
// scores every present attribute at half weight.
func Firmographic(rec models.Record, criteria *Criteria) int {
	var c Criteria
	if criteria != nil {
		c = *criteria
	}
	score := attribute(rec.CompanySize, c.CompanySizes, weightCompanySize)
	score += attribute(rec.CompanyIndustry, c.Industries, weightIndustry)
	score += attribute(rec.Location, c.Locations, weightLocation)
	score += attribute(rec.JobTitle, c.JobTitles, weightJobTitle)
	score += completeness(rec)
	return score
}

// attribute scores full weight on a criteria match, half weight when the
// value is present but unmatched (or no list given) and zero when absent.
func attribute(value string, targets []string, weight int) int {
	if strings.TrimSpace(value) == "" {
		return 0
	}
	if matchesAny(value, targets) {
		return weight
	}
	return weight / 2
}

func completeness(rec models.Record) int {
	fields := []string{rec.Email, rec.FirstName, rec.LastName, rec.CompanyName, rec.JobTitle}
	filled := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			filled++
		}
	}
	return filled * weightCompleteness / len(fields)
}

// matchesAny is case-insensitive containment in either direction.
func matchesAny(value string, targets []string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, t := range targets {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if strings.Contains(v, t) || strings.Contains(t, v) {
			return true
		}
	}
	return false
}
