package models

// Record is a candidate contact as reported by a prospect source or the
// enrichment provider, before it becomes a Prospect.
type Record struct {
	Email           string         `json:"email,omitempty"`
	FirstName       string         `json:"first_name,omitempty"`
	LastName        string         `json:"last_name,omitempty"`
	Phone           string         `json:"phone,omitempty"`
	JobTitle        string         `json:"job_title,omitempty"`
	CompanyName     string         `json:"company_name,omitempty"`
	CompanyDomain   string         `json:"company_domain,omitempty"`
	CompanyIndustry string         `json:"company_industry,omitempty"`
	CompanySize     string         `json:"company_size,omitempty"`
	Location        string         `json:"location,omitempty"`
	LinkedInURL     string         `json:"linkedin_url,omitempty"`
	SeniorityLevel  string         `json:"seniority_level,omitempty"`
	Source          string         `json:"source,omitempty"`
	Raw             map[string]any `json:"raw_data,omitempty"`
}

// Merge backfills r with values from enriched. A field from enriched wins only
// when it is non-empty; raw maps are merged key by key on the same rule.
func (r Record) Merge(enriched *Record) Record {
	if enriched == nil {
		return r
	}
	out := r
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&out.Email, enriched.Email)
	pick(&out.FirstName, enriched.FirstName)
	pick(&out.LastName, enriched.LastName)
	pick(&out.Phone, enriched.Phone)
	pick(&out.JobTitle, enriched.JobTitle)
	pick(&out.CompanyName, enriched.CompanyName)
	pick(&out.CompanyDomain, enriched.CompanyDomain)
	pick(&out.CompanyIndustry, enriched.CompanyIndustry)
	pick(&out.CompanySize, enriched.CompanySize)
	pick(&out.Location, enriched.Location)
	pick(&out.LinkedInURL, enriched.LinkedInURL)
	pick(&out.SeniorityLevel, enriched.SeniorityLevel)

	merged := cloneMap(r.Raw)
	for k, v := range enriched.Raw {
		if v != nil {
			merged[k] = v
		}
	}
	if out.SeniorityLevel != "" {
		if _, ok := merged["seniority_level"]; !ok {
			merged["seniority_level"] = out.SeniorityLevel
		}
	}
	out.Raw = merged
	return out
}
