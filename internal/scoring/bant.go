package scoring

import (
	"strconv"
	"strings"
	"unicode"
)

// Budget tiers on the largest integer found in company size ("51-200" -> 200).
// Thousands separators are accepted ("1,000+" -> 1000).
func Budget(companySize string) int {
	n, ok := largestInt(companySize)
	switch {
	case !ok || n < 10:
		return 5
	case n < 30:
		return 8
	case n < 100:
		return 13
	case n < 500:
		return 18
	default:
		return 23
	}
}

func largestInt(s string) (int, bool) {
	s = stripThousandsSeparators(s)
	best, found := 0, false
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) {
		n, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		if !found || n > best {
			best, found = n, true
		}
	}
	return best, found
}

// stripThousandsSeparators drops commas that sit between two digits.
func stripThousandsSeparators(s string) string {
	r := []rune(s)
	var b strings.Builder
	for i, c := range r {
		if c == ',' && i > 0 && i < len(r)-1 && unicode.IsDigit(r[i-1]) && unicode.IsDigit(r[i+1]) {
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

type authorityTier struct {
	score   int
	words   []string // matched against whole title words
	phrases []string // matched as substrings
}

// Ordered most senior first; the first tier that matches wins. Acronyms are
// word matches so "director" does not hit "cto".
var authorityTiers = []authorityTier{
	{score: 23, words: []string{"ceo", "cto", "cfo", "coo", "cmo", "cro"}, phrases: []string{"founder", "president", "chief"}},
	{score: 18, words: []string{"vp", "svp", "evp"}, phrases: []string{"head of"}},
	{score: 13, phrases: []string{"director"}},
	{score: 8, phrases: []string{"manager", "lead"}},
}

// Authority classifies a job title by seniority keyword.
func Authority(jobTitle string) int {
	title := strings.ToLower(strings.TrimSpace(jobTitle))
	if title == "" {
		return 5
	}
	// "vice president" must not reach the "president" phrase.
	title = strings.ReplaceAll(title, "vice president", "vp")
	words := strings.FieldsFunc(title, func(r rune) bool { return !unicode.IsLetter(r) })
	for _, tier := range authorityTiers {
		for _, p := range tier.phrases {
			if strings.Contains(title, p) {
				return tier.score
			}
		}
		for _, w := range words {
			for _, kw := range tier.words {
				if w == kw {
					return tier.score
				}
			}
		}
	}
	return 5
}

// Enrichment keys read as qualification signals.
const (
	SignalEmployerSize = "current_employer_size"
	SignalSeniority    = "seniority_level"
	SignalRecency      = "updated_at"
)

// Need accumulates +5 per signal on a base of 5 and reports the bucket.
func Need(industry string, enrichment map[string]any) int {
	need := 5
	if strings.TrimSpace(industry) != "" {
		need += 5
	}
	if hasSignal(enrichment, SignalEmployerSize) {
		need += 5
	}
	if hasSignal(enrichment, SignalSeniority) {
		need += 5
	}
	switch {
	case need >= 20:
		return 20
	case need >= 15:
		return 15
	case need >= 10:
		return 10
	default:
		return 5
	}
}

// Timeline is 15 when the enrichment carries a recency stamp, otherwise the
// accumulated base (10, +3 for a profile URL) reported as 10 or 15.
func Timeline(profileURL string, enrichment map[string]any) int {
	if hasSignal(enrichment, SignalRecency) {
		return 15
	}
	timeline := 10
	if strings.TrimSpace(profileURL) != "" {
		timeline += 3
	}
	if timeline >= 15 {
		return 15
	}
	return 10
}

// hasSignal looks for a non-empty key at the top level of the enrichment map
// and then inside its nested "raw_data" map.
func hasSignal(enrichment map[string]any, key string) bool {
	if present(enrichment[key]) {
		return true
	}
	if raw, ok := enrichment["raw_data"].(map[string]any); ok {
		return present(raw[key])
	}
	return false
}

func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	default:
		return true
	}
}
