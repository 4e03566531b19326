// Package scoring holds the two pure scoring functions used by the campaign
// pipeline: the BANT qualification score and the firmographic priority score.
// Nothing here performs I/O or keeps state; every function is safe for
// concurrent use.
package scoring

import (
	"fmt"

	"leadflow/internal/prospect/models"
	dErrors "leadflow/pkg/domain-errors"
)

// Recommendation is the next action suggested by a qualification score.
type Recommendation string

const (
	RecommendContact Recommendation = "contact"
	RecommendNurture Recommendation = "nurture"
	RecommendReject  Recommendation = "reject"
)

const (
	maxDimension = 25
	maxTotal     = 4 * maxDimension
)

// UseDefaultThreshold asks Engine.Qualify for the configured default. Zero
// is a real threshold that qualifies every prospect.
const UseDefaultThreshold = -1

// Config tunes the engine. Zero fields fall back to DefaultConfig values.
type Config struct {
	// DefaultThreshold applies when a caller has no campaign threshold.
	DefaultThreshold int
	// NurtureFloor is the lowest total that still earns "nurture".
	NurtureFloor int
}

func DefaultConfig() Config {
	return Config{DefaultThreshold: 60, NurtureFloor: 40}
}

// QualificationInput is the subset of prospect data the BANT score reads.
type QualificationInput struct {
	CompanySize    string
	JobTitle       string
	Industry       string
	LinkedInURL    string
	EnrichmentData map[string]any
}

// InputFromProspect builds the qualification input for p. Industry falls back
// to the company name.
func InputFromProspect(p *models.Prospect) QualificationInput {
	return QualificationInput{
		CompanySize:    p.CompanySize,
		JobTitle:       p.JobTitle,
		Industry:       p.Industry(),
		LinkedInURL:    p.LinkedInURL,
		EnrichmentData: p.EnrichmentData,
	}
}

// Result is a scored qualification. Qualified and Recommendation are both
// derived from the single Threshold that produced them.
type Result struct {
	Breakdown      models.Breakdown `json:"breakdown"`
	Total          int              `json:"total"`
	Threshold      int              `json:"threshold"`
	Qualified      bool             `json:"qualified"`
	Recommendation Recommendation   `json:"recommendation"`
}

// Engine applies Config to the pure scoring functions.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.DefaultThreshold <= 0 {
		cfg.DefaultThreshold = def.DefaultThreshold
	}
	if cfg.NurtureFloor <= 0 {
		cfg.NurtureFloor = def.NurtureFloor
	}
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() Config { return e.cfg }

// Qualify scores in against threshold, which must be within 0..100 or
// UseDefaultThreshold.
func (e *Engine) Qualify(in QualificationInput, threshold int) (Result, error) {
	if threshold == UseDefaultThreshold {
		threshold = e.cfg.DefaultThreshold
	}
	if threshold < 0 || threshold > maxTotal {
		return Result{}, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("qualification threshold %d outside 0..%d", threshold, maxTotal))
	}
	return Qualify(in, threshold, e.cfg.NurtureFloor), nil
}

// Qualify computes the BANT score. It never fails; malformed inputs land in
// the lowest tier of their dimension.
func Qualify(in QualificationInput, threshold, nurtureFloor int) Result {
	b := models.Breakdown{
		Budget:    Budget(in.CompanySize),
		Authority: Authority(in.JobTitle),
		Need:      Need(in.Industry, in.EnrichmentData),
		Timeline:  Timeline(in.LinkedInURL, in.EnrichmentData),
	}
	total := b.Total()

	rec := RecommendReject
	switch {
	case total >= threshold:
		rec = RecommendContact
	case total >= nurtureFloor:
		rec = RecommendNurture
	}

	return Result{
		Breakdown:      b,
		Total:          total,
		Threshold:      threshold,
		Qualified:      total >= threshold,
		Recommendation: rec,
	}
}
